package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Rating service connection.
	RatingEndpoint       string
	RatingProxyURL       string
	RatingConnectTimeout time.Duration
	RatingReadTimeout    time.Duration

	// Rating transaction identity.
	EntityID            string
	DivisionID          string
	SourceSystem        string
	TestTransactions    bool
	TransactionType     string
	CustomerType        string
	ProviderType        string
	FinalizeTransaction bool
	TimeZone            *time.Location

	// Calculation behavior. ProductSKU/Group/Item are the merchandise
	// classification fallbacks and default to empty; ShippingSKU is the
	// default carrier code for shipping components.
	MaxRetries           int
	Precision            int32
	ShippingTaxesEnabled bool
	ProductSKU           string
	ProductGroup         string
	ProductItem          string
	ShippingSKU          string

	// Circuit breaker around the rating service.
	BreakerEnabled      bool
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	// Estimate cache.
	EstimateCacheTTL time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RatingEndpoint:       k.String("RATING_ENDPOINT"),
		RatingProxyURL:       k.String("RATING_PROXY_URL"),
		RatingConnectTimeout: parseDuration(k.String("RATING_CONNECT_TIMEOUT"), "3s"),
		RatingReadTimeout:    parseDuration(k.String("RATING_READ_TIMEOUT"), "10s"),

		EntityID:            k.String("RATING_ENTITY_ID"),
		DivisionID:          k.String("RATING_DIVISION_ID"),
		SourceSystem:        valueOrDefault(k.String("RATING_SOURCE_SYSTEM"), "tax-api"),
		TestTransactions:    parseBool(k.String("RATING_TEST_TRANSACTIONS")),
		TransactionType:     valueOrDefault(k.String("RATING_TRANSACTION_TYPE"), "01"),
		CustomerType:        valueOrDefault(k.String("RATING_CUSTOMER_TYPE"), "08"),
		ProviderType:        valueOrDefault(k.String("RATING_PROVIDER_TYPE"), "70"),
		FinalizeTransaction: parseBool(k.String("RATING_FINALIZE_TRANSACTION")),

		MaxRetries:           parseInt(k.String("RATING_MAX_RETRIES"), 2),
		Precision:            int32(parseInt(k.String("TAX_PRECISION"), 2)),
		ShippingTaxesEnabled: parseBool(k.String("SHIPPING_TAXES_ENABLED")),
		ProductSKU:           k.String("PRODUCT_SKU"),
		ProductGroup:         k.String("PRODUCT_GROUP"),
		ProductItem:          k.String("PRODUCT_ITEM"),
		ShippingSKU:          valueOrDefault(k.String("SHIPPING_SKU"), "PARCEL"),

		BreakerEnabled:      parseBool(k.String("RATING_BREAKER_ENABLED")),
		BreakerThreshold:    parseInt(k.String("RATING_BREAKER_THRESHOLD"), 5),
		BreakerResetTimeout: parseDuration(k.String("RATING_BREAKER_RESET_TIMEOUT"), "30s"),

		EstimateCacheTTL: parseDuration(k.String("ESTIMATE_CACHE_TTL"), "1h"),
	}

	tz, err := time.LoadLocation(valueOrDefault(k.String("RATING_TIME_ZONE"), "UTC"))
	if err != nil {
		return nil, fmt.Errorf("parse RATING_TIME_ZONE: %w", err)
	}
	cfg.TimeZone = tz

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.RatingEndpoint == "" {
		return nil, errors.New("RATING_ENDPOINT is required")
	}
	if cfg.EntityID == "" {
		return nil, errors.New("RATING_ENTITY_ID is required")
	}
	if cfg.DivisionID == "" {
		return nil, errors.New("RATING_DIVISION_ID is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	n, err := strconv.Atoi(base)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
