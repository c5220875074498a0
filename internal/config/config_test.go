package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":       "postgres://localhost/tax_test",
		"REDIS_URL":          "redis://localhost:6379/0",
		"RATING_ENDPOINT":    "https://rating.example.com/api",
		"RATING_ENTITY_ID":   "TESTSANDBOX",
		"RATING_DIVISION_ID": "42",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "01", cfg.TransactionType)
	require.Equal(t, "08", cfg.CustomerType)
	require.Equal(t, "70", cfg.ProviderType)
	require.Equal(t, 2, cfg.MaxRetries)
	require.EqualValues(t, 2, cfg.Precision)
	require.Equal(t, "", cfg.ProductSKU)
	require.Equal(t, "PARCEL", cfg.ShippingSKU)
	require.Equal(t, 3*time.Second, cfg.RatingConnectTimeout)
	require.Equal(t, 10*time.Second, cfg.RatingReadTimeout)
	require.Equal(t, 30*time.Second, cfg.BreakerResetTimeout)
	require.Equal(t, time.Hour, cfg.EstimateCacheTTL)
	require.Equal(t, time.UTC, cfg.TimeZone)
	require.False(t, cfg.ShippingTaxesEnabled)
	require.False(t, cfg.BreakerEnabled)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["RATING_MAX_RETRIES"] = "5"
	env["SHIPPING_TAXES_ENABLED"] = "true"
	env["RATING_BREAKER_ENABLED"] = "1"
	env["RATING_BREAKER_THRESHOLD"] = "3"
	env["RATING_TIME_ZONE"] = "America/New_York"
	env["PRODUCT_SKU"] = "GENERAL"
	env["SHIPPING_SKU"] = "FREIGHT"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, "GENERAL", cfg.ProductSKU)
	require.Equal(t, "FREIGHT", cfg.ShippingSKU)
	require.True(t, cfg.ShippingTaxesEnabled)
	require.True(t, cfg.BreakerEnabled)
	require.Equal(t, 3, cfg.BreakerThreshold)
	require.Equal(t, "America/New_York", cfg.TimeZone.String())
}

func TestLoadRequiresRatingIdentity(t *testing.T) {
	env := baseEnv()
	env["RATING_ENTITY_ID"] = ""

	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "RATING_ENTITY_ID")
}

func TestLoadRequiresEndpoint(t *testing.T) {
	env := baseEnv()
	env["RATING_ENDPOINT"] = ""

	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "RATING_ENDPOINT")
}
