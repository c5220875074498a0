package estimate

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tax/internal/rating"
	"github.com/noah-isme/backend-tax/internal/tax"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tax",
		Name:      "estimate_cache_hit_total",
		Help:      "Tax estimates served from the response cache",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tax",
		Name:      "estimate_cache_miss_total",
		Help:      "Tax estimates that required a rating service call",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses)
}

// Estimator answers repeated estimate requests for the same basket and
// destination jurisdiction from a Redis-backed response cache, only hitting
// the rating service on a miss. Estimates are keyed on basket identity plus
// the jurisdiction fields that drive the rate: state and the clipped
// postcode base.
type Estimator struct {
	Calc   *tax.Calculator
	Cache  *Cache
	Logger zerolog.Logger
}

// Key derives the cache key for a basket revision shipping to the given
// destination.
func Key(basketID string, version int64, dest *tax.Address) string {
	base, _ := tax.FormatPostcode(dest.Postcode)
	return fmt.Sprintf("tax:estimate:%s:%d:%s:%s", basketID, version, dest.State, base)
}

// Estimate applies taxes to the input, reusing a cached rating response when
// one exists for the key. Cache failures degrade to a direct calculation;
// they are logged, never surfaced.
func (e *Estimator) Estimate(ctx context.Context, key string, in tax.ApplyInput) (*rating.Response, error) {
	cached, err := e.Cache.Get(ctx, key)
	if err != nil {
		e.Logger.Warn().Err(err).Str("key", key).Msg("estimate_cache_read_failed")
	}
	if cached != nil {
		cacheHits.Inc()
		return e.Calc.ApplyResponse(in, cached)
	}

	cacheMisses.Inc()
	resp, err := e.Calc.ApplyTaxes(ctx, in)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		if err := e.Cache.Set(ctx, key, resp); err != nil {
			e.Logger.Warn().Err(err).Str("key", key).Msg("estimate_cache_write_failed")
		}
	}
	return resp, nil
}
