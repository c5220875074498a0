package tax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/rating"
	"github.com/noah-isme/backend-tax/internal/resilience"
)

// Options is the immutable configuration of a Calculator. EntityID and
// DivisionID are required; everything else has a sensible default.
type Options struct {
	EntityID   string
	DivisionID string

	SourceSystem        string
	TestTransactions    bool
	TransactionType     string
	CustomerType        string
	ProviderType        string
	FinalizeTransaction bool

	// MaxRetries is the number of additional attempts after the first
	// failed call.
	MaxRetries int
	// Precision is the number of decimal places used for reconciliation.
	Precision int32
	// ShippingTaxesEnabled controls whether shipping charge components are
	// included in rating requests.
	ShippingTaxesEnabled bool

	// Default product classification codes, used when a line carries no
	// override.
	ProductSKU   string
	ProductGroup string
	ProductItem  string

	// TimeZone for invoice timestamps. Defaults to UTC.
	TimeZone *time.Location
}

// Calculator shapes rating requests, tolerates transient remote failure and
// apportions the service's aggregate answers down to per-unit amounts.
// It is stateless apart from the optional shared circuit breaker; a single
// instance is safe for concurrent use.
type Calculator struct {
	opts    Options
	caller  rating.Caller
	breaker *resilience.Breaker
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCalculator constructs a Calculator around the given transport.
func NewCalculator(opts Options, caller rating.Caller) *Calculator {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Precision <= 0 {
		opts.Precision = 2
	}
	if opts.TimeZone == nil {
		opts.TimeZone = time.UTC
	}
	return &Calculator{
		opts:   opts,
		caller: caller,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
}

// WithBreaker funnels every remote attempt through the given circuit breaker.
// The breaker accumulates failures across all calls made through this
// calculator instance.
func (c *Calculator) WithBreaker(b *resilience.Breaker) *Calculator {
	c.breaker = b
	return c
}

// WithLogger configures the logger used for failure events.
func (c *Calculator) WithLogger(logger zerolog.Logger) *Calculator {
	c.logger = logger
	return c
}

// WithClock overrides the invoice timestamp source.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// ApplyTaxes rates the input against the remote service and writes per-unit
// tax state onto every line price and shipping component. On remote failure
// (or a rejected response) all prices are set to known-zero tax and a nil
// response is returned; callers distinguish "tax unknown" by the nil
// response, not by an error. The only unconditional error is a
// reconciliation miscalculation. In strict mode remote failures surface as
// errors instead.
func (c *Calculator) ApplyTaxes(ctx context.Context, in ApplyInput) (*rating.Response, error) {
	resp, err := c.fetchResponse(ctx, in)
	if err != nil {
		return nil, err
	}
	return c.ApplyResponse(in, resp)
}

// ApplyResponse apportions an already-obtained response onto the input's
// prices without contacting the remote service. Callers replaying a cached
// response use this instead of ApplyTaxes.
func (c *Calculator) ApplyResponse(in ApplyInput, resp *rating.Response) (*rating.Response, error) {
	ok, msgErr := c.checkResponseMessages(resp)
	if !ok {
		if in.Strict && msgErr != nil {
			return nil, msgErr
		}
		resp = nil
	}

	// Detail groups are matched by line identifier, not response order.
	lineTaxes := make(map[string]*rating.LineItemTax)
	if resp != nil {
		for i := range resp.LineItemTaxes {
			lt := &resp.LineItemTaxes[i]
			lineTaxes[lt.ID] = lt
		}
	}

	for _, line := range in.Lines {
		if line.Price == nil {
			continue
		}
		if err := c.applyTaxesToPrice(lineTaxes[line.ID], line.Price, line.Quantity); err != nil {
			return nil, err
		}
	}
	if in.ShippingCharge != nil {
		for _, comp := range in.ShippingCharge.Components() {
			if err := c.applyTaxesToPrice(lineTaxes[comp.LineID()], comp.Price, 1); err != nil {
				return nil, err
			}
		}
	}

	return resp, nil
}

// fetchResponse runs the bounded retry loop. Each attempt is funneled through
// the breaker when one is configured; an open breaker refuses the attempt
// without touching the transport, and the loop stops immediately since the
// breaker would refuse every remaining attempt as well.
func (c *Calculator) fetchResponse(ctx context.Context, in ApplyInput) (*rating.Response, error) {
	req := c.buildRequest(in)
	if req == nil {
		// Nothing to rate; never contact the remote service.
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		resp, err := c.callOnce(ctx, req)
		if err == nil {
			ratingAttempts.WithLabelValues(outcomeSuccess).Inc()
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, resilience.ErrOpenCircuit) {
			ratingAttempts.WithLabelValues(outcomeOpen).Inc()
			c.logger.Warn().Int("attempt", attempt).Msg("rating_breaker_open")
			break
		}
		ratingAttempts.WithLabelValues(outcomeFailure).Inc()
		c.logger.Error().Err(err).Int("attempt", attempt).Msg("rating_call_failed")
	}

	applyFailures.Inc()
	if in.Strict {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, lastErr)
	}
	c.logger.Warn().Msg("tax_unknown")
	return nil, nil
}

func (c *Calculator) callOnce(ctx context.Context, req *rating.Request) (*rating.Response, error) {
	if c.breaker == nil {
		return c.caller.Calculate(ctx, req)
	}
	var resp *rating.Response
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		r, err := c.caller.Calculate(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// checkResponseMessages decides whether the response is usable. Any message
// with a positive code marks the response unusable; the typed error is logged
// and returned for strict-mode surfacing.
func (c *Calculator) checkResponseMessages(resp *rating.Response) (bool, error) {
	if resp == nil {
		return false, nil
	}
	for _, msg := range resp.Messages {
		if msg.Code <= 0 {
			continue
		}
		err := buildMessageError(msg.Severity, msg.Code, msg.Info)
		unusableResponses.Inc()
		c.logger.Error().
			Err(err).
			Int("code", msg.Code).
			Int("severity", msg.Severity).
			Msg("rating_response_rejected")
		return false, err
	}
	return true, nil
}

func (c *Calculator) precision() int32 {
	return c.opts.Precision
}

func quantize5(v decimal.Decimal) decimal.Decimal {
	return v.Round(5)
}
