package estimate

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tax/internal/price"
	"github.com/noah-isme/backend-tax/internal/rating"
	"github.com/noah-isme/backend-tax/internal/tax"
)

type countingCaller struct {
	calls int
	resp  *rating.Response
}

func (c *countingCaller) Calculate(ctx context.Context, req *rating.Request) (*rating.Response, error) {
	c.calls++
	return c.resp, nil
}

func taxedResponse(lineID, total string) *rating.Response {
	amount := decimal.RequireFromString(total)
	return &rating.Response{
		TransactionID:   77,
		TotalTaxApplied: amount,
		LineItemTaxes: []rating.LineItemTax{{
			ID:              lineID,
			TotalTaxApplied: amount,
			TaxDetails: []rating.TaxDetail{
				{AuthorityName: "STATE", TaxName: "STATE TAX", TaxApplied: amount},
			},
		}},
	}
}

func estimateInput(lineID string) tax.ApplyInput {
	return tax.ApplyInput{
		Destination: &tax.Address{
			Line1:    "325 F St",
			City:     "Anchorage",
			State:    "AK",
			Postcode: "99501",
			Country:  "US",
		},
		Lines: []*tax.Line{{
			ID:            lineID,
			Quantity:      1,
			ExtendedPrice: decimal.RequireFromString("10.00"),
			Price:         price.New("USD", decimal.RequireFromString("10.00")),
		}},
	}
}

func newTestEstimator(t *testing.T, caller rating.Caller) (*Estimator, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calc := tax.NewCalculator(tax.Options{
		EntityID:   "TESTSANDBOX",
		DivisionID: "42",
	}, caller)
	return &Estimator{
		Calc:   calc,
		Cache:  NewCache(client, time.Hour),
		Logger: zerolog.Nop(),
	}, mr
}

func TestEstimateCachesResponse(t *testing.T) {
	caller := &countingCaller{resp: taxedResponse("1", "0.89")}
	est, _ := newTestEstimator(t, caller)

	key := Key("basket-9", 3, estimateInput("1").Destination)

	in := estimateInput("1")
	resp, err := est.Estimate(context.Background(), key, in)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 1, caller.calls)

	// Second estimate for the same key replays the cached response.
	in2 := estimateInput("1")
	resp, err = est.Estimate(context.Background(), key, in2)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 1, caller.calls)

	taxAmount, known := in2.Lines[0].Price.Tax()
	require.True(t, known)
	require.True(t, taxAmount.Equal(decimal.RequireFromString("0.89")))
}

func TestEstimateKeyVariesByJurisdiction(t *testing.T) {
	dest := estimateInput("1").Destination
	base := Key("b1", 1, dest)

	other := *dest
	other.Postcode = "99501-1234"
	require.Equal(t, base, Key("b1", 1, &other), "plus4 must not change the key")

	other.State = "WA"
	other.Postcode = "98101"
	require.NotEqual(t, base, Key("b1", 1, &other))
	require.NotEqual(t, base, Key("b1", 2, dest))
	require.NotEqual(t, base, Key("b2", 1, dest))
}

func TestEstimateDegradesWhenCacheUnavailable(t *testing.T) {
	caller := &countingCaller{resp: taxedResponse("1", "0.50")}
	est, mr := newTestEstimator(t, caller)
	mr.Close()

	in := estimateInput("1")
	resp, err := est.Estimate(context.Background(), Key("b1", 1, in.Destination), in)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 1, caller.calls)
}
