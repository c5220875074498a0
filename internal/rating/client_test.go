package rating_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tax/internal/rating"
)

func TestCalculateRoundTrip(t *testing.T) {
	var captured rating.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calculate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(rating.Response{
			TransactionID:     40043,
			TransactionStatus: 4,
			TotalTaxApplied:   decimal.RequireFromString("0.89"),
			LineItemTaxes: []rating.LineItemTax{
				{
					ID:              "1",
					CountryCode:     "US",
					StateOrProvince: "NY",
					TotalTaxApplied: decimal.RequireFromString("0.89"),
					TaxDetails: []rating.TaxDetail{
						{AuthorityName: "NEW YORK, STATE OF", TaxName: "STATE SALES TAX", TaxApplied: decimal.RequireFromString("0.89")},
					},
				},
			},
		})
	}))
	defer server.Close()

	client, err := rating.NewClient(rating.ClientConfig{Endpoint: server.URL})
	require.NoError(t, err)

	resp, err := client.Calculate(context.Background(), &rating.Request{
		EntityID:     "TESTSANDBOX",
		DivisionID:   "42",
		SourceSystem: "tax-api",
		LineItems: []rating.LineItem{
			{ID: "1", AvgUnitPrice: decimal.RequireFromString("10.00000"), Quantity: 1, SKU: "ABC123"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(40043), resp.TransactionID)
	require.Len(t, resp.LineItemTaxes, 1)
	require.Equal(t, "TESTSANDBOX", captured.EntityID)
	require.Equal(t, "42", captured.DivisionID)
	require.Equal(t, int64(0), captured.TransactionID)
}

func TestCalculateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := rating.NewClient(rating.ClientConfig{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Calculate(context.Background(), &rating.Request{})
	require.Error(t, err)
}

func TestCalculateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(rating.Response{})
	}))
	defer server.Close()

	client, err := rating.NewClient(rating.ClientConfig{Endpoint: server.URL, ReadTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Calculate(context.Background(), &rating.Request{})
	require.Error(t, err)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := rating.NewClient(rating.ClientConfig{})
	require.Error(t, err)
}
