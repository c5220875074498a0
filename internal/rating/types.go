package rating

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Address is the postal address shape expected by the rating service. The
// postal code is always the clipped 5-character base; the optional 4-character
// extension travels separately in Plus4.
type Address struct {
	Line1           string `json:"Line1"`
	Line2           string `json:"Line2,omitempty"`
	City            string `json:"City"`
	StateOrProvince string `json:"StateOrProvince"`
	PostalCode      string `json:"PostalCode"`
	Plus4           string `json:"Plus4,omitempty"`
	CountryCode     string `json:"CountryCode"`
}

// ProductInfo carries the product classification codes for a line item.
type ProductInfo struct {
	ProductGroup string `json:"ProductGroup"`
	ProductItem  string `json:"ProductItem"`
}

// NexusInfo establishes the origin/destination jurisdiction relationship of a line.
type NexusInfo struct {
	ShipFromAddress *Address `json:"ShipFromAddress,omitempty"`
	ShipToAddress   *Address `json:"ShipToAddress,omitempty"`
}

// LineItem is a single rateable line in a request.
type LineItem struct {
	ID            string          `json:"ID"`
	AvgUnitPrice  decimal.Decimal `json:"AvgUnitPrice"`
	Quantity      int             `json:"Quantity"`
	ExemptionCode *string         `json:"ExemptionCode"`
	SKU           string          `json:"SKU"`
	ProductInfo   *ProductInfo    `json:"ProductInfo,omitempty"`
	NexusInfo     NexusInfo       `json:"NexusInfo"`
}

// Request is a tax calculation request. TransactionID is always 0 for a new
// calculation; non-zero IDs are reserved for adjustments, which this engine
// does not issue.
type Request struct {
	EntityID        string     `json:"EntityID"`
	DivisionID      string     `json:"DivisionID"`
	InvoiceDate     time.Time  `json:"InvoiceDate"`
	SourceSystem    string     `json:"SourceSystem"`
	TestTransaction bool       `json:"TestTransaction"`
	TransactionType string     `json:"TransactionType"`
	CustomerType    string     `json:"CustomerType"`
	ProviderType    string     `json:"ProviderType"`
	TransactionID   int64      `json:"TransactionID"`
	Finalize        bool       `json:"finalize"`
	LineItems       []LineItem `json:"LineItems"`
}

// Message is a diagnostic entry attached to a response. Codes greater than
// zero indicate an error of the given severity.
type Message struct {
	Code              int    `json:"Code"`
	Info              string `json:"Info"`
	Severity          int    `json:"Severity"`
	Reference         string `json:"Reference,omitempty"`
	Source            int    `json:"Source"`
	TransactionStatus int    `json:"TransactionStatus"`
}

// TaxDetail is one authority's aggregate tax for an entire line (inclusive of
// quantity); per-unit amounts are derived by the apportioner.
type TaxDetail struct {
	AuthorityName   string          `json:"AuthorityName"`
	TaxName         string          `json:"TaxName"`
	FeeApplied      decimal.Decimal `json:"FeeApplied"`
	TaxApplied      decimal.Decimal `json:"TaxApplied"`
	TaxRate         decimal.Decimal `json:"TaxRate"`
	TaxableAmount   decimal.Decimal `json:"TaxableAmount"`
	TaxableQuantity decimal.Decimal `json:"TaxableQuantity"`
}

// LineItemTax groups the tax details reported for one request line.
type LineItemTax struct {
	ID              string          `json:"ID"`
	CountryCode     string          `json:"CountryCode"`
	StateOrProvince string          `json:"StateOrProvince"`
	TaxDetails      []TaxDetail     `json:"TaxDetails"`
	TotalTaxApplied decimal.Decimal `json:"TotalTaxApplied"`
}

// Response is the rating service's answer to a Request.
type Response struct {
	TransactionID     int64           `json:"TransactionID"`
	TransactionStatus int             `json:"TransactionStatus"`
	TotalTaxApplied   decimal.Decimal `json:"TotalTaxApplied"`
	Messages          []Message       `json:"Messages"`
	LineItemTaxes     []LineItemTax   `json:"LineItemTaxes"`
}

// Caller executes a single calculation round trip against the rating service.
// Implementations own wire-level serialization and transport timeouts; they do
// not retry.
type Caller interface {
	Calculate(ctx context.Context, req *Request) (*Response, error)
}
