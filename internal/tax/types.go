package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/price"
)

// Address is a caller-supplied postal address. Postcode holds the raw value;
// clipping and Plus4 extraction happen when the rating request is built.
type Address struct {
	Line1    string
	Line2    string
	City     string
	State    string
	Postcode string
	Country  string
}

// Line is one merchandise line of the caller's basket. The engine never
// creates or removes lines; it only mutates Price through apportionment.
type Line struct {
	ID string
	// Quantity is the natural line quantity used for apportionment.
	Quantity int
	// RatingQuantity optionally overrides Quantity in the rating request,
	// e.g. when a bundled product rates as multiple units.
	RatingQuantity *int
	// ExtendedPrice is the full line price excluding tax, after discounts.
	ExtendedPrice decimal.Decimal
	// SKU, ProductGroup and ProductItem override the configured defaults
	// when non-empty.
	SKU          string
	ProductGroup string
	ProductItem  string
	// ExemptionCode marks the line tax-exempt for the rating service.
	ExemptionCode *string
	// Origin is the warehouse the line ships from, when known.
	Origin *Address
	// Price is the per-unit price the apportioned tax is written onto.
	Price *price.TaxablePrice
}

func (l *Line) effectiveQuantity() int {
	if l.RatingQuantity != nil {
		return *l.RatingQuantity
	}
	return l.Quantity
}

// ApplyInput bundles everything needed for one tax application pass.
type ApplyInput struct {
	Destination    *Address
	Lines          []*Line
	ShippingCharge *price.ShippingCharge
	// Strict surfaces remote failures and rejected responses as errors
	// instead of degrading to "tax unknown".
	Strict bool
}
