package price

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTaxAlreadyKnown is returned when a shipping charge is extended after taxes were applied.
var ErrTaxAlreadyKnown = errors.New("price: cannot add components once tax is known")

// TaxationDetail records one authority's per-unit contribution to a price's tax.
type TaxationDetail struct {
	AuthorityName string          `json:"authorityName"`
	TaxName       string          `json:"taxName"`
	TaxApplied    decimal.Decimal `json:"taxApplied"`
	FeeApplied    decimal.Decimal `json:"feeApplied"`
}

// TaxablePrice is a pre-tax monetary amount that accumulates apportioned tax
// details. Tax starts out unknown; it becomes known either by applying details
// or by explicitly zeroing it when the rating service reports no tax for the
// line.
type TaxablePrice struct {
	Currency string
	ExclTax  decimal.Decimal

	tax      decimal.Decimal
	taxKnown bool
	details  []TaxationDetail
}

// New constructs a TaxablePrice with unknown tax.
func New(currency string, exclTax decimal.Decimal) *TaxablePrice {
	return &TaxablePrice{Currency: currency, ExclTax: exclTax}
}

// AddTax appends an apportioned taxation detail and accumulates the running
// per-unit tax total by tax + fee.
func (p *TaxablePrice) AddTax(d TaxationDetail) {
	p.details = append(p.details, d)
	if !p.taxKnown {
		p.tax = decimal.Zero
		p.taxKnown = true
	}
	p.tax = p.tax.Add(d.TaxApplied).Add(d.FeeApplied)
}

// ClearTaxes discards all taxation details and marks the tax unknown again.
func (p *TaxablePrice) ClearTaxes() {
	p.details = nil
	p.tax = decimal.Zero
	p.taxKnown = false
}

// ZeroTax marks the price as having a known tax of zero with no details.
func (p *TaxablePrice) ZeroTax() {
	p.details = nil
	p.tax = decimal.Zero
	p.taxKnown = true
}

// Tax returns the accumulated per-unit tax and whether it is known.
func (p *TaxablePrice) Tax() (decimal.Decimal, bool) {
	return p.tax, p.taxKnown
}

// TaxKnown reports whether tax has been applied or zeroed.
func (p *TaxablePrice) TaxKnown() bool {
	return p.taxKnown
}

// InclTax returns the tax-inclusive amount. It is only meaningful when tax is known.
func (p *TaxablePrice) InclTax() decimal.Decimal {
	return p.ExclTax.Add(p.tax)
}

// Details returns the apportioned taxation details in application order.
func (p *TaxablePrice) Details() []TaxationDetail {
	return p.details
}

// ShippingComponent is a single rateable slice of a shipping charge. Its line
// identifier is derived from the component SKU and its position within the
// owning charge, e.g. "shipping:PARCEL:0".
type ShippingComponent struct {
	SKU   string
	Price *TaxablePrice

	lineID string
}

// LineID returns the identifier used for this component in rating requests.
func (c *ShippingComponent) LineID() string {
	return c.lineID
}

// ShippingCharge aggregates an ordered list of shipping components. Components
// cannot be added once any component's tax is known, since the already-applied
// taxes would no longer cover the full charge.
type ShippingCharge struct {
	Currency string

	components []*ShippingComponent
}

// NewShippingCharge constructs an empty shipping charge.
func NewShippingCharge(currency string) *ShippingCharge {
	return &ShippingCharge{Currency: currency}
}

// AddComponent appends a component for the given carrier/method SKU.
func (sc *ShippingCharge) AddComponent(sku string, exclTax decimal.Decimal) (*ShippingComponent, error) {
	if sc.TaxKnown() && len(sc.components) > 0 {
		return nil, ErrTaxAlreadyKnown
	}
	c := &ShippingComponent{
		SKU:    sku,
		Price:  New(sc.Currency, exclTax),
		lineID: fmt.Sprintf("shipping:%s:%d", sku, len(sc.components)),
	}
	sc.components = append(sc.components, c)
	return c, nil
}

// Components returns the ordered components of the charge.
func (sc *ShippingCharge) Components() []*ShippingComponent {
	return sc.components
}

// ExclTax sums the pre-tax amounts across all components.
func (sc *ShippingCharge) ExclTax() decimal.Decimal {
	total := decimal.Zero
	for _, c := range sc.components {
		total = total.Add(c.Price.ExclTax)
	}
	return total
}

// Tax sums the component taxes. The second return value reports whether every
// component's tax is known.
func (sc *ShippingCharge) Tax() (decimal.Decimal, bool) {
	total := decimal.Zero
	known := true
	for _, c := range sc.components {
		tax, ok := c.Price.Tax()
		if !ok {
			known = false
			continue
		}
		total = total.Add(tax)
	}
	return total, known
}

// TaxKnown reports whether the tax for every component is known.
func (sc *ShippingCharge) TaxKnown() bool {
	for _, c := range sc.components {
		if !c.Price.TaxKnown() {
			return false
		}
	}
	return len(sc.components) > 0
}

// InclTax returns the tax-inclusive total across all components.
func (sc *ShippingCharge) InclTax() decimal.Decimal {
	total := decimal.Zero
	for _, c := range sc.components {
		total = total.Add(c.Price.InclTax())
	}
	return total
}
