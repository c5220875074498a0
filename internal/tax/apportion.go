package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/price"
	"github.com/noah-isme/backend-tax/internal/rating"
)

// applyTaxesToPrice spreads a line's aggregate tax details evenly over its
// quantity and records the per-unit amounts on the price. A nil or empty
// detail group (or a non-positive quantity) marks the price as known zero
// tax. After apportionment the per-unit total multiplied back by quantity
// must reconcile with the service's reported line total at the configured
// precision; any drift is a hard error, never silently absorbed.
func (c *Calculator) applyTaxesToPrice(taxes *rating.LineItemTax, p *price.TaxablePrice, quantity int) error {
	p.ClearTaxes()

	if taxes == nil || len(taxes.TaxDetails) == 0 || quantity <= 0 {
		p.ZeroTax()
		return nil
	}

	qty := decimal.NewFromInt(int64(quantity))
	for _, d := range taxes.TaxDetails {
		p.AddTax(price.TaxationDetail{
			AuthorityName: d.AuthorityName,
			TaxName:       d.TaxName,
			TaxApplied:    d.TaxApplied.Div(qty),
			FeeApplied:    d.FeeApplied.Div(qty),
		})
	}

	unitTax, _ := p.Tax()
	computed := unitTax.Mul(qty).Round(c.precision())
	reported := taxes.TotalTaxApplied.Round(c.precision())
	if !computed.Equal(reported) {
		miscalculations.Inc()
		return &MiscalculationError{
			LineID:   taxes.ID,
			Computed: computed,
			Reported: reported,
		}
	}
	return nil
}
