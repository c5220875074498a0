package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/price"
	"github.com/noah-isme/backend-tax/internal/tax"
)

// AddressDTO is the wire shape of a postal address.
type AddressDTO struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
	Country  string `json:"country" validate:"required,len=2"`
}

// LineDTO is one basket line in a quote request. UnitPrice is the per-unit
// amount excluding tax, after discounts.
type LineDTO struct {
	ID             string          `json:"id" validate:"required"`
	Quantity       int             `json:"quantity" validate:"gte=0"`
	RatingQuantity *int            `json:"ratingQuantity,omitempty"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	SKU            string          `json:"sku"`
	ProductGroup   string          `json:"productGroup"`
	ProductItem    string          `json:"productItem"`
	ExemptionCode  *string         `json:"exemptionCode,omitempty"`
	Origin         *AddressDTO     `json:"origin,omitempty"`
}

// ShippingDTO is one shipping charge component in a quote request. An empty
// SKU takes the configured default shipping code.
type ShippingDTO struct {
	SKU    string          `json:"sku"`
	Amount decimal.Decimal `json:"amount"`
}

// QuoteRequest asks for taxes on a basket bound for a destination. BasketID
// and Version identify a basket revision for estimate caching; when BasketID
// is empty every request hits the rating service.
type QuoteRequest struct {
	BasketID        string        `json:"basketId"`
	Version         int64         `json:"version"`
	Currency        string        `json:"currency" validate:"required,len=3"`
	Strict          bool          `json:"strict"`
	ShippingAddress AddressDTO    `json:"shippingAddress" validate:"required"`
	Lines           []LineDTO     `json:"lines" validate:"required,min=1,dive"`
	Shipping        []ShippingDTO `json:"shipping" validate:"dive"`
}

// TaxDetailDTO is one authority's per-unit contribution in a quote response.
type TaxDetailDTO struct {
	AuthorityName string          `json:"authorityName"`
	TaxName       string          `json:"taxName"`
	TaxApplied    decimal.Decimal `json:"taxApplied"`
	FeeApplied    decimal.Decimal `json:"feeApplied"`
}

// LineQuoteDTO is the per-line result of a quote.
type LineQuoteDTO struct {
	ID       string          `json:"id"`
	ExclTax  decimal.Decimal `json:"exclTax"`
	Tax      decimal.Decimal `json:"tax"`
	InclTax  decimal.Decimal `json:"inclTax"`
	TaxKnown bool            `json:"taxKnown"`
	Details  []TaxDetailDTO  `json:"details,omitempty"`
}

// QuoteResponse is the result of a quote request. TaxKnown is false when the
// rating service could not be reached and the quote degraded to zero tax.
type QuoteResponse struct {
	QuoteID       string          `json:"quoteId"`
	TaxKnown      bool            `json:"taxKnown"`
	TransactionID int64           `json:"transactionId,omitempty"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	Lines         []LineQuoteDTO  `json:"lines"`
	Shipping      []LineQuoteDTO  `json:"shipping,omitempty"`
}

func (a *AddressDTO) toAddress() *tax.Address {
	return &tax.Address{
		Line1:    a.Line1,
		Line2:    a.Line2,
		City:     a.City,
		State:    a.State,
		Postcode: a.Postcode,
		Country:  a.Country,
	}
}

// toApplyInput converts the request into engine input, constructing fresh
// taxable prices for every line and shipping component. Shipping components
// without a SKU fall back to shippingSKU.
func (q *QuoteRequest) toApplyInput(shippingSKU string) (tax.ApplyInput, error) {
	in := tax.ApplyInput{
		Destination: q.ShippingAddress.toAddress(),
		Strict:      q.Strict,
	}
	for i := range q.Lines {
		l := &q.Lines[i]
		line := &tax.Line{
			ID:             l.ID,
			Quantity:       l.Quantity,
			RatingQuantity: l.RatingQuantity,
			ExtendedPrice:  l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
			SKU:            l.SKU,
			ProductGroup:   l.ProductGroup,
			ProductItem:    l.ProductItem,
			ExemptionCode:  l.ExemptionCode,
			Price:          price.New(q.Currency, l.UnitPrice),
		}
		if l.Origin != nil {
			line.Origin = l.Origin.toAddress()
		}
		in.Lines = append(in.Lines, line)
	}
	if len(q.Shipping) > 0 {
		charge := price.NewShippingCharge(q.Currency)
		for _, s := range q.Shipping {
			sku := s.SKU
			if sku == "" {
				sku = shippingSKU
			}
			if _, err := charge.AddComponent(sku, s.Amount); err != nil {
				return tax.ApplyInput{}, fmt.Errorf("shipping component %s: %w", sku, err)
			}
		}
		in.ShippingCharge = charge
	}
	return in, nil
}

func lineQuote(id string, p *price.TaxablePrice) LineQuoteDTO {
	taxAmount, known := p.Tax()
	out := LineQuoteDTO{
		ID:       id,
		ExclTax:  p.ExclTax,
		Tax:      taxAmount,
		InclTax:  p.InclTax(),
		TaxKnown: known,
	}
	for _, d := range p.Details() {
		out.Details = append(out.Details, TaxDetailDTO{
			AuthorityName: d.AuthorityName,
			TaxName:       d.TaxName,
			TaxApplied:    d.TaxApplied,
			FeeApplied:    d.FeeApplied,
		})
	}
	return out
}
