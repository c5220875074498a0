package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/rating"
)

// buildRequest shapes the rating request from caller input. Lines with a
// non-positive effective quantity contribute nothing; when no rateable line
// remains the result is nil and no remote call should be made. A missing
// destination is tolerated: the lines are rated without a ship-to address.
func (c *Calculator) buildRequest(in ApplyInput) *rating.Request {
	var dest *rating.Address
	if in.Destination != nil {
		dest = buildAddress(*in.Destination)
	}

	req := &rating.Request{
		EntityID:        c.opts.EntityID,
		DivisionID:      c.opts.DivisionID,
		InvoiceDate:     c.now().In(c.opts.TimeZone),
		SourceSystem:    c.opts.SourceSystem,
		TestTransaction: c.opts.TestTransactions,
		TransactionType: c.opts.TransactionType,
		CustomerType:    c.opts.CustomerType,
		ProviderType:    c.opts.ProviderType,
		Finalize:        c.opts.FinalizeTransaction,
	}

	for _, line := range in.Lines {
		qty := line.effectiveQuantity()
		if qty <= 0 {
			continue
		}
		item := rating.LineItem{
			ID: line.ID,
			// Rated per unit; the extended price is spread evenly over the
			// quantity sent to the service.
			AvgUnitPrice:  quantize5(line.ExtendedPrice.Div(decimal.NewFromInt(int64(qty)))),
			Quantity:      qty,
			ExemptionCode: line.ExemptionCode,
			SKU:           resolveCode(line.SKU, c.opts.ProductSKU),
			NexusInfo:     rating.NexusInfo{ShipToAddress: dest},
		}
		group := resolveCode(line.ProductGroup, c.opts.ProductGroup)
		prodItem := resolveCode(line.ProductItem, c.opts.ProductItem)
		if group != "" || prodItem != "" {
			item.ProductInfo = &rating.ProductInfo{
				ProductGroup: group,
				ProductItem:  prodItem,
			}
		}
		if line.Origin != nil {
			item.NexusInfo.ShipFromAddress = buildAddress(*line.Origin)
		}
		req.LineItems = append(req.LineItems, item)
	}

	if c.opts.ShippingTaxesEnabled && in.ShippingCharge != nil {
		for _, comp := range in.ShippingCharge.Components() {
			req.LineItems = append(req.LineItems, rating.LineItem{
				ID:           comp.LineID(),
				AvgUnitPrice: quantize5(comp.Price.ExclTax),
				Quantity:     1,
				SKU:          comp.SKU,
				NexusInfo:    rating.NexusInfo{ShipToAddress: dest},
			})
		}
	}

	if len(req.LineItems) == 0 {
		return nil
	}
	return req
}

// resolveCode prefers the line-level override over the configured default.
func resolveCode(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
