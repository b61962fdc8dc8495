package domain

import "github.com/shopspring/decimal"

// Pricing holds unrounded amounts. Call Rounded only when presenting.
type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Carrier  string          `json:"carrier,omitempty"`
}

// Rounded returns a copy with every amount rounded to cents. The total is
// rounded from its exact value, not summed from rounded parts.
func (p Pricing) Rounded() Pricing {
	return Pricing{
		Subtotal: p.Subtotal.Round(2),
		Tax:      p.Tax.Round(2),
		Shipping: p.Shipping.Round(2),
		Discount: p.Discount.Round(2),
		Total:    p.Total.Round(2),
		Carrier:  p.Carrier,
	}
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
