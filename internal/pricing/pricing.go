package pricing

import (
	"errors"
	"fmt"

	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	TaxRate               = decimal.RequireFromString("0.08")
	FlatShipping          = decimal.RequireFromString("9.99")
	FreeShippingThreshold = decimal.NewFromInt(50)
)

type Options struct {
	// Coupon is validated against the subtotal before it is applied.
	Coupon *domain.Coupon
	// Carrier overrides flat shipping when set.
	Carrier Carrier
}

// Calculate prices a snapshot of line items. Amounts are left unrounded.
func Calculate(items []domain.LineItem, opts Options) (domain.Pricing, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}

	tax := subtotal.Mul(TaxRate)

	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	if opts.Carrier != "" {
		rate, err := RateFor(opts.Carrier, len(items))
		if err != nil {
			return domain.Pricing{}, err
		}
		shipping = rate.Amount
	}

	discount := decimal.Zero
	if opts.Coupon != nil {
		if opts.Coupon.MinOrder != nil && subtotal.LessThan(*opts.Coupon.MinOrder) {
			return domain.Pricing{}, fmt.Errorf("coupon %s: %w", opts.Coupon.Code, coupon.ErrBelowMinimumOrder)
		}
		if !opts.Coupon.Valid {
			return domain.Pricing{}, fmt.Errorf("coupon %s: %w", opts.Coupon.Code, coupon.ErrCouponInvalid)
		}
		discount = coupon.CalculateDiscount(opts.Coupon, subtotal)
	}

	return domain.Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
		Carrier:  string(opts.Carrier),
	}, nil
}

var ErrUnknownCarrier = errors.New("unknown carrier")
