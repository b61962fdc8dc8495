package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon = errors.New("invalid or expired coupon code")

	ErrCouponNotFound    = fmt.Errorf("%w: unknown code", ErrInvalidCoupon)
	ErrCouponInvalid     = fmt.Errorf("%w: code is no longer valid", ErrInvalidCoupon)
	ErrBelowMinimumOrder = fmt.Errorf("%w: order total below minimum", ErrInvalidCoupon)
)

var hundred = decimal.NewFromInt(100)

// Engine validates coupon codes and prices discounts. It never stacks coupons:
// callers hold at most one applied coupon and replace it on re-apply.
type Engine struct {
	coupons []domain.Coupon
	byCode  map[string]int
}

func NewEngine(coupons []domain.Coupon) *Engine {
	e := &Engine{
		coupons: coupons,
		byCode:  make(map[string]int, len(coupons)),
	}
	for i, c := range coupons {
		e.byCode[strings.ToLower(c.Code)] = i
	}
	return e
}

// Validate looks the code up case-insensitively and checks it against the
// order total.
func (e *Engine) Validate(code string, orderTotal decimal.Decimal) (*domain.Coupon, error) {
	i, ok := e.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrCouponNotFound
	}
	c := e.coupons[i]
	if !c.Valid {
		return nil, ErrCouponInvalid
	}
	if c.MinOrder != nil && orderTotal.LessThan(*c.MinOrder) {
		return nil, ErrBelowMinimumOrder
	}
	return &c, nil
}

// CalculateDiscount returns the amount to subtract. Fixed discounts never
// exceed the order total, percentage discounts never exceed MaxDiscount.
func CalculateDiscount(c *domain.Coupon, orderTotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	switch c.Type {
	case domain.CouponTypeFixed:
		return decimal.Min(c.Discount, orderTotal)
	default:
		d := orderTotal.Mul(c.Discount).Div(hundred)
		if c.MaxDiscount != nil {
			d = decimal.Min(d, *c.MaxDiscount)
		}
		return d
	}
}

// List returns the display catalog, including codes that are no longer valid.
func (e *Engine) List() []domain.Coupon {
	out := make([]domain.Coupon, len(e.coupons))
	copy(out, e.coupons)
	return out
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func DefaultCoupons() []domain.Coupon {
	return []domain.Coupon{
		{
			Code:        "HOLIDAY20",
			Discount:    decimal.NewFromInt(20),
			Type:        domain.CouponTypePercentage,
			MinOrder:    amount(50),
			MaxDiscount: amount(25),
			Valid:       true,
		},
		{
			Code:     "WINTER10",
			Discount: decimal.NewFromInt(10),
			Type:     domain.CouponTypeFixed,
			MinOrder: amount(30),
			Valid:    true,
		},
		{
			Code:        "FESTIVE25",
			Discount:    decimal.NewFromInt(25),
			Type:        domain.CouponTypePercentage,
			MinOrder:    amount(100),
			MaxDiscount: amount(50),
			Valid:       true,
		},
		{
			Code:     "EXPIRED",
			Discount: decimal.NewFromInt(50),
			Type:     domain.CouponTypePercentage,
			Valid:    false,
		},
	}
}
