package domain

import "github.com/shopspring/decimal"

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

type Coupon struct {
	Code        string           `json:"code"`
	Discount    decimal.Decimal  `json:"discount"`
	Type        CouponType       `json:"type"`
	MinOrder    *decimal.Decimal `json:"min_order,omitempty"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
	Valid       bool             `json:"valid"`
}
