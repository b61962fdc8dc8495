package orders

import (
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder(id, sessionID string, createdAt time.Time) *domain.Order {
	minOrder := d("50")
	maxDiscount := d("25")
	return &domain.Order{
		ID:        id,
		Status:    domain.OrderStatusConfirmed,
		SessionID: sessionID,
		Items: []domain.LineItem{
			{ProductID: "1", Name: "Cozy Winter Sweater", UnitPrice: d("89.99"), Quantity: 1},
		},
		ShippingInfo: domain.ShippingInfo{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Address:   "1 Snow Lane",
			City:      "Nome",
			State:     "AK",
			ZipCode:   "99762",
			Country:   "US",
		},
		PaymentInfo: domain.MaskedPayment{CardLast4: "4242", NameOnCard: "Jane Doe"},
		Pricing: domain.Pricing{
			Subtotal: d("89.99"),
			Tax:      d("7.1992"),
			Shipping: decimal.Zero,
			Discount: d("17.998"),
			Total:    d("79.1912"),
		},
		AppliedCoupon: &domain.Coupon{
			Code:        "HOLIDAY20",
			Discount:    d("20"),
			Type:        domain.CouponTypePercentage,
			MinOrder:    &minOrder,
			MaxDiscount: &maxDiscount,
			Valid:       true,
		},
		TransactionID:     "txn_1_abc",
		CreatedAt:         createdAt,
		EstimatedDelivery: createdAt.Add(5 * 24 * time.Hour),
	}
}
