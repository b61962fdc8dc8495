package publisher

import (
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

func testOrder() *domain.Order {
	now := time.Now()
	return &domain.Order{
		ID:        "HRD-1-abcdefghi",
		Status:    domain.OrderStatusConfirmed,
		SessionID: "sess",
		Items: []domain.LineItem{
			{ProductID: "1", Name: "Cozy Winter Sweater", UnitPrice: decimal.RequireFromString("89.99"), Quantity: 1},
		},
		Pricing:           domain.Pricing{Subtotal: decimal.RequireFromString("89.99"), Total: decimal.RequireFromString("97.19")},
		TransactionID:     "txn_1",
		CreatedAt:         now,
		EstimatedDelivery: now.Add(5 * 24 * time.Hour),
	}
}
