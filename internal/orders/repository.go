package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this id already exists")
	ErrEventNotFound  = errors.New("outbox event not found")
)

const EventOrderPlaced = "OrderPlaced"

// Repository stores orders. Create writes the order and its OrderPlaced
// outbox event in one step; either both exist afterwards or neither does.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
	PendingEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, eventID string) error
}

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type orderPlacedPayload struct {
	OrderID           string             `json:"order_id"`
	SessionID         string             `json:"session_id"`
	Status            domain.OrderStatus `json:"status"`
	Items             []domain.LineItem  `json:"items"`
	Pricing           domain.Pricing     `json:"pricing"`
	CouponCode        string             `json:"coupon_code,omitempty"`
	TransactionID     string             `json:"transaction_id"`
	CreatedAt         time.Time          `json:"created_at"`
	EstimatedDelivery time.Time          `json:"estimated_delivery"`
}

func newOrderPlacedEvent(o *domain.Order) (*OutboxEvent, error) {
	p := orderPlacedPayload{
		OrderID:           o.ID,
		SessionID:         o.SessionID,
		Status:            o.Status,
		Items:             o.Items,
		Pricing:           o.Pricing,
		TransactionID:     o.TransactionID,
		CreatedAt:         o.CreatedAt,
		EstimatedDelivery: o.EstimatedDelivery,
	}
	if o.AppliedCoupon != nil {
		p.CouponCode = o.AppliedCoupon.Code
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal order placed payload: %w", err)
	}
	return &OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: o.ID,
		EventType:   EventOrderPlaced,
		Payload:     payload,
		CreatedAt:   o.CreatedAt,
	}, nil
}
