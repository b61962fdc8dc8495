package publisher

import (
	"context"

	"github.com/fjod/holiday-rush/internal/orders"
)

// Publisher hands an outbox event to a broker. A nil error means the broker
// has accepted the event.
type Publisher interface {
	Publish(ctx context.Context, ev *orders.OutboxEvent) error
	Close() error
}

type EventSource interface {
	PendingEvents(ctx context.Context, limit int) ([]*orders.OutboxEvent, error)
	MarkPublished(ctx context.Context, eventID string) error
}
