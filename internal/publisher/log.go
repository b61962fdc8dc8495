package publisher

import (
	"context"
	"log/slog"

	"github.com/fjod/holiday-rush/internal/orders"
)

// LogPublisher writes events to the log. It is used when no broker is
// configured, so the outbox still drains.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev *orders.OutboxEvent) error {
	p.logger.InfoContext(ctx, "order event",
		"event_id", ev.ID,
		"event_type", ev.EventType,
		"order_id", ev.AggregateID,
		"payload", string(ev.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
