package publisher

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultPollInterval = time.Second
	DefaultBatchSize    = 100
)

// OutboxPoller drains pending outbox events into a Publisher. Events are
// marked published only after the publisher accepts them, so delivery is at
// least once.
type OutboxPoller struct {
	source    EventSource
	publisher Publisher
	logger    *slog.Logger
	tick      time.Duration
	batch     int
	timeout   time.Duration
}

func NewOutboxPoller(source EventSource, pub Publisher, logger *slog.Logger, tick time.Duration) *OutboxPoller {
	if tick <= 0 {
		tick = DefaultPollInterval
	}
	return &OutboxPoller{
		source:    source,
		publisher: pub,
		logger:    logger,
		tick:      tick,
		batch:     DefaultBatchSize,
		timeout:   5 * time.Second,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.processPending(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *OutboxPoller) processPending(ctx context.Context) int {
	events, err := p.source.PendingEvents(ctx, p.batch)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fetch outbox events", "error", err)
		return 0
	}

	published := 0
	for _, ev := range events {
		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.publisher.Publish(pubCtx, ev)
		cancel()
		if err != nil {
			p.logger.ErrorContext(ctx, "failed to publish event", "event_id", ev.ID, "order_id", ev.AggregateID, "error", err)
			continue
		}

		if err := p.source.MarkPublished(ctx, ev.ID); err != nil {
			p.logger.ErrorContext(ctx, "failed to mark event as published", "event_id", ev.ID, "error", err)
			continue
		}
		published++
	}
	return published
}
