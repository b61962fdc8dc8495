package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/holiday-rush/pkg/circuitbreaker"
)

// BreakerGateway stops calling a failing gateway for a while. Declines are
// answers, so they count as healthy calls.
type BreakerGateway struct {
	next Gateway
	cb   *circuitbreaker.Breaker[*Receipt]
}

func NewBreakerGateway(next Gateway, cfg circuitbreaker.Config, logger *slog.Logger) *BreakerGateway {
	return &BreakerGateway{
		next: next,
		cb:   circuitbreaker.New[*Receipt](cfg, logger, countsAsSuccess),
	}
}

func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, context.Canceled)
}

func (b *BreakerGateway) Authorize(ctx context.Context, auth Authorization) (*Receipt, error) {
	r, err := b.cb.Execute(func() (*Receipt, error) {
		return b.next.Authorize(ctx, auth)
	})
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ErrDeclined), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func (b *BreakerGateway) State() string {
	return b.cb.State()
}
