package cache

import (
	"context"
	"errors"

	"github.com/fjod/holiday-rush/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop is used when no Redis address is configured. Every read misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.Cart, error) {
	return nil, ErrCacheMiss
}

func (Nop) Set(context.Context, string, *domain.Cart) error {
	return nil
}

func (Nop) Delete(context.Context, string) error {
	return nil
}
