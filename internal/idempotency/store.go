package idempotency

import (
	"context"
	"time"
)

const DefaultTTL = 24 * time.Hour

// Store guards an operation so that one key runs it at most once.
// TryLock claims the key, Remember records the outcome for replays.
type Store interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
