package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func newMemoryStore(t *testing.T) *MemoryStore {
	s := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	r, _ := newRedisStore(t)
	return map[string]Store{
		"redis":  r,
		"memory": newMemoryStore(t),
	}
}

func TestStore_TryLockOnce(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := s.TryLock(ctx, "checkout", "k1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.TryLock(ctx, "checkout", "k1")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.TryLock(ctx, "other", "k1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_UnlockAllowsRetry(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.TryLock(ctx, "checkout", "k1")
			require.NoError(t, err)

			require.NoError(t, s.Unlock(ctx, "checkout", "k1"))

			ok, err := s.TryLock(ctx, "checkout", "k1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_RememberRecall(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := s.Recall(ctx, "checkout", "k1")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Remember(ctx, "checkout", "k1", "HRD-1"))

			v, found, err := s.Recall(ctx, "checkout", "k1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "HRD-1", v)
		})
	}
}

func TestStore_ConcurrentTryLockSingleWinner(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wins atomic.Int32
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := s.TryLock(context.Background(), "checkout", "race")
					if err == nil && ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestRedisStore_KeysExpire(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	_, err := s.TryLock(ctx, "checkout", "k1")
	require.NoError(t, err)
	require.NoError(t, s.Remember(ctx, "checkout", "k1", "HRD-1"))

	assert.True(t, mr.Exists("idemp:checkout:k1"))
	assert.True(t, mr.Exists("idemp:map:checkout:k1"))

	mr.FastForward(2 * time.Hour)

	ok, err := s.TryLock(ctx, "checkout", "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	_, found, err := s.Recall(ctx, "checkout", "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_KeysExpire(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()
	now := time.Now()
	s.mu.Lock()
	s.now = func() time.Time { return now }
	s.mu.Unlock()

	_, err := s.TryLock(ctx, "checkout", "k1")
	require.NoError(t, err)
	require.NoError(t, s.Remember(ctx, "checkout", "k1", "HRD-1"))

	now = now.Add(2 * time.Hour)
	s.sweep()

	s.mu.Lock()
	assert.Empty(t, s.entries)
	s.mu.Unlock()
	ok, err := s.TryLock(ctx, "checkout", "k1")
	require.NoError(t, err)
	assert.True(t, ok)
}
