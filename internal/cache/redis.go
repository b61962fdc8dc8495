package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 15 * time.Minute
	maxJitter  = 5 * time.Minute
	keyPrefix  = "holiday:cart:"
)

// RedisCache keeps a JSON snapshot of each session cart. The repository stays
// the source of truth; every mutation deletes the snapshot.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", sessionID, err)
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// a snapshot we cannot read is as good as none once it is gone
		if derr := r.client.Del(ctx, cacheKey(sessionID)).Err(); derr != nil {
			return nil, fmt.Errorf("cache drop corrupt %s: %w", sessionID, derr)
		}
		return nil, ErrCacheMiss
	}
	return &c, nil
}

// Set stores the cart for the base TTL plus a random jitter below maxJitter.
func (r *RedisCache) Set(ctx context.Context, sessionID string, c *domain.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	ttl := r.baseTTL + rand.N(maxJitter)
	if err := r.client.Set(ctx, cacheKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", sessionID, err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return keyPrefix + sessionID
}
