package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
)

const (
	DefaultIdleTTL         = 24 * time.Hour
	DefaultCleanupInterval = time.Minute
)

// MemoryRepository keeps carts in process. Carts untouched for longer than
// the idle TTL are dropped by a background loop.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
	ttl   time.Duration
	now   func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func NewMemoryRepository(ttl, cleanupInterval time.Duration) *MemoryRepository {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	r := &MemoryRepository{
		carts:       make(map[string]*domain.Cart),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop(cleanupInterval)

	return r
}

func (r *MemoryRepository) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *MemoryRepository) expireIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	n := 0
	for id, c := range r.carts {
		if c.UpdatedAt.Before(cutoff) {
			delete(r.carts, id)
			n++
		}
	}
	return n
}

func (r *MemoryRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (r *MemoryRepository) SetItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	item.AddedAt = now

	c, ok := r.carts[sessionID]
	if !ok {
		r.carts[sessionID] = &domain.Cart{
			SessionID: sessionID,
			Items:     []domain.CartItem{item},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}

	c.UpdatedAt = now
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity = item.Quantity
			c.Items[i].AddedAt = now
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (r *MemoryRepository) RemoveItem(ctx context.Context, sessionID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[sessionID]
	if !ok {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = r.now()
			return nil
		}
	}
	return nil
}

func (r *MemoryRepository) DeleteCart(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}

// Close stops the background cleanup and waits for it to finish.
func (r *MemoryRepository) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopCleanup)
		r.wg.Wait()
	})
	return nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = make([]domain.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}
