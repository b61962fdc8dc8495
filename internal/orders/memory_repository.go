package orders

import (
	"context"
	"slices"
	"sync"

	"github.com/fjod/holiday-rush/internal/domain"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	outbox []*OutboxEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev, err := newOrderPlacedEvent(order)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return ErrDuplicateOrder
	}
	r.orders[order.ID] = cloneOrder(order)
	r.outbox = append(r.outbox, ev)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// ListBySession returns the session's orders, newest first.
func (r *MemoryRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.orders {
		if o.SessionID == sessionID {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) PendingEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*OutboxEvent
	for _, ev := range r.outbox {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *ev
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) MarkPublished(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// published events have nowhere left to go, so they are dropped
	i := slices.IndexFunc(r.outbox, func(ev *OutboxEvent) bool { return ev.ID == eventID })
	if i < 0 {
		return ErrEventNotFound
	}
	r.outbox = slices.Delete(r.outbox, i, i+1)
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if o.AppliedCoupon != nil {
		c := *o.AppliedCoupon
		cp.AppliedCoupon = &c
	}
	return &cp
}
