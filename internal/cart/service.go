package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/holiday-rush/internal/cache"
	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

// View is a cart hydrated against the catalog.
type View struct {
	SessionID string            `json:"-"`
	Items     []domain.CartLine `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func (v *View) LineItems() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(v.Items))
	for _, l := range v.Items {
		out = append(out, l.LineItem())
	}
	return out
}

type Service struct {
	repo     Repository
	cache    cache.CartCache
	products ProductLookup
	logger   *slog.Logger
	sfg      singleflight.Group

	mu        sync.RWMutex
	observers map[int]Observer
	nextID    int
}

func NewService(repo Repository, c cache.CartCache, products ProductLookup, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		repo:      repo,
		cache:     c,
		products:  products,
		logger:    logger,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers o for change notifications until the returned func is
// called.
func (s *Service) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, c)
}

func (s *Service) Add(ctx context.Context, sessionID, productID string, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, ErrQuantityNotPositive
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock {
		return nil, &QuantityExceedsStockError{ProductID: p.ID, Available: p.Stock}
	}

	ledger, err := s.ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	qty := ledger.Add(*p, quantity)

	err = s.repo.SetItem(ctx, sessionID, domain.CartItem{ProductID: p.ID, Quantity: qty})
	if err != nil {
		s.logger.ErrorContext(ctx, "repo set item failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return s.committed(ctx, sessionID, ChangeAdded, p.ID, ledger), nil
}

func (s *Service) Update(ctx context.Context, sessionID, productID string, quantity int) (*View, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ledger.Quantity(p.ID) == 0 {
		return nil, ErrItemNotFound
	}
	if quantity > p.Stock {
		return nil, &QuantityExceedsStockError{ProductID: p.ID, Available: p.Stock}
	}

	if qty := ledger.Update(*p, quantity); qty == 0 {
		err = s.repo.RemoveItem(ctx, sessionID, p.ID)
	} else {
		err = s.repo.SetItem(ctx, sessionID, domain.CartItem{ProductID: p.ID, Quantity: qty})
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "repo update item failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return s.committed(ctx, sessionID, ChangeUpdated, p.ID, ledger), nil
}

// Remove drops a line. Removing a product that is not in the cart is not an
// error.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (*View, error) {
	ledger, err := s.ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ledger.Remove(productID)

	if err := s.repo.RemoveItem(ctx, sessionID, productID); err != nil {
		s.logger.ErrorContext(ctx, "repo remove item failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return s.committed(ctx, sessionID, ChangeRemoved, productID, ledger), nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteCart(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "repo delete cart failed", "session_id", sessionID, "error", err)
		return err
	}
	s.invalidateCache(sessionID)
	s.notify(ctx, ChangeEvent{SessionID: sessionID, Kind: ChangeCleared})
	return nil
}

// load reads the persisted cart through the cache. Concurrent misses for the
// same session share one repository read.
func (s *Service) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "cache get failed", "session_id", sessionID, "error", err)
		}

		c, err = s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{SessionID: sessionID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}

		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, sessionID, c); err != nil {
			s.logger.WarnContext(ctx, "cache set failed", "session_id", sessionID, "error", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// ledger builds a write-side ledger straight from the repository so a stale
// cache entry cannot feed a mutation.
func (s *Service) ledger(ctx context.Context, sessionID string) (*Ledger, error) {
	c, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		return NewLedger(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	v, err := s.hydrate(ctx, c)
	if err != nil {
		return nil, err
	}
	return NewLedger(v.Items), nil
}

// hydrate joins cart items with current products. Items whose product has
// left the catalog are dropped from the view.
func (s *Service) hydrate(ctx context.Context, c *domain.Cart) (*View, error) {
	lines := make([]domain.CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		p, err := s.products.FindByID(ctx, it.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			s.logger.WarnContext(ctx, "cart references unknown product", "session_id", c.SessionID, "product_id", it.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.CartLine{Product: *p, Quantity: it.Quantity})
	}
	return newView(c.SessionID, NewLedger(lines)), nil
}

func (s *Service) committed(ctx context.Context, sessionID string, kind ChangeKind, productID string, l *Ledger) *View {
	s.invalidateCache(sessionID)
	v := newView(sessionID, l)
	s.notify(ctx, ChangeEvent{SessionID: sessionID, Kind: kind, ProductID: productID, ItemCount: v.ItemCount})
	return v
}

func (s *Service) notify(ctx context.Context, ev ChangeEvent) {
	s.mu.RLock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.RUnlock()

	for _, o := range observers {
		o.CartChanged(ctx, ev)
	}
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("cache invalidate failed", "session_id", sessionID, "error", err)
	}
}

func newView(sessionID string, l *Ledger) *View {
	return &View{
		SessionID: sessionID,
		Items:     l.Lines(),
		ItemCount: l.ItemCount(),
		Subtotal:  l.Subtotal(),
	}
}
