package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	hasValue  bool
	expiresAt time.Time
}

// MemoryStore is a single-process Store. Expired keys are dropped lazily and
// by a background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries:     make(map[string]*entry),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *MemoryStore) get(k string) *entry {
	e, ok := s.entries[k]
	if !ok {
		return nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, k)
		return nil
	}
	return e
}

func (s *MemoryStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockKey(scope, key)
	if s.get(k) != nil {
		return false, nil
	}
	s.entries[k] = &entry{expiresAt: s.now().Add(s.ttl)}
	return true, nil
}

func (s *MemoryStore) Unlock(ctx context.Context, scope, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, lockKey(scope, key))
	return nil
}

func (s *MemoryStore) Remember(ctx context.Context, scope, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[valueKey(scope, key)] = &entry{value: value, hasValue: true, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(valueKey(scope, key))
	if e == nil || !e.hasValue {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		s.wg.Wait()
	})
	return nil
}

var _ Store = (*MemoryStore)(nil)
