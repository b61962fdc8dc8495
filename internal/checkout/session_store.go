package checkout

import (
	"sync"
	"time"
)

const (
	DefaultFlowTTL    = 2 * time.Hour
	flowSweepInterval = 5 * time.Minute
)

type flowEntry struct {
	mu      sync.Mutex
	flow    *Flow
	touched time.Time
	// placing is set while an order is being placed for the session, by a
	// stored-flow submit or by a one-shot checkout.
	placing bool
}

func (e *flowEntry) busy() bool {
	return e.placing || e.flow.State() == StateSubmitting
}

// claim marks the session as placing an order. It fails when another order
// is already in flight for the session.
func (e *flowEntry) claim() error {
	if e.busy() {
		return ErrSubmissionInProgress
	}
	e.placing = true
	return nil
}

// SessionStore keeps one Flow per session in memory and forgets flows that
// have been idle longer than the TTL. A session placing an order is never
// evicted.
type SessionStore struct {
	mu    sync.Mutex
	flows map[string]*flowEntry
	ttl   time.Duration
	now   func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	s := &SessionStore{
		flows: make(map[string]*flowEntry),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(min(ttl, flowSweepInterval))
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.evictIdle()
			}
		}
	}()
	return s
}

// acquire returns the session's entry, creating a fresh flow when there is
// none. The caller locks entry.mu before touching the flow.
func (s *SessionStore) acquire(sessionID string) *flowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.flows[sessionID]
	if !ok {
		e = &flowEntry{flow: NewFlow()}
		s.flows[sessionID] = e
	}
	e.touched = s.now()
	return e
}

// reset swaps in a new flow unless a submit is running.
func (s *SessionStore) reset(sessionID string) (*Flow, error) {
	e := s.acquire(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy() {
		return nil, ErrSubmissionInProgress
	}
	e.flow = NewFlow()
	return e.flow, nil
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

func (s *SessionStore) evictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, e := range s.flows {
		if !e.touched.Before(cutoff) {
			continue
		}
		// a held lock means someone is using the flow right now
		if !e.mu.TryLock() {
			continue
		}
		busy := e.busy()
		e.mu.Unlock()
		if busy {
			continue
		}
		delete(s.flows, id)
		evicted++
	}
	return evicted
}

func (s *SessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
