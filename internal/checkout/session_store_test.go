package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_OneFlowPerSession(t *testing.T) {
	s := NewSessionStore(time.Hour)
	defer s.Close()

	a := s.acquire("a")
	assert.Same(t, a, s.acquire("a"))
	assert.NotSame(t, a, s.acquire("b"))
	assert.Equal(t, 2, s.Len())
}

func TestSessionStore_EvictsIdleFlows(t *testing.T) {
	s := NewSessionStore(time.Hour)
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	s.acquire("old")

	now = now.Add(30 * time.Minute)
	s.acquire("fresh")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.evictIdle())
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_KeepsSubmittingFlows(t *testing.T) {
	s := NewSessionStore(time.Minute)
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	e := s.acquire("busy")
	e.flow = reviewFlow(t)
	require.NoError(t, e.flow.BeginSubmit())

	now = now.Add(time.Hour)
	assert.Equal(t, 0, s.evictIdle())
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_ClaimIsExclusive(t *testing.T) {
	s := NewSessionStore(time.Minute)
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	e := s.acquire("sid")
	require.NoError(t, e.claim())
	require.ErrorIs(t, e.claim(), ErrSubmissionInProgress)

	_, err := s.reset("sid")
	require.ErrorIs(t, err, ErrSubmissionInProgress)
	now = now.Add(time.Hour)
	assert.Equal(t, 0, s.evictIdle())

	e.placing = false
	require.NoError(t, e.claim())
}

func TestSessionStore_Reset(t *testing.T) {
	s := NewSessionStore(time.Hour)
	defer s.Close()

	e := s.acquire("sid")
	e.flow = reviewFlow(t)

	f, err := s.reset("sid")
	require.NoError(t, err)
	assert.Equal(t, StateShippingEntry, f.State())

	e.flow = reviewFlow(t)
	require.NoError(t, e.flow.BeginSubmit())
	_, err = s.reset("sid")
	require.ErrorIs(t, err, ErrSubmissionInProgress)
}

func TestSessionStore_CloseIsIdempotent(t *testing.T) {
	s := NewSessionStore(time.Hour)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
