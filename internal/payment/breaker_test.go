package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/holiday-rush/pkg/circuitbreaker"
	"github.com/fjod/holiday-rush/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	m       sync.Mutex
	calls   int
	receipt *Receipt
	err     error
}

func (m *mockGateway) Authorize(context.Context, Authorization) (*Receipt, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

func testBreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("payment-test")
	cfg.MinRequests = 3
	cfg.FailureRatio = 0.5
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreakerGateway_PassesThrough(t *testing.T) {
	next := &mockGateway{receipt: &Receipt{TransactionID: "txn_1", Last4: "4242"}}
	g := NewBreakerGateway(next, testBreakerConfig(), logger.Discard())

	r, err := g.Authorize(context.Background(), auth("4242424242424242"))

	require.NoError(t, err)
	assert.Equal(t, "txn_1", r.TransactionID)
}

func TestBreakerGateway_DeclinesDoNotTrip(t *testing.T) {
	next := &mockGateway{err: &DeclineError{Reason: ReasonIssuerDeclined}}
	g := NewBreakerGateway(next, testBreakerConfig(), logger.Discard())

	for range 10 {
		_, err := g.Authorize(context.Background(), auth("4111000123456789"))
		assert.ErrorIs(t, err, ErrDeclined)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, 10, next.calls)
	assert.Equal(t, "closed", g.State())
}

func TestBreakerGateway_OpensOnGatewayErrors(t *testing.T) {
	next := &mockGateway{err: errors.New("connection reset")}
	g := NewBreakerGateway(next, testBreakerConfig(), logger.Discard())

	for range 3 {
		_, err := g.Authorize(context.Background(), auth("4242424242424242"))
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Authorize(context.Background(), auth("4242424242424242"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 3, next.calls)
}

func TestBreakerGateway_ContextErrorsPassThrough(t *testing.T) {
	next := &mockGateway{err: context.DeadlineExceeded}
	g := NewBreakerGateway(next, testBreakerConfig(), logger.Discard())

	_, err := g.Authorize(context.Background(), auth("4242424242424242"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
