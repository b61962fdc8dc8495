package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStatus int

func (f fixedStatus) Roll() int { return int(f) }

func auth(card string) Authorization {
	return Authorization{OrderRef: "ref", Amount: decimal.RequireFromString("79.19"), CardNumber: card, NameOnCard: "Jane Doe"}
}

func TestSyntheticDecline(t *testing.T) {
	tests := []struct {
		card    string
		decline bool
	}{
		{"4111000123456789", true},
		{"4111100023456789", true},
		{"4111123456789012", true},
		{"4111111111111111", false},
		{"4242424242424242", false},
		{"4111001023456789", false},
		{"1234567890123456", false},
	}
	for _, tt := range tests {
		t.Run(tt.card, func(t *testing.T) {
			assert.Equal(t, tt.decline, syntheticDecline(tt.card))
		})
	}
}

func TestCalcStatus(t *testing.T) {
	ok, reason := calcStatus(0, 100)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, _ = calcStatus(99, 100)
	assert.True(t, ok)

	ok, reason = calcStatus(95, 95)
	assert.False(t, ok)
	assert.Equal(t, "Insufficient funds", reason)

	ok, reason = calcStatus(99, 95)
	assert.False(t, ok)
	assert.Equal(t, "Issuer unavailable", reason)
}

func TestSimulatedGateway_Authorizes(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{}, fixedStatus(50))

	r, err := g.Authorize(context.Background(), auth("4242 4242 4242 4242"))

	require.NoError(t, err)
	assert.Equal(t, "4242", r.Last4)
	assert.Regexp(t, `^txn_\d+_[0-9a-f]{9}$`, r.TransactionID)
}

func TestSimulatedGateway_SyntheticDecline(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{}, fixedStatus(0))

	r, err := g.Authorize(context.Background(), auth("4111 0001 2345 6789"))

	assert.Nil(t, r)
	var decline *DeclineError
	require.ErrorAs(t, err, &decline)
	assert.Equal(t, ReasonIssuerDeclined, decline.Reason)
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestSimulatedGateway_BadCardFormat(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{}, fixedStatus(0))

	_, err := g.Authorize(context.Background(), auth("4242"))

	var decline *DeclineError
	require.ErrorAs(t, err, &decline)
	assert.Equal(t, ReasonInvalidCardFormat, decline.Reason)
}

func TestSimulatedGateway_RandomFailureRate(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{FailureRate: 0.1}, fixedStatus(92))

	_, err := g.Authorize(context.Background(), auth("4242424242424242"))

	assert.ErrorIs(t, err, ErrDeclined)
}

func TestSimulatedGateway_HonoursContextDuringDelay(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{MinDelay: time.Second, MaxDelay: 2 * time.Second}, fixedStatus(0))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Authorize(ctx, auth("4242424242424242"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, errors.Is(err, ErrDeclined))
}

func TestSimulatedGateway_Delay(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{MinDelay: 20 * time.Millisecond, MaxDelay: 30 * time.Millisecond}, fixedStatus(0))

	start := time.Now()
	_, err := g.Authorize(context.Background(), auth("4242424242424242"))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
