package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/holiday-rush/internal/cart"
	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/fjod/holiday-rush/internal/idempotency"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/fjod/holiday-rush/internal/payment"
	"github.com/fjod/holiday-rush/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	goodCard     = "4111 1111 1111 1111"
	declinedCard = "4111 0001 2345 6789"
)

// mockGateway wraps a real gateway so tests can count calls, inject errors or
// hold a payment until released.
type mockGateway struct {
	mu      sync.Mutex
	next    payment.Gateway
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (m *mockGateway) Authorize(ctx context.Context, auth payment.Authorization) (*payment.Receipt, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	started, release := m.started, m.release
	m.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return m.next.Authorize(ctx, auth)
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fixture struct {
	svc     *Service
	carts   *cart.Service
	orders  *orders.MemoryRepository
	gateway *mockGateway
	idem    *idempotency.MemoryStore
	metrics *Metrics
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	cat := catalog.New(catalog.NewMemoryRepository(catalog.DefaultProducts()))
	cartRepo := cart.NewMemoryRepository(0, 0)
	idem := idempotency.NewMemoryStore(0)
	flows := NewSessionStore(0)
	t.Cleanup(func() {
		_ = cartRepo.Close()
		_ = idem.Close()
		_ = flows.Close()
	})

	f := &fixture{
		carts:   cart.NewService(cartRepo, nil, cat, logger.Discard()),
		orders:  orders.NewMemoryRepository(),
		gateway: &mockGateway{next: payment.NewSimulatedGateway(payment.SimulatedConfig{}, nil)},
		idem:    idem,
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	f.svc = NewService(Deps{
		Carts:       f.carts,
		Products:    cat,
		Coupons:     coupon.NewEngine(coupon.DefaultCoupons()),
		Gateway:     f.gateway,
		Orders:      f.orders,
		Idempotency: idem,
		Flows:       flows,
		Metrics:     f.metrics,
		Logger:      logger.Discard(),
	}, cfg)
	return f
}

func (f *fixture) addToCart(t *testing.T, sessionID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), sessionID, productID, qty)
	require.NoError(t, err)
}

// toReview walks the session's flow to Review with the given card.
func (f *fixture) toReview(t *testing.T, sessionID, card string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SubmitShipping(ctx, sessionID, validShipping())
	require.NoError(t, err)
	_, err = f.svc.SubmitPayment(ctx, sessionID, validPayment(card))
	require.NoError(t, err)
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		FirstName: "Holly",
		LastName:  "Berry",
		Email:     "holly@example.com",
		Address:   "1 Mistletoe Lane",
		City:      "Northpole",
		State:     "AK",
		ZipCode:   "99705",
	}
}

func validPayment(card string) domain.PaymentInfo {
	return domain.PaymentInfo{
		CardNumber:     card,
		ExpiryMonth:    "12",
		ExpiryYear:     "2030",
		CVV:            "123",
		NameOnCard:     "Holly Berry",
		SameAsShipping: true,
	}
}
