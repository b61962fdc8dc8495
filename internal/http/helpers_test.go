package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/holiday-rush/internal/cart"
	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/checkout"
	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/idempotency"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/fjod/holiday-rush/internal/payment"
	"github.com/fjod/holiday-rush/internal/session"
	"github.com/fjod/holiday-rush/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	sessions *session.Manager
	orders   *orders.MemoryRepository
	registry *prometheus.Registry
}

// newTestServer wires the whole API over in-memory backends.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cat := catalog.New(catalog.NewMemoryRepository(catalog.DefaultProducts()))
	cartRepo := cart.NewMemoryRepository(0, 0)
	flows := checkout.NewSessionStore(0)
	idem := idempotency.NewMemoryStore(0)
	t.Cleanup(func() {
		_ = cartRepo.Close()
		_ = flows.Close()
		_ = idem.Close()
	})

	carts := cart.NewService(cartRepo, nil, cat, logger.Discard())
	engine := coupon.NewEngine(coupon.DefaultCoupons())
	orderRepo := orders.NewMemoryRepository()
	reg := prometheus.NewRegistry()

	svc := checkout.NewService(checkout.Deps{
		Carts:       carts,
		Products:    cat,
		Coupons:     engine,
		Gateway:     payment.NewSimulatedGateway(payment.SimulatedConfig{}, nil),
		Orders:      orderRepo,
		Idempotency: idem,
		Flows:       flows,
		Metrics:     checkout.NewMetrics(reg),
		Logger:      logger.Discard(),
	}, checkout.Config{})

	mgr, err := session.NewManager("test-secret", "holiday-rush-test", time.Hour)
	require.NoError(t, err)

	h := NewRouter(Handlers{
		Products:   NewProductHandler(cat, time.Second),
		Storefront: NewStorefrontHandler(engine),
		Cart:       NewCartHandler(carts, time.Second),
		Checkout:   NewCheckoutHandler(svc),
		Orders:     NewOrdersHandler(orderRepo, time.Second),
	}, RouterOptions{
		Logger:         logger.Discard(),
		Metrics:        NewMetrics(reg),
		Gatherer:       reg,
		Session:        session.Middleware(mgr, logger.Discard(), session.MiddlewareOptions{}),
		RequestTimeout: time.Second,
	})

	return &testServer{handler: h, sessions: mgr, orders: orderRepo, registry: reg}
}

func (s *testServer) token(t *testing.T, sessionID string) string {
	t.Helper()
	tok, err := s.sessions.Issue(sessionID)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

var shippingBody = map[string]any{
	"first_name": "Holly",
	"last_name":  "Berry",
	"email":      "holly@example.com",
	"address":    "1 Mistletoe Lane",
	"city":       "Northpole",
	"state":      "AK",
	"zip_code":   "99705",
}

func paymentBody(card string) map[string]any {
	return map[string]any{
		"card_number":      card,
		"expiry_month":     "12",
		"expiry_year":      "2030",
		"cvv":              "123",
		"name_on_card":     "Holly Berry",
		"same_as_shipping": true,
	}
}
