package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(o OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: o, timeout: timeout}
}

type orderResponse struct {
	*domain.Order
	Pricing domain.Pricing `json:"pricing"`
}

// present rounds amounts for display; the stored order keeps exact values.
func present(o *domain.Order) orderResponse {
	return orderResponse{Order: o, Pricing: o.Pricing.Rounded()}
}

// GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListBySession(ctx, sid)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, present(o))
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"orders": out})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.Get(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	// other sessions' orders look the same as missing ones
	if o.SessionID != sid {
		handleError(w, r, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, r, http.StatusOK, present(o))
}
