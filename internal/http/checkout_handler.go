package http

import (
	"context"
	"net/http"

	"github.com/fjod/holiday-rush/internal/checkout"
	"github.com/fjod/holiday-rush/internal/domain"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutService interface {
	Get(ctx context.Context, sessionID string) *checkout.View
	SubmitShipping(ctx context.Context, sessionID string, info domain.ShippingInfo) (*checkout.View, error)
	SubmitPayment(ctx context.Context, sessionID string, info domain.PaymentInfo) (*checkout.View, error)
	Back(ctx context.Context, sessionID string) (*checkout.View, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*checkout.View, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*checkout.View, error)
	SelectCarrier(ctx context.Context, sessionID, carrier string) (*checkout.View, error)
	Quote(ctx context.Context, sessionID string) (domain.Pricing, error)
	Submit(ctx context.Context, sessionID, idempotencyKey string) (*domain.Order, error)
	Reset(ctx context.Context, sessionID string) (*checkout.View, error)
	Checkout(ctx context.Context, req checkout.Request) (*domain.Order, error)
}

// CheckoutHandler has no request timeout of its own: submits are bounded by
// the checkout service's submit deadline.
type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, h.svc.Get(r.Context(), sid))
}

// PUT /api/v1/checkout/shipping
func (h *CheckoutHandler) Shipping(w http.ResponseWriter, r *http.Request) {
	var info domain.ShippingInfo
	h.step(w, r, &info, func(ctx context.Context, sid string) (*checkout.View, error) {
		return h.svc.SubmitShipping(ctx, sid, info)
	})
}

// PUT /api/v1/checkout/payment
func (h *CheckoutHandler) Payment(w http.ResponseWriter, r *http.Request) {
	var info domain.PaymentInfo
	h.step(w, r, &info, func(ctx context.Context, sid string) (*checkout.View, error) {
		return h.svc.SubmitPayment(ctx, sid, info)
	})
}

// POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, nil, h.svc.Back)
}

type couponRequest struct {
	Code string `json:"code"`
}

// PUT /api/v1/checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	h.step(w, r, &req, func(ctx context.Context, sid string) (*checkout.View, error) {
		return h.svc.ApplyCoupon(ctx, sid, req.Code)
	})
}

// DELETE /api/v1/checkout/coupon
func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, nil, h.svc.RemoveCoupon)
}

type carrierRequest struct {
	Carrier string `json:"carrier"`
}

// PUT /api/v1/checkout/carrier
func (h *CheckoutHandler) SelectCarrier(w http.ResponseWriter, r *http.Request) {
	var req carrierRequest
	h.step(w, r, &req, func(ctx context.Context, sid string) (*checkout.View, error) {
		return h.svc.SelectCarrier(ctx, sid, req.Carrier)
	})
}

// POST /api/v1/checkout/reset
func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, nil, h.svc.Reset)
}

// GET /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Quote(r.Context(), sid)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p.Rounded())
}

// POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Submit(r.Context(), sid, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, present(o))
}

type oneShotRequest struct {
	Items        []checkout.ItemRequest `json:"items"`
	ShippingInfo domain.ShippingInfo    `json:"shipping_info"`
	PaymentInfo  domain.PaymentInfo     `json:"payment_info"`
	CouponCode   string                 `json:"coupon_code"`
	Carrier      string                 `json:"carrier"`
}

type oneShotResponse struct {
	Success bool                `json:"success"`
	Order   domain.OrderSummary `json:"order"`
	Message string              `json:"message"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) OneShot(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req oneShotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	o, err := h.svc.Checkout(r.Context(), checkout.Request{
		SessionID:      sid,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
		Items:          req.Items,
		Shipping:       req.ShippingInfo,
		Payment:        req.PaymentInfo,
		CouponCode:     req.CouponCode,
		Carrier:        req.Carrier,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, oneShotResponse{
		Success: true,
		Order:   o.Summary(),
		Message: "Order placed successfully",
	})
}

// step decodes body (when non-nil) and applies fn to the caller's flow.
func (h *CheckoutHandler) step(w http.ResponseWriter, r *http.Request, body any, fn func(context.Context, string) (*checkout.View, error)) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	if body != nil {
		if err := decodeJSON(w, r, body); err != nil {
			handleError(w, r, err)
			return
		}
	}
	v, err := fn(r.Context(), sid)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, v)
}
