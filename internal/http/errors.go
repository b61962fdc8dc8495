package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/holiday-rush/internal/cart"
	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/checkout"
	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/fjod/holiday-rush/internal/payment"
	"github.com/fjod/holiday-rush/internal/pricing"
	"github.com/fjod/holiday-rush/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// handleError maps domain errors to HTTP responses. Anything unknown is
// logged and answered with a bare 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve    *checkout.ValidationError
		stock *cart.QuantityExceedsStockError
		se    *checkout.SubmitError
	)

	switch {
	case errors.Is(err, errInvalidBody):
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &ve):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Details: ve.Fields,
		})
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, r, http.StatusNotFound, "product_not_found", "Product not found")
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, r, http.StatusNotFound, "item_not_found", "Item not found in cart")
	case errors.Is(err, cart.ErrQuantityNotPositive):
		respondError(w, r, http.StatusBadRequest, "quantity_not_positive", "Quantity must be positive")
	case errors.As(err, &stock):
		respondError(w, r, http.StatusBadRequest, "quantity_exceeds_stock", fmt.Sprintf("Only %d items available", stock.Available))
	case errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, r, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, pricing.ErrUnknownCarrier):
		respondError(w, r, http.StatusBadRequest, "unknown_carrier", err.Error())
	case errors.As(err, &se):
		handleSubmitError(w, r, se)
	case errors.Is(err, coupon.ErrInvalidCoupon):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid or expired coupon code",
			Code:    "invalid_coupon",
			Details: couponReason(err),
		})
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, r, http.StatusConflict, "submission_in_progress", "Checkout is already being submitted")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, r, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "Request timed out")
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func handleSubmitError(w http.ResponseWriter, r *http.Request, se *checkout.SubmitError) {
	switch se.Reason {
	case checkout.ReasonPaymentDeclined:
		var decline *payment.DeclineError
		msg := "Payment declined"
		if errors.As(se, &decline) {
			msg = decline.Reason
		}
		respondJSON(w, r, http.StatusPaymentRequired, ErrorResponse{
			Error:   "Payment failed",
			Code:    "payment_failed",
			Details: msg,
		})
	case checkout.ReasonPaymentUnavailable:
		respondError(w, r, http.StatusServiceUnavailable, "payment_unavailable", "Payment service unavailable, please retry")
	case checkout.ReasonTimeout:
		respondError(w, r, http.StatusGatewayTimeout, "checkout_timeout", "Checkout timed out")
	case checkout.ReasonInvalidCoupon:
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid or expired coupon code",
			Code:    "invalid_coupon",
			Details: couponReason(se),
		})
	case checkout.ReasonEmptyCart:
		respondError(w, r, http.StatusBadRequest, "empty_cart", "Cart is empty")
	default:
		logger.FromCtx(r.Context()).Error("checkout failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", se,
		)
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func couponReason(err error) string {
	switch {
	case errors.Is(err, coupon.ErrBelowMinimumOrder):
		return "order total below coupon minimum"
	case errors.Is(err, coupon.ErrCouponInvalid):
		return "coupon is no longer valid"
	default:
		return "unknown coupon code"
	}
}
