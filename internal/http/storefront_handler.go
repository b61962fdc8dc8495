package http

import (
	"net/http"
	"time"

	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/fjod/holiday-rush/internal/pricing"
	"github.com/shopspring/decimal"
)

type CouponEngine interface {
	List() []domain.Coupon
	Validate(code string, orderTotal decimal.Decimal) (*domain.Coupon, error)
}

// StorefrontHandler serves the catalog-independent bits: coupons, shipping
// rates and the promotional banner.
type StorefrontHandler struct {
	coupons CouponEngine
	now     func() time.Time
}

func NewStorefrontHandler(coupons CouponEngine) *StorefrontHandler {
	return &StorefrontHandler{coupons: coupons, now: time.Now}
}

// GET /api/v1/coupons
func (h *StorefrontHandler) Coupons(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{"coupons": h.coupons.List()})
}

type validateCouponRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type validateCouponResponse struct {
	Valid    bool            `json:"valid"`
	Coupon   *domain.Coupon  `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

// POST /api/v1/coupons/validate
func (h *StorefrontHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	c, err := h.coupons.Validate(req.Code, req.OrderTotal)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, validateCouponResponse{
		Valid:    true,
		Coupon:   c,
		Discount: coupon.CalculateDiscount(c, req.OrderTotal).Round(2),
	})
}

type shippingRatesRequest struct {
	ItemCount int `json:"item_count"`
}

type shippingRatesResponse struct {
	Success      bool           `json:"success"`
	Rates        []pricing.Rate `json:"rates"`
	CalculatedAt time.Time      `json:"calculated_at"`
}

// POST /api/v1/shipping/rates
func (h *StorefrontHandler) ShippingRates(w http.ResponseWriter, r *http.Request) {
	var req shippingRatesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.ItemCount < 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_item_count", "item_count must not be negative")
		return
	}
	respondJSON(w, r, http.StatusOK, shippingRatesResponse{
		Success:      true,
		Rates:        pricing.Rates(req.ItemCount),
		CalculatedAt: h.now().UTC(),
	})
}

type Promotion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CTAText     string `json:"cta_text"`
	Discount    int    `json:"discount"`
	ValidUntil  string `json:"valid_until"`
}

var holidayPromotion = Promotion{
	Title:       "Holiday Rush is Here!",
	Description: "Discover magical gifts and festive essentials for everyone on your list. Fast shipping, amazing deals, and holiday joy delivered to your door.",
	CTAText:     "View Holiday Deals",
	Discount:    25,
	ValidUntil:  "2024-12-31",
}

// GET /api/v1/promotions
func (h *StorefrontHandler) Promotions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, holidayPromotion)
}
