package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefront_Coupons(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/coupons", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Coupons []struct {
			Code string `json:"code"`
		} `json:"coupons"`
	}](t, rec)
	assert.Len(t, resp.Coupons, 4)
}

func TestStorefront_ValidateCoupon(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "holiday20", "order_total": 89.99})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Valid    bool   `json:"valid"`
		Discount string `json:"discount"`
		Coupon   struct {
			Code string `json:"code"`
		} `json:"coupon"`
	}](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, "HOLIDAY20", resp.Coupon.Code)
	assert.Equal(t, "18", resp.Discount)

	rec = s.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "EXPIRED", "order_total": "500"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_coupon", errResp.Code)
	assert.Equal(t, "coupon is no longer valid", errResp.Details)

	rec = s.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "NOPE", "order_total": "500"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown coupon code", decode[ErrorResponse](t, rec).Details)
}

func TestStorefront_ShippingRates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/shipping/rates", "", map[string]any{"item_count": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Success bool `json:"success"`
		Rates   []struct {
			Carrier       string `json:"carrier"`
			Rate          string `json:"rate"`
			EstimatedDays int    `json:"estimated_days"`
			Service       string `json:"service"`
		} `json:"rates"`
		CalculatedAt string `json:"calculated_at"`
	}](t, rec)
	require.Len(t, resp.Rates, 3)
	assert.Equal(t, "standard", resp.Rates[0].Carrier)
	assert.Equal(t, "7.49", resp.Rates[0].Rate)
	assert.Equal(t, 1, resp.Rates[2].EstimatedDays)
	assert.Equal(t, "overnight_shipping", resp.Rates[2].Service)
	assert.NotEmpty(t, resp.CalculatedAt)

	rec = s.do(t, http.MethodPost, "/api/v1/shipping/rates", "", map[string]any{"item_count": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStorefront_Promotions(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/promotions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Holiday Rush is Here!")
}
