package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductCatalog interface {
	Query(ctx context.Context, f catalog.Filter) (*catalog.Page, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FilterFeatured(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(c ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: c, timeout: timeout}
}

// GET /api/v1/products?category=&featured=&search=&limit=&offset=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	f := catalog.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	var err error
	if v := q.Get("featured"); v != "" {
		if f.Featured, err = strconv.ParseBool(v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_query", "featured must be true or false")
			return
		}
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_query", "limit must be a non-negative integer")
		return
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_query", "offset must be a non-negative integer")
		return
	}

	page, err := h.catalog.Query(ctx, f)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GET /api/v1/products/featured
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.FilterFeatured(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"products": products})
}

// GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cats, err := h.catalog.Categories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"categories": cats})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
