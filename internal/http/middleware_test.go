package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/holiday-rush/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/products/1", "", nil)
	s.do(t, http.MethodGet, "/api/v1/products/2", "", nil)
	s.do(t, http.MethodGet, "/api/v1/products/nope", "", nil)

	m, err := s.registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range m {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				assert.NotEqual(t, "/api/v1/products/1", l.GetValue())
				if l.GetName() == "path" && l.GetValue() == "/api/v1/products/{id}" {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "route pattern label not recorded")
}

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/items/{id}", "418")))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf, logger.Options{Service: "storefront"})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(base))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		logger.FromCtx(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"inside handler"`)
	assert.Contains(t, lines[0], `"request_id"`)
	assert.Contains(t, lines[1], `"msg":"request served"`)
	assert.Contains(t, lines[1], `"status":204`)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	s.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
