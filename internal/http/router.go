package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Products   *ProductHandler
	Storefront *StorefrontHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Orders     *OrdersHandler
}

type RouterOptions struct {
	Logger         *slog.Logger
	Metrics        *Metrics
	Gatherer       prometheus.Gatherer
	Session        func(http.Handler) http.Handler
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// checkout routes are bounded by the submit deadline instead
		r.Group(func(r chi.Router) {
			if opts.RequestTimeout > 0 {
				r.Use(middleware.Timeout(opts.RequestTimeout))
			}
			r.Get("/products", h.Products.List)
			r.Get("/products/featured", h.Products.Featured)
			r.Get("/products/{id}", h.Products.Get)
			r.Get("/categories", h.Products.Categories)

			r.Get("/coupons", h.Storefront.Coupons)
			r.Post("/coupons/validate", h.Storefront.ValidateCoupon)
			r.Post("/shipping/rates", h.Storefront.ShippingRates)
			r.Get("/promotions", h.Storefront.Promotions)
		})

		r.Group(func(r chi.Router) {
			if opts.Session != nil {
				r.Use(opts.Session)
			}

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.Checkout.Get)
				r.Post("/", h.Checkout.OneShot)
				r.Put("/shipping", h.Checkout.Shipping)
				r.Put("/payment", h.Checkout.Payment)
				r.Post("/back", h.Checkout.Back)
				r.Put("/coupon", h.Checkout.ApplyCoupon)
				r.Delete("/coupon", h.Checkout.RemoveCoupon)
				r.Put("/carrier", h.Checkout.SelectCarrier)
				r.Get("/quote", h.Checkout.Quote)
				r.Post("/submit", h.Checkout.Submit)
				r.Post("/reset", h.Checkout.Reset)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/{order_id}", h.Orders.Get)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
