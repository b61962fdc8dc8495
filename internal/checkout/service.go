package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/fjod/holiday-rush/internal/cart"
	"github.com/fjod/holiday-rush/internal/coupon"
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/fjod/holiday-rush/internal/idempotency"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/fjod/holiday-rush/internal/payment"
	"github.com/fjod/holiday-rush/internal/pricing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSubmitTimeout = 10 * time.Second
	idempotencyScope     = "checkout"
	persistTimeout       = 5 * time.Second
)

type Carts interface {
	Get(ctx context.Context, sessionID string) (*cart.View, error)
	Clear(ctx context.Context, sessionID string) error
}

type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

type CouponValidator interface {
	Validate(code string, orderTotal decimal.Decimal) (*domain.Coupon, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type Config struct {
	SubmitTimeout      time.Duration
	ProcessingDelayMin time.Duration
	ProcessingDelayMax time.Duration
}

type Deps struct {
	Carts    Carts
	Products ProductLookup
	Coupons  CouponValidator
	Gateway  payment.Gateway
	Orders   OrderStore

	// Idempotency is optional. Without it submits are guarded by the flow
	// state alone.
	Idempotency idempotency.Store
	Flows       *SessionStore
	Metrics     *Metrics
	Logger      *slog.Logger
}

type Service struct {
	Deps
	cfg    Config
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.ProcessingDelayMax < cfg.ProcessingDelayMin {
		cfg.ProcessingDelayMax = cfg.ProcessingDelayMin
	}
	if deps.Flows == nil {
		deps.Flows = NewSessionStore(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		Deps:   deps,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/fjod/holiday-rush/internal/checkout"),
		now:    time.Now,
	}
}

// with runs fn on the session's flow while holding its lock and returns the
// resulting view.
func (s *Service) with(sessionID string, fn func(f *Flow) error) (*View, error) {
	e := s.Flows.acquire(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(e.flow)
	return e.flow.View(), err
}

func (s *Service) Get(_ context.Context, sessionID string) *View {
	v, _ := s.with(sessionID, func(*Flow) error { return nil })
	return v
}

func (s *Service) SubmitShipping(_ context.Context, sessionID string, info domain.ShippingInfo) (*View, error) {
	return s.with(sessionID, func(f *Flow) error {
		_, err := f.SubmitShipping(info)
		return err
	})
}

func (s *Service) SubmitPayment(_ context.Context, sessionID string, info domain.PaymentInfo) (*View, error) {
	return s.with(sessionID, func(f *Flow) error {
		_, err := f.SubmitPayment(info)
		return err
	})
}

func (s *Service) Back(_ context.Context, sessionID string) (*View, error) {
	return s.with(sessionID, func(f *Flow) error {
		_, err := f.Back()
		return err
	})
}

// ApplyCoupon checks code against the current cart subtotal and replaces
// whatever coupon the flow held.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error) {
	c, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cp, err := s.Coupons.Validate(code, c.Subtotal)
	if err != nil {
		return nil, err
	}
	return s.with(sessionID, func(f *Flow) error {
		return f.SetCoupon(cp)
	})
}

func (s *Service) RemoveCoupon(_ context.Context, sessionID string) (*View, error) {
	return s.with(sessionID, func(f *Flow) error {
		return f.SetCoupon(nil)
	})
}

// SelectCarrier sets the shipping carrier. An empty name goes back to the
// flat rate.
func (s *Service) SelectCarrier(_ context.Context, sessionID, carrier string) (*View, error) {
	var c pricing.Carrier
	if carrier != "" {
		var err error
		if c, err = pricing.ParseCarrier(carrier); err != nil {
			return nil, err
		}
	}
	return s.with(sessionID, func(f *Flow) error {
		return f.SetCarrier(c)
	})
}

func (s *Service) Quote(ctx context.Context, sessionID string) (domain.Pricing, error) {
	c, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return domain.Pricing{}, err
	}
	e := s.Flows.acquire(sessionID)
	e.mu.Lock()
	opts := pricing.Options{Coupon: e.flow.Coupon(), Carrier: e.flow.Carrier()}
	e.mu.Unlock()

	return pricing.Calculate(c.LineItems(), opts)
}

func (s *Service) Reset(_ context.Context, sessionID string) (*View, error) {
	f, err := s.Flows.reset(sessionID)
	if err != nil {
		return nil, err
	}
	return f.View(), nil
}

// Submit places the order for the session's flow. A repeated idempotency key
// returns the order placed by the first call.
func (s *Service) Submit(ctx context.Context, sessionID, idempotencyKey string) (*domain.Order, error) {
	return s.guarded(ctx, sessionID, idempotencyKey, func() (*domain.Order, error) {
		e := s.Flows.acquire(sessionID)
		e.mu.Lock()
		var sub submission
		err := e.claim()
		if err == nil {
			if err = e.flow.BeginSubmit(); err != nil {
				e.placing = false
			} else {
				sub = e.flow.snapshot()
			}
		}
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}

		sub.fromCart = true
		order, err := s.place(ctx, sessionID, sub, s.cartItems(sessionID))

		e.mu.Lock()
		defer e.mu.Unlock()
		e.placing = false
		return order, s.finish(e.flow, order, err)
	})
}

// ItemRequest names a product and quantity for a one-shot checkout.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Request struct {
	SessionID      string
	IdempotencyKey string

	// Items are priced from the catalog. When empty, the session cart is
	// used and cleared on success.
	Items      []ItemRequest
	Shipping   domain.ShippingInfo
	Payment    domain.PaymentInfo
	CouponCode string
	Carrier    string
}

// Checkout runs a whole flow in one call without touching the session's
// stored flow. It still counts as the session's one order in flight: it is
// refused while a submit or another one-shot is placing an order.
func (s *Service) Checkout(ctx context.Context, req Request) (*domain.Order, error) {
	return s.guarded(ctx, req.SessionID, req.IdempotencyKey, func() (*domain.Order, error) {
		f := NewFlow()
		if err := s.fill(f, req); err != nil {
			return nil, err
		}

		items := s.cartItems(req.SessionID)
		if len(req.Items) > 0 {
			lines, err := s.resolveItems(ctx, req.Items)
			if err != nil {
				return nil, err
			}
			items = func(context.Context) ([]domain.LineItem, error) { return lines, nil }
		}

		if err := f.BeginSubmit(); err != nil {
			return nil, err
		}

		e := s.Flows.acquire(req.SessionID)
		e.mu.Lock()
		err := e.claim()
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
		defer func() {
			e.mu.Lock()
			e.placing = false
			e.mu.Unlock()
		}()

		sub := f.snapshot()
		sub.couponCode = req.CouponCode
		sub.fromCart = len(req.Items) == 0
		order, err := s.place(ctx, req.SessionID, sub, items)
		return order, s.finish(f, order, err)
	})
}

func (s *Service) fill(f *Flow, req Request) error {
	fields := make(map[string]string)
	if _, err := f.SubmitShipping(req.Shipping); err != nil {
		mergeFields(fields, err)
		mergeFields(fields, ValidatePayment(req.Payment))
	} else if _, err := f.SubmitPayment(req.Payment); err != nil {
		mergeFields(fields, err)
	}
	if req.Carrier != "" {
		c, err := pricing.ParseCarrier(req.Carrier)
		if err != nil {
			fields["carrier"] = "Unknown carrier"
		} else {
			_ = f.SetCarrier(c)
		}
	}
	return result(fields)
}

func mergeFields(dst map[string]string, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		for k, v := range ve.Fields {
			dst[k] = v
		}
	}
}

// guarded wraps fn with the idempotency store when a key is given.
func (s *Service) guarded(ctx context.Context, sessionID, key string, fn func() (*domain.Order, error)) (*domain.Order, error) {
	if key == "" || s.Idempotency == nil {
		return fn()
	}
	scoped := sessionID + ":" + key

	if o, ok, err := s.replay(ctx, scoped); err != nil || ok {
		return o, err
	}
	locked, err := s.Idempotency.TryLock(ctx, idempotencyScope, scoped)
	if err != nil {
		return nil, fmt.Errorf("idempotency lock: %w", err)
	}
	if !locked {
		// the first call may have finished between Recall and TryLock
		if o, ok, err := s.replay(ctx, scoped); err != nil || ok {
			return o, err
		}
		return nil, ErrSubmissionInProgress
	}

	order, err := fn()
	if err != nil {
		if uerr := s.Idempotency.Unlock(context.WithoutCancel(ctx), idempotencyScope, scoped); uerr != nil {
			s.Logger.WarnContext(ctx, "idempotency unlock failed", "key", key, "error", uerr)
		}
		return nil, err
	}
	if rerr := s.Idempotency.Remember(context.WithoutCancel(ctx), idempotencyScope, scoped, order.ID); rerr != nil {
		s.Logger.ErrorContext(ctx, "idempotency remember failed", "key", key, "order_id", order.ID, "error", rerr)
	}
	return order, nil
}

func (s *Service) replay(ctx context.Context, scoped string) (*domain.Order, bool, error) {
	id, ok, err := s.Idempotency.Recall(ctx, idempotencyScope, scoped)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency recall: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

type itemSource func(ctx context.Context) ([]domain.LineItem, error)

func (s *Service) cartItems(sessionID string) itemSource {
	return func(ctx context.Context) ([]domain.LineItem, error) {
		v, err := s.Carts.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return v.LineItems(), nil
	}
}

// resolveItems prices requested items from the catalog, applying the same
// quantity rules as the cart.
func (s *Service) resolveItems(ctx context.Context, reqs []ItemRequest) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, cart.ErrQuantityNotPositive
		}
		p, err := s.Products.FindByID(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		if r.Quantity > p.Stock {
			return nil, &cart.QuantityExceedsStockError{ProductID: p.ID, Available: p.Stock}
		}
		out = append(out, domain.CartLine{Product: *p, Quantity: r.Quantity}.LineItem())
	}
	return out, nil
}

func subtotal(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// place runs the Submitting step. Failures come back as *SubmitError.
func (s *Service) place(ctx context.Context, sessionID string, sub submission, items itemSource) (_ *domain.Order, err error) {
	// The submit outlives a dropped client connection and is bounded by its
	// own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "checkout.submit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("checkout.carrier", string(sub.carrier)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	lines, err := items(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if len(lines) == 0 {
		return nil, &SubmitError{Reason: ReasonEmptyCart, Err: ErrEmptyCart}
	}
	if sub.coupon == nil && sub.couponCode != "" {
		if sub.coupon, err = s.Coupons.Validate(sub.couponCode, subtotal(lines)); err != nil {
			return nil, classify(err)
		}
	}

	priced, err := pricing.Calculate(lines, pricing.Options{Coupon: sub.coupon, Carrier: sub.carrier})
	if err != nil {
		return nil, classify(err)
	}
	span.SetAttributes(
		attribute.Int("checkout.line_count", len(lines)),
		attribute.String("checkout.total", priced.Total.StringFixed(2)),
	)

	if err := s.processingDelay(ctx); err != nil {
		return nil, classify(err)
	}

	now := s.now()
	id := orders.NewID(now)
	receipt, err := s.Gateway.Authorize(ctx, payment.Authorization{
		OrderRef:   id,
		Amount:     priced.Total.Round(2),
		CardNumber: stripSpaces(sub.payment.CardNumber),
		NameOnCard: sub.payment.NameOnCard,
	})
	if err != nil {
		return nil, classify(err)
	}

	order := &domain.Order{
		ID:           id,
		Status:       domain.OrderStatusConfirmed,
		SessionID:    sessionID,
		Items:        lines,
		ShippingInfo: sub.shipping,
		PaymentInfo: domain.MaskedPayment{
			CardLast4:  last4(sub.payment.CardNumber),
			NameOnCard: sub.payment.NameOnCard,
		},
		Pricing:           priced,
		AppliedCoupon:     sub.coupon,
		TransactionID:     receipt.TransactionID,
		CreatedAt:         now,
		EstimatedDelivery: now.AddDate(0, 0, pricing.DeliveryDays(sub.carrier)),
	}

	// The charge went through, so the order is written even if the submit
	// deadline has just passed.
	pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer pcancel()
	if err := s.Orders.Create(pctx, order); err != nil {
		s.Logger.ErrorContext(ctx, "order persist failed after authorization",
			"order_id", id, "transaction_id", receipt.TransactionID, "error", err)
		return nil, &SubmitError{Reason: ReasonInternal, Err: err}
	}
	span.SetAttributes(attribute.String("order.id", id))

	if sub.fromCart {
		if err := s.Carts.Clear(pctx, sessionID); err != nil {
			s.Logger.WarnContext(ctx, "cart clear after order failed", "order_id", id, "error", err)
		}
	}
	return order, nil
}

// finish moves the flow out of Submitting and records the outcome.
func (s *Service) finish(f *Flow, order *domain.Order, err error) error {
	if err == nil {
		s.Metrics.observe(outcomeCompleted)
		return f.Complete(order.Summary())
	}
	var se *SubmitError
	if !errors.As(err, &se) {
		se = &SubmitError{Reason: ReasonInternal, Err: err}
	}
	s.Metrics.observe(string(se.Reason))
	if ferr := f.Fail(se.Reason, failureMessage(se)); ferr != nil {
		return errors.Join(se, ferr)
	}
	return se
}

func classify(err error) error {
	var (
		se      *SubmitError
		decline *payment.DeclineError
	)
	switch {
	case errors.As(err, &se):
		return se
	case errors.As(err, &decline):
		return &SubmitError{Reason: ReasonPaymentDeclined, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &SubmitError{Reason: ReasonTimeout, Err: err}
	case errors.Is(err, payment.ErrUnavailable):
		return &SubmitError{Reason: ReasonPaymentUnavailable, Err: err}
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return &SubmitError{Reason: ReasonInvalidCoupon, Err: err}
	default:
		return &SubmitError{Reason: ReasonInternal, Err: err}
	}
}

func failureMessage(se *SubmitError) string {
	var decline *payment.DeclineError
	switch se.Reason {
	case ReasonPaymentDeclined:
		if errors.As(se.Err, &decline) {
			return decline.Reason
		}
		return "Payment was declined"
	case ReasonPaymentUnavailable:
		return "Payment service is unavailable, please try again shortly"
	case ReasonTimeout:
		return "Checkout took too long, please try again"
	case ReasonInvalidCoupon:
		return "Invalid or expired coupon code"
	case ReasonEmptyCart:
		return "Your cart is empty"
	default:
		return "Something went wrong placing your order"
	}
}

func (s *Service) processingDelay(ctx context.Context) error {
	d := s.cfg.ProcessingDelayMin
	if spread := s.cfg.ProcessingDelayMax - s.cfg.ProcessingDelayMin; spread > 0 {
		d += rand.N(spread)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
