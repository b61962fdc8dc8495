package checkout

import (
	"errors"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/fjod/holiday-rush/internal/pricing"
)

// Flow is one session's walk through checkout. It is not safe for concurrent
// use; SessionStore hands each flow out behind its own mutex.
type Flow struct {
	state    State
	shipping *domain.ShippingInfo
	payment  *domain.PaymentInfo
	coupon   *domain.Coupon
	carrier  pricing.Carrier
	failure  *Failure
	errors   map[string]string
	order    *domain.OrderSummary
}

func NewFlow() *Flow {
	return &Flow{state: StateShippingEntry}
}

func (f *Flow) State() State {
	return f.state
}

func (f *Flow) SubmitShipping(info domain.ShippingInfo) (State, error) {
	if err := f.guard(StatePaymentEntry); err != nil {
		return f.state, err
	}
	info = normalizeShipping(info)
	if err := f.check(ValidateShipping(info)); err != nil {
		return f.state, err
	}
	f.shipping = &info
	return f.moveTo(StatePaymentEntry), nil
}

func (f *Flow) SubmitPayment(info domain.PaymentInfo) (State, error) {
	if err := f.guard(StateReview); err != nil {
		return f.state, err
	}
	if err := f.check(ValidatePayment(info)); err != nil {
		return f.state, err
	}
	f.payment = &info
	return f.moveTo(StateReview), nil
}

func (f *Flow) Back() (State, error) {
	var to State
	switch f.state {
	case StateReview, StateFailed:
		to = StatePaymentEntry
	case StatePaymentEntry:
		to = StateShippingEntry
	case StateSubmitting:
		return f.state, ErrSubmissionInProgress
	default:
		return f.state, &IllegalTransitionError{From: f.state, To: f.state}
	}
	return f.moveTo(to), nil
}

// BeginSubmit re-validates the collected data and moves to Submitting.
func (f *Flow) BeginSubmit() error {
	if err := f.guard(StateSubmitting); err != nil {
		return err
	}
	if f.shipping == nil || f.payment == nil {
		return &IllegalTransitionError{From: f.state, To: StateSubmitting}
	}
	if err := f.check(ValidateShipping(*f.shipping)); err != nil {
		return err
	}
	if err := f.check(ValidatePayment(*f.payment)); err != nil {
		return err
	}
	f.failure = nil
	f.moveTo(StateSubmitting)
	return nil
}

func (f *Flow) Complete(summary domain.OrderSummary) error {
	if err := f.guard(StateCompleted); err != nil {
		return err
	}
	f.order = &summary
	f.moveTo(StateCompleted)
	return nil
}

func (f *Flow) Fail(reason FailureReason, message string) error {
	if err := f.guard(StateFailed); err != nil {
		return err
	}
	f.failure = &Failure{Reason: reason, Message: message}
	f.moveTo(StateFailed)
	return nil
}

// SetCoupon replaces any applied coupon. Coupons never stack.
func (f *Flow) SetCoupon(c *domain.Coupon) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.coupon = c
	return nil
}

func (f *Flow) SetCarrier(c pricing.Carrier) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.carrier = c
	return nil
}

func (f *Flow) Coupon() *domain.Coupon {
	return f.coupon
}

func (f *Flow) Carrier() pricing.Carrier {
	return f.carrier
}

func (f *Flow) guard(to State) error {
	if f.state == StateSubmitting && to != StateCompleted && to != StateFailed {
		return ErrSubmissionInProgress
	}
	if !CanTransitionTo(f.state, to) {
		return &IllegalTransitionError{From: f.state, To: to}
	}
	return nil
}

func (f *Flow) editable() error {
	switch f.state {
	case StateSubmitting:
		return ErrSubmissionInProgress
	case StateCompleted:
		return &IllegalTransitionError{From: f.state, To: f.state}
	}
	return nil
}

// check records field errors so they survive until the next successful step.
func (f *Flow) check(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		f.errors = ve.Fields
		return err
	}
	f.errors = nil
	return err
}

func (f *Flow) moveTo(s State) State {
	f.state = s
	return s
}

// submission is a copy of the flow data taken when a submit starts, so the
// flow lock need not be held while payment runs.
type submission struct {
	shipping domain.ShippingInfo
	payment  domain.PaymentInfo
	coupon   *domain.Coupon
	carrier  pricing.Carrier

	// couponCode is resolved against the subtotal once items are known.
	couponCode string
	fromCart   bool
}

func (f *Flow) snapshot() submission {
	return submission{
		shipping: *f.shipping,
		payment:  *f.payment,
		coupon:   f.coupon,
		carrier:  f.carrier,
	}
}

type PaymentView struct {
	CardLast4      string `json:"card_last4"`
	NameOnCard     string `json:"name_on_card"`
	ExpiryMonth    string `json:"expiry_month"`
	ExpiryYear     string `json:"expiry_year"`
	SameAsShipping bool   `json:"same_as_shipping"`
	BillingAddress string `json:"billing_address,omitempty"`
	BillingCity    string `json:"billing_city,omitempty"`
	BillingState   string `json:"billing_state,omitempty"`
	BillingZipCode string `json:"billing_zip_code,omitempty"`
}

// View is what a client sees of a flow. Card number and CVV never leave it.
type View struct {
	State       State                `json:"state"`
	Shipping    *domain.ShippingInfo `json:"shipping_info,omitempty"`
	Payment     *PaymentView         `json:"payment_info,omitempty"`
	Coupon      *domain.Coupon       `json:"applied_coupon,omitempty"`
	Carrier     pricing.Carrier      `json:"carrier,omitempty"`
	LastFailure *Failure             `json:"last_failure,omitempty"`
	Errors      map[string]string    `json:"errors,omitempty"`
	Order       *domain.OrderSummary `json:"order,omitempty"`
}

func (f *Flow) View() *View {
	v := &View{
		State:       f.state,
		Coupon:      f.coupon,
		Carrier:     f.carrier,
		LastFailure: f.failure,
		Errors:      f.errors,
		Order:       f.order,
	}
	if f.shipping != nil {
		s := *f.shipping
		v.Shipping = &s
	}
	if p := f.payment; p != nil {
		v.Payment = &PaymentView{
			CardLast4:      last4(p.CardNumber),
			NameOnCard:     p.NameOnCard,
			ExpiryMonth:    p.ExpiryMonth,
			ExpiryYear:     p.ExpiryYear,
			SameAsShipping: p.SameAsShipping,
			BillingAddress: p.BillingAddress,
			BillingCity:    p.BillingCity,
			BillingState:   p.BillingState,
			BillingZipCode: p.BillingZipCode,
		}
	}
	return v
}
