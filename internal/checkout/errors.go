package checkout

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionInProgress = errors.New("checkout submission already in progress")
	ErrIllegalTransition    = errors.New("illegal transition of checkout state")
)

type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move checkout from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// ValidationError maps form fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type FailureReason string

const (
	ReasonPaymentDeclined    FailureReason = "payment_declined"
	ReasonPaymentUnavailable FailureReason = "payment_unavailable"
	ReasonTimeout            FailureReason = "timeout"
	ReasonInvalidCoupon      FailureReason = "invalid_coupon"
	ReasonEmptyCart          FailureReason = "empty_cart"
	ReasonInternal           FailureReason = "internal"
)

// SubmitError is returned when a submission ends in the Failed state.
type SubmitError struct {
	Reason FailureReason
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("checkout failed (%s): %v", e.Reason, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
}
