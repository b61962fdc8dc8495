package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDeclined    = errors.New("payment declined")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

const (
	ReasonIssuerDeclined    = "Transaction declined by issuer"
	ReasonInvalidCardFormat = "Invalid card number format"
)

type Authorization struct {
	OrderRef   string
	Amount     decimal.Decimal
	CardNumber string
	NameOnCard string
}

type Receipt struct {
	TransactionID string
	Last4         string
}

// Gateway authorizes a charge. A refusal is reported as *DeclineError; any
// other error means the gateway could not give an answer.
type Gateway interface {
	Authorize(ctx context.Context, auth Authorization) (*Receipt, error)
}

type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment gateway error: %s", e.Reason)
}

func (e *DeclineError) Unwrap() error {
	return ErrDeclined
}
