package cart

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrQuantityNotPositive  = errors.New("quantity must be positive")
	ErrQuantityExceedsStock = errors.New("quantity exceeds stock")
)

type QuantityExceedsStockError struct {
	ProductID string
	Available int
}

func (e *QuantityExceedsStockError) Error() string {
	return fmt.Sprintf("Only %d items available", e.Available)
}

func (e *QuantityExceedsStockError) Unwrap() error {
	return ErrQuantityExceedsStock
}
