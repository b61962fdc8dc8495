package cart

import (
	"context"

	"github.com/fjod/holiday-rush/internal/domain"
)

// Repository persists carts as product ids and quantities. Quantities passed
// in are already clamped by the Ledger.
type Repository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	// SetItem inserts the item or replaces the quantity of an existing line,
	// creating the cart when needed.
	SetItem(ctx context.Context, sessionID string, item domain.CartItem) error
	// RemoveItem is a no-op when the cart or the line does not exist.
	RemoveItem(ctx context.Context, sessionID, productID string) error
	DeleteCart(ctx context.Context, sessionID string) error
}
