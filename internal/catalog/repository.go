package catalog

import (
	"context"
	"errors"

	"github.com/fjod/holiday-rush/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Repository is the read side of the product catalog. Products are returned in
// display order.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Close() error
}
