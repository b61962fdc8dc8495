package catalog

import (
	"context"

	"github.com/fjod/holiday-rush/internal/domain"
)

type MemoryRepository struct {
	products []domain.Product
	byID     map[string]int
}

func NewMemoryRepository(products []domain.Product) *MemoryRepository {
	r := &MemoryRepository{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		r.byID[p.ID] = i
	}
	return r
}

func (r *MemoryRepository) List(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := r.products[i]
	return &p, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
