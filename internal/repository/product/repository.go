package product

import (
	"context"

	"shopbridge/internal/domain"
)

// SearchInput filters the catalog. Empty fields match everything.
type SearchInput struct {
	Term     string
	Category string
	Platform *domain.Platform
}

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, in SearchInput) ([]domain.Product, error)
	// Create inserts the product with its listed price derived from the
	// markup read in the same transaction.
	Create(ctx context.Context, p domain.Product, price domain.PriceFunc) (*domain.Product, error)
}
