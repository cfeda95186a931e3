package order

import (
	"context"

	"shopbridge/internal/domain"
)

// UpdateFunc mutates a locked order. Returning an error aborts the update.
type UpdateFunc func(o *domain.Order) error

type Repository interface {
	// Create inserts the order. When o.IdempotencyKey is set and an order
	// already holds it, the existing order is returned with created=false.
	Create(ctx context.Context, o domain.Order) (order *domain.Order, created bool, err error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByPrincipal(ctx context.Context, principal string) ([]domain.Order, error)
	// ListAll pages through orders newest first.
	ListAll(ctx context.Context, offset, limit int) ([]domain.Order, error)
	Update(ctx context.Context, id int64, fn UpdateFunc) (*domain.Order, error)
}
