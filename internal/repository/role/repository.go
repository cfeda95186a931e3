package role

import (
	"context"

	"shopbridge/internal/domain"
)

// Repository persists role assignments keyed by principal.
type Repository interface {
	Get(ctx context.Context, principal string) (*domain.RoleAssignment, error)
	Upsert(ctx context.Context, a domain.RoleAssignment) (*domain.RoleAssignment, error)
	List(ctx context.Context) ([]domain.RoleAssignment, error)
}
