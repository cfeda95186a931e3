package role

import (
	"context"
	"errors"

	"shopbridge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, principal string) (*domain.RoleAssignment, error) {
	const q = `
SELECT principal, role, assigned_by, assigned_at
FROM roles
WHERE principal = $1
`
	a, err := scanAssignment(r.pool.QueryRow(ctx, q, principal))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, a domain.RoleAssignment) (*domain.RoleAssignment, error) {
	const q = `
INSERT INTO roles (principal, role, assigned_by, assigned_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (principal) DO UPDATE
SET role = EXCLUDED.role,
    assigned_by = EXCLUDED.assigned_by,
    assigned_at = EXCLUDED.assigned_at
RETURNING principal, role, assigned_by, assigned_at
`
	return scanAssignment(r.pool.QueryRow(ctx, q, a.Principal, string(a.Role), a.AssignedBy, a.AssignedAt))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.RoleAssignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT principal, role, assigned_by, assigned_at FROM roles ORDER BY principal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.RoleAssignment, error) {
	var (
		a    domain.RoleAssignment
		role string
	)
	if err := row.Scan(&a.Principal, &role, &a.AssignedBy, &a.AssignedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}
