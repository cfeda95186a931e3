package session

import (
	"context"
	"errors"

	"shopbridge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const sessionColumns = `id, principal, status, redirect_url, amount_total, currency, error, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, s domain.CheckoutSession) error {
	const q = `
INSERT INTO checkout_sessions (id, principal, status, redirect_url, amount_total, currency, error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
`
	_, err := r.pool.Exec(ctx, q, s.ID, s.Principal, string(s.Status), s.RedirectURL, s.AmountTotal, s.Currency, s.Error, s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM checkout_sessions WHERE id = $1`, id))
}

func (r *postgresRepo) MarkTerminal(ctx context.Context, id string, status domain.SessionStatus, errMsg string) (*domain.CheckoutSession, error) {
	const q = `
UPDATE checkout_sessions
SET status = $2, error = $3, updated_at = now()
WHERE id = $1 AND status = 'open'
RETURNING ` + sessionColumns
	s, err := scanSession(r.pool.QueryRow(ctx, q, id, string(status), errMsg))
	if errors.Is(err, domain.ErrNotFound) {
		// Either unknown or already terminal; report what is stored.
		return r.Get(ctx, id)
	}
	return s, err
}

func scanSession(row pgx.Row) (*domain.CheckoutSession, error) {
	var (
		s      domain.CheckoutSession
		status string
	)
	if err := row.Scan(&s.ID, &s.Principal, &status, &s.RedirectURL, &s.AmountTotal, &s.Currency, &s.Error, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.SessionStatus(status)
	return &s, nil
}
