package settings

import (
	"context"
	"errors"
	"fmt"

	"shopbridge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("settings_repo")}
}

const selectSettings = `
SELECT markup_percent, COALESCE(payment_secret_key, ''), payment_allowed_countries, version, updated_at
FROM settings
WHERE id = 1
`

func (r *postgresRepo) Get(ctx context.Context) (*domain.Settings, error) {
	return scanSettings(r.pool.QueryRow(ctx, selectSettings))
}

func (r *postgresRepo) ApplyMarkup(ctx context.Context, percent int64, price domain.PriceFunc) (*domain.Settings, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	// The settings row lock serializes markup writers and product inserts.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM settings WHERE id = 1 FOR UPDATE`); err != nil {
		return nil, 0, fmt.Errorf("lock settings: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT id, base_price FROM products ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}
	type repriced struct {
		id     int64
		listed int64
	}
	var updates []repriced
	for rows.Next() {
		var id, base int64
		if err := rows.Scan(&id, &base); err != nil {
			rows.Close()
			return nil, 0, err
		}
		updates = append(updates, repriced{id: id, listed: price(base, percent)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(updates) > 0 {
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(`UPDATE products SET listed_price = $1 WHERE id = $2`, u.listed, u.id)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, 0, fmt.Errorf("reprice products: %w", err)
		}
	}

	s, err := scanSettings(tx.QueryRow(ctx, `
UPDATE settings
SET markup_percent = $1, version = version + 1, updated_at = now()
WHERE id = 1
RETURNING markup_percent, COALESCE(payment_secret_key, ''), payment_allowed_countries, version, updated_at
`, percent))
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	r.logger.Info("markup applied",
		zap.Int64("markup_percent", percent),
		zap.Int64("version", s.Version),
		zap.Int("repriced", len(updates)),
	)
	return s, len(updates), nil
}

func (r *postgresRepo) SetPayment(ctx context.Context, cfg domain.PaymentConfig) (*domain.Settings, error) {
	const q = `
UPDATE settings
SET payment_secret_key = $1, payment_allowed_countries = $2, version = version + 1, updated_at = now()
WHERE id = 1
RETURNING markup_percent, COALESCE(payment_secret_key, ''), payment_allowed_countries, version, updated_at
`
	s, err := scanSettings(r.pool.QueryRow(ctx, q, cfg.SecretKey, cfg.AllowedCountries))
	if err != nil {
		r.logger.Error("set payment config", zap.Error(err))
		return nil, err
	}
	r.logger.Info("payment config updated", zap.Strings("allowed_countries", cfg.AllowedCountries), zap.Int64("version", s.Version))
	return s, nil
}

func scanSettings(row pgx.Row) (*domain.Settings, error) {
	var (
		s         domain.Settings
		secret    string
		countries []string
	)
	if err := row.Scan(&s.MarkupPercent, &secret, &countries, &s.Version, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if secret != "" {
		s.Payment = &domain.PaymentConfig{SecretKey: secret, AllowedCountries: countries}
	}
	return &s, nil
}
