package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbridge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const productColumns = `id, name, description, image_url, product_url, category, platform_kind, platform_label, base_price, listed_price, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list products", zap.Error(err))
		return nil, err
	}
	result, err := collectProducts(rows)
	if err != nil {
		r.logger.Error("list products rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed products", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get product", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Search(ctx context.Context, in SearchInput) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if term := strings.TrimSpace(in.Term); term != "" {
		args = append(args, "%"+term+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if category := strings.TrimSpace(in.Category); category != "" {
		args = append(args, category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if in.Platform != nil {
		args = append(args, string(in.Platform.Kind()))
		where = append(where, fmt.Sprintf("platform_kind = $%d", len(args)))
		if in.Platform.Kind() == domain.PlatformOther {
			args = append(args, in.Platform.Label())
			where = append(where, fmt.Sprintf("lower(platform_label) = lower($%d)", len(args)))
		}
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("search products", zap.String("term", in.Term), zap.Error(err))
		return nil, err
	}
	return collectProducts(rows)
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product, price domain.PriceFunc) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// FOR SHARE blocks a concurrent markup rewrite until this insert commits.
	var markup int64
	if err := tx.QueryRow(ctx, `SELECT markup_percent FROM settings WHERE id = 1 FOR SHARE`).Scan(&markup); err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	p.ListedPrice = price(p.BasePrice, markup)

	q := `
INSERT INTO products (name, description, image_url, product_url, category, platform_kind, platform_label, base_price, listed_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + productColumns
	created, err := scanProduct(tx.QueryRow(ctx, q,
		p.Name,
		p.Description,
		p.ImageURL,
		p.ProductURL,
		p.Category,
		string(p.Platform.Kind()),
		p.Platform.Label(),
		p.BasePrice,
		p.ListedPrice,
	))
	if err != nil {
		r.logger.Error("insert product", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("product created",
		zap.Int64("id", created.ID),
		zap.Int64("base_price", created.BasePrice),
		zap.Int64("listed_price", created.ListedPrice),
	)
	return created, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p             domain.Product
		platformKind  string
		platformLabel string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.ProductURL,
		&p.Category,
		&platformKind,
		&platformLabel,
		&p.BasePrice,
		&p.ListedPrice,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	platform, err := domain.ParsePlatform(platformKind, platformLabel)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", p.ID, err)
	}
	p.Platform = platform
	return &p, nil
}
