package order

import (
	"context"
	"errors"
	"fmt"

	"shopbridge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const orderColumns = `
id, principal, total, customer_name, customer_email, customer_phone, shipping_address,
order_status, payment_status, fulfillment_notes, COALESCE(idempotency_key, ''),
COALESCE(checkout_session_id, ''), created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	// A racing insert with the same key blocks on the unique index until the
	// winner commits, then falls through to DO NOTHING.
	q := `
INSERT INTO orders (
    principal, total, customer_name, customer_email, customer_phone, shipping_address,
    order_status, payment_status, fulfillment_notes, idempotency_key, checkout_session_id, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12, $12)
ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
RETURNING ` + orderColumns
	created, err := scanOrder(tx.QueryRow(ctx, q,
		o.Principal,
		o.Total,
		o.Customer.Name,
		o.Customer.Email,
		o.Customer.Phone,
		o.Customer.ShippingAddress,
		string(o.OrderStatus),
		string(o.PaymentStatus),
		o.FulfillmentNotes,
		o.IdempotencyKey,
		o.CheckoutSessionID,
		o.CreatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && o.IdempotencyKey != "" {
			_ = tx.Rollback(ctx)
			existing, getErr := r.GetByIdempotencyKey(ctx, o.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			r.logger.Info("order replay", zap.Int64("order_id", existing.ID), zap.String("idempotency_key", o.IdempotencyKey))
			return existing, false, nil
		}
		r.logger.Error("insert order", zap.String("principal", o.Principal), zap.Error(err))
		return nil, false, err
	}

	batch := &pgx.Batch{}
	for i, line := range o.Products {
		batch.Queue(`
INSERT INTO order_lines (order_id, position, product_id, quantity, price_at_purchase)
VALUES ($1, $2, $3, $4, $5)
`, created.ID, i, line.ProductID, line.Quantity, line.PriceAtPurchase)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, false, fmt.Errorf("insert order lines: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	created.Products = append([]domain.OrderedProduct(nil), o.Products...)
	return created, true, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.fetchOrder(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	return r.fetchOrder(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *postgresRepo) ListByPrincipal(ctx context.Context, principal string) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE principal = $1 ORDER BY id ASC`, principal)
}

func (r *postgresRepo) ListAll(ctx context.Context, offset, limit int) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`, offset, limit)
}

func (r *postgresRepo) Update(ctx context.Context, id int64, fn UpdateFunc) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := r.fetchOrder(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders
SET order_status = $1, payment_status = $2, fulfillment_notes = $3, updated_at = $4
WHERE id = $5
`, string(o.OrderStatus), string(o.PaymentStatus), o.FulfillmentNotes, o.UpdatedAt, id); err != nil {
		r.logger.Error("update order", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q querier, orderQuery string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, orderQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	lines, err := loadLines(ctx, q, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Products = lines[o.ID]
	return o, nil
}

func (r *postgresRepo) listOrders(ctx context.Context, listQuery string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	var (
		orders []domain.Order
		ids    []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := loadLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Products = lines[orders[i].ID]
	}
	return orders, nil
}

func loadLines(ctx context.Context, q querier, orderIDs []int64) (map[int64][]domain.OrderedProduct, error) {
	const linesQuery = `
SELECT order_id, product_id, quantity, price_at_purchase
FROM order_lines
WHERE order_id = ANY($1)
ORDER BY order_id, position ASC
`
	rows, err := q.Query(ctx, linesQuery, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.OrderedProduct, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			line    domain.OrderedProduct
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Quantity, &line.PriceAtPurchase); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], line)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o             domain.Order
		orderStatus   string
		paymentStatus string
	)
	if err := row.Scan(
		&o.ID,
		&o.Principal,
		&o.Total,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&o.Customer.ShippingAddress,
		&orderStatus,
		&paymentStatus,
		&o.FulfillmentNotes,
		&o.IdempotencyKey,
		&o.CheckoutSessionID,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.OrderStatus = domain.OrderStatus(orderStatus)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return &o, nil
}
