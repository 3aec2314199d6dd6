package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, order_number, customer_id::text, subtotal, tax, shipping_cost, discount, COALESCE(coupon_code, ''), total,
status, payment_status, payment_method, shipping_address, billing_address, COALESCE(notes, ''), COALESCE(tracking_number, ''),
cancelled_at, COALESCE(cancellation_reason, ''), created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Stock is claimed conditionally inside the order transaction: if any
	// line lacks stock the whole order rolls back.
	for _, item := range in.Items {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND active AND stock >= $2
`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, r.diagnoseStockFailure(ctx, tx, item)
		}
	}

	var orderID string
	err = tx.QueryRow(ctx, `
INSERT INTO orders (order_number, customer_id, subtotal, tax, shipping_cost, discount, coupon_code, total,
                    status, payment_status, payment_method, shipping_address, billing_address, notes)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, NULLIF($14, ''))
RETURNING id::text
`,
		in.OrderNumber, in.CustomerID,
		in.Totals.Subtotal, in.Totals.Tax, in.Totals.ShippingCost, in.Totals.Discount, in.CouponCode, in.Totals.Total,
		domain.OrderPending, domain.PaymentStatePending, in.PaymentMethod,
		in.ShippingAddress, in.BillingAddress, in.Notes,
	).Scan(&orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		r.logger.Printf("order repo: create number=%s error=%v", in.OrderNumber, err)
		return nil, err
	}

	for _, item := range in.Items {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, line_subtotal)
VALUES ($1, $2, $3, $4, $5, $6)
`, orderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.LineSubtotal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// diagnoseStockFailure explains why a conditional decrement matched no row:
// the product is gone, retired, or short on stock.
func (r *postgresRepo) diagnoseStockFailure(ctx context.Context, tx pgx.Tx, item domain.OrderItem) error {
	var stock int
	var active bool
	err := tx.QueryRow(ctx, `SELECT stock, active FROM products WHERE id = $1`, item.ProductID).Scan(&stock, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		r.logger.Printf("order repo: stock lookup product=%s error=%v", item.ProductID, err)
		return &domain.StockError{ProductID: item.ProductID, Requested: item.Quantity}
	}
	if !active {
		return &domain.ProductInactiveError{ProductID: item.ProductID}
	}
	return &domain.StockError{ProductID: item.ProductID, Requested: item.Quantity, Available: stock}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]domain.Order, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	var total int64
	if err := r.pool.QueryRow(ctx, `
SELECT count(*) FROM orders
WHERE customer_id = $1 AND ($2 = '' OR status = $2)
`, customerID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE customer_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`, customerID, f.Status, f.Limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Order
	var ids []string
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
	}
	return result, total, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, trackingNumber string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $3,
    tracking_number = COALESCE(NULLIF($4, ''), tracking_number),
    updated_at = now()
WHERE id = $1 AND status = $2
`, id, from, to, trackingNumber)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *postgresRepo) Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $3, cancelled_at = $4, cancellation_reason = $5, updated_at = now()
WHERE id = $1 AND status = $2
`, id, from, domain.OrderCancelled, at, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentState) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1
`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.Discount, &o.CouponCode, &o.Total,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.ShippingAddress, &o.BillingAddress, &o.Notes, &o.TrackingNumber,
		&o.CancelledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, name, unit_price, quantity, line_subtotal
FROM order_items
WHERE order_id = ANY($1)
ORDER BY created_at ASC
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.LineSubtotal); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
