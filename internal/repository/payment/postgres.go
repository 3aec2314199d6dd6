package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

const paymentColumns = `id::text, order_id::text, COALESCE(order_number, ''), amount, currency, payment_method, status,
COALESCE(transaction_id, ''), refund_amount, refunded_at, COALESCE(failure_reason, ''), created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	const q = `
INSERT INTO payments (order_id, order_number, amount, currency, payment_method, status, transaction_id)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''))
RETURNING ` + paymentColumns + `
`
	out, err := r.scanPayment(r.pool.QueryRow(ctx, q,
		p.OrderID, p.OrderNumber, p.Amount, p.Currency, p.PaymentMethod, p.Status, p.TransactionID))
	if err != nil {
		r.logger.Printf("payment repo: create tx=%s error=%v", p.TransactionID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	out, err := r.scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE order_id = $1
ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Record(ctx context.Context, in RecordInput) (*domain.Payment, bool, error) {
	// Upsert keyed by transaction id: redelivered callbacks settle on the
	// same row. A refunded row is terminal and is not rewritten.
	const q = `
INSERT INTO payments (order_id, order_number, amount, currency, payment_method, status, transaction_id, failure_reason)
VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, $4, $5, $6, $7, NULLIF($8, ''))
ON CONFLICT (transaction_id) DO UPDATE SET
    order_id = COALESCE(EXCLUDED.order_id, payments.order_id),
    order_number = COALESCE(EXCLUDED.order_number, payments.order_number),
    status = EXCLUDED.status,
    failure_reason = EXCLUDED.failure_reason,
    updated_at = now()
WHERE payments.status <> 'refunded'
RETURNING ` + paymentColumns + `, (xmax = 0) AS inserted
`
	var p domain.Payment
	var inserted bool
	err := r.pool.QueryRow(ctx, q,
		in.OrderID, in.OrderNumber, in.Amount, in.Currency, in.PaymentMethod, in.Status, in.TransactionID, in.FailureReason,
	).Scan(
		&p.ID, &p.OrderID, &p.OrderNumber, &p.Amount, &p.Currency, &p.PaymentMethod, &p.Status,
		&p.TransactionID, &p.RefundAmount, &p.RefundedAt, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
		&inserted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict row exists but is refunded; report it unchanged.
			existing, gerr := r.getByTransaction(ctx, in.TransactionID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		r.logger.Printf("payment repo: record tx=%s error=%v", in.TransactionID, err)
		return nil, false, err
	}
	return &p, inserted, nil
}

func (r *postgresRepo) MarkRefunded(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (*domain.Payment, error) {
	const q = `
UPDATE payments
SET status = 'refunded', refund_amount = $2, refunded_at = $3, updated_at = now()
WHERE id = $1 AND status = 'completed'
RETURNING ` + paymentColumns + `
`
	out, err := r.scanPayment(r.pool.QueryRow(ctx, q, id, amount, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) getByTransaction(ctx context.Context, transactionID string) (*domain.Payment, error) {
	out, err := r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.OrderNumber, &p.Amount, &p.Currency, &p.PaymentMethod, &p.Status,
		&p.TransactionID, &p.RefundAmount, &p.RefundedAt, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
