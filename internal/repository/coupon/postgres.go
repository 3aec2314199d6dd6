package coupon

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `
SELECT code, kind, value, active, starts_at, expires_at, created_at
FROM coupons
WHERE code = $1
`
	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, code).Scan(&c.Code, &c.Kind, &c.Value, &c.Active, &c.StartsAt, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
