package cart

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
	"storefront-backend/internal/pricing"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	engine *pricing.Engine
	ttl    time.Duration
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, engine *pricing.Engine, ttl time.Duration, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, engine: engine, ttl: ttl, logger: logger}
}

const cartColumns = `id::text, customer_id::text, session_id, coupon_code, subtotal, tax, shipping_cost, discount, total, expires_at, created_at, updated_at`

func (r *postgresRepo) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	pred, arg := ownerPredicate(owner)
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE `+pred, arg)
}

func (r *postgresRepo) AddItem(ctx context.Context, owner domain.CartOwner, product domain.Product, quantity int) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cartID, err := r.ensureCart(ctx, tx, owner)
	if err != nil {
		return nil, err
	}

	// Merge-by-product is a single atomic upsert: two concurrent adds for
	// the same line both increment in place instead of racing a
	// read-modify-write. The price snapshot taken on first add wins.
	_, err = tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, name, unit_price, compare_price, quantity, line_subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $4::numeric * $6::integer)
ON CONFLICT (cart_id, product_id) DO UPDATE SET
    quantity = cart_items.quantity + EXCLUDED.quantity,
    line_subtotal = cart_items.unit_price * (cart_items.quantity + EXCLUDED.quantity)
`, cartID, product.ID, product.Name, product.Price, product.ComparePrice, quantity)
	if err != nil {
		r.logger.Printf("cart repo: add item cart=%s product=%s error=%v", cartID, product.ID, err)
		return nil, err
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByOwner(ctx, owner)
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cartID, err := r.findCartID(ctx, tx, owner)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, domain.ErrNotFound
		}
	} else {
		cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $3, line_subtotal = unit_price * $3::integer
WHERE cart_id = $1 AND product_id = $2
`, cartID, productID, quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, domain.ErrNotFound
		}
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByOwner(ctx, owner)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error) {
	return r.SetItemQuantity(ctx, owner, productID, 0)
}

func (r *postgresRepo) Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cartID, err := r.findCartID(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = NULL WHERE id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByOwner(ctx, owner)
}

func (r *postgresRepo) SetCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cartID, err := r.findCartID(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = NULLIF($2, '') WHERE id = $1`, cartID, code); err != nil {
		return nil, err
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByOwner(ctx, owner)
}

func (r *postgresRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ensureCart returns the owner's cart id, creating the row lazily on first
// mutation.
func (r *postgresRepo) ensureCart(ctx context.Context, tx pgx.Tx, owner domain.CartOwner) (string, error) {
	var q string
	var arg string
	if owner.CustomerID != "" {
		q = `
INSERT INTO carts (customer_id, expires_at)
VALUES ($1, $2)
ON CONFLICT (customer_id) WHERE customer_id IS NOT NULL
DO UPDATE SET updated_at = now()
RETURNING id::text
`
		arg = owner.CustomerID
	} else {
		q = `
INSERT INTO carts (session_id, expires_at)
VALUES ($1, $2)
ON CONFLICT (session_id) WHERE session_id IS NOT NULL
DO UPDATE SET updated_at = now()
RETURNING id::text
`
		arg = owner.SessionID
	}

	var cartID string
	if err := tx.QueryRow(ctx, q, arg, time.Now().Add(r.ttl)).Scan(&cartID); err != nil {
		return "", err
	}
	return cartID, nil
}

func (r *postgresRepo) findCartID(ctx context.Context, tx pgx.Tx, owner domain.CartOwner) (string, error) {
	pred, arg := ownerPredicate(owner)
	var cartID string
	err := tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE `+pred, arg).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return cartID, nil
}

// recompute rederives every monetary field from the current lines and coupon
// inside the mutation's transaction. Stored totals are never trusted.
func (r *postgresRepo) recompute(ctx context.Context, tx pgx.Tx, cartID string) error {
	rows, err := tx.Query(ctx, `SELECT unit_price, quantity FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return err
	}
	var lines []pricing.Line
	for rows.Next() {
		var l pricing.Line
		if err := rows.Scan(&l.UnitPrice, &l.Quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	discount := decimal.Zero
	if len(lines) > 0 {
		var couponCode *string
		if err := tx.QueryRow(ctx, `SELECT coupon_code FROM carts WHERE id = $1`, cartID).Scan(&couponCode); err != nil {
			return err
		}
		if couponCode != nil {
			subtotal := decimal.Zero
			for _, l := range lines {
				subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			discount, err = r.couponDiscount(ctx, tx, *couponCode, subtotal)
			if err != nil {
				return err
			}
		}
	}

	totals := r.engine.Compute(lines, discount)
	_, err = tx.Exec(ctx, `
UPDATE carts
SET subtotal = $2, tax = $3, shipping_cost = $4, discount = $5, total = $6,
    updated_at = now(), expires_at = $7
WHERE id = $1
`, cartID, totals.Subtotal, totals.Tax, totals.ShippingCost, totals.Discount, totals.Total, time.Now().Add(r.ttl))
	return err
}

func (r *postgresRepo) couponDiscount(ctx context.Context, tx pgx.Tx, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var c domain.Coupon
	err := tx.QueryRow(ctx, `
SELECT code, kind, value, active, starts_at, expires_at
FROM coupons
WHERE code = $1
`, code).Scan(&c.Code, &c.Kind, &c.Value, &c.Active, &c.StartsAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if !c.Usable(time.Now()) {
		return decimal.Zero, nil
	}
	return pricing.CouponDiscount(c, subtotal), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	var couponCode *string
	err := r.pool.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.SessionID,
		&couponCode,
		&cart.Subtotal,
		&cart.Tax,
		&cart.ShippingCost,
		&cart.Discount,
		&cart.Total,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if couponCode != nil {
		cart.CouponCode = *couponCode
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, name, unit_price, compare_price, quantity, line_subtotal, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartItem
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Name,
			&line.UnitPrice,
			&line.ComparePrice,
			&line.Quantity,
			&line.LineSubtotal,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func ownerPredicate(owner domain.CartOwner) (string, string) {
	if owner.CustomerID != "" {
		return "customer_id = $1", owner.CustomerID
	}
	return "session_id = $1", owner.SessionID
}
