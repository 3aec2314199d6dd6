package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	SKU          string
	Name         string
	Description  string
	Price        string
	ComparePrice string
	Stock        int
}

type couponSeed struct {
	Code  string
	Kind  string
	Value string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:          "SKU-TEE-CLASSIC",
			Name:         "Classic T-Shirt",
			Description:  "Soft cotton tee in classic fit",
			Price:        "599.00",
			ComparePrice: "799.00",
			Stock:        120,
		},
		{
			SKU:         "SKU-MUG-CERAMIC",
			Name:        "Ceramic Mug",
			Description: "350ml ceramic mug",
			Price:       "349.00",
			Stock:       80,
		},
		{
			SKU:          "SKU-HOODIE-ZIP",
			Name:         "Zip Hoodie",
			Description:  "Fleece-lined zip hoodie",
			Price:        "1499.00",
			ComparePrice: "1999.00",
			Stock:        40,
		},
		{
			SKU:         "SKU-CAP-BASEBALL",
			Name:        "Baseball Cap",
			Description: "Adjustable cotton cap",
			Price:       "299.00",
			Stock:       0,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	coupons := []couponSeed{
		{Code: "WELCOME100", Kind: "fixed", Value: "100.00"},
		{Code: "SAVE10", Kind: "percent", Value: "10.00"},
	}

	for _, c := range coupons {
		if err := upsertCoupon(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (sku, name, description, price, compare_price, stock, active)
VALUES ($1, $2, NULLIF($3, ''), $4::numeric, NULLIF($5, '')::numeric, $6, TRUE)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    compare_price = EXCLUDED.compare_price,
    stock = EXCLUDED.stock,
    active = EXCLUDED.active
`
	_, err := pool.Exec(ctx, q, p.SKU, p.Name, p.Description, p.Price, p.ComparePrice, p.Stock)
	return err
}

func upsertCoupon(ctx context.Context, pool *pgxpool.Pool, c couponSeed) error {
	const q = `
INSERT INTO coupons (code, kind, value, active)
VALUES ($1, $2, $3::numeric, TRUE)
ON CONFLICT (code) DO UPDATE
SET kind = EXCLUDED.kind,
    value = EXCLUDED.value,
    active = EXCLUDED.active
`
	_, err := pool.Exec(ctx, q, c.Code, c.Kind, c.Value)
	return err
}
