// Package pricing computes cart and order totals as a pure function of line
// items and configuration. Stored totals are never trusted; every mutation
// recomputes from scratch through this package.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
)

// Config holds the pricing parameters, loaded once at startup.
type Config struct {
	TaxRate               decimal.Decimal // fraction, e.g. 0.18 for 18%
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// Line is one priced cart or order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the computed money breakdown. The invariant
// Total == Subtotal + Tax + ShippingCost - Discount holds within
// two-decimal rounding.
type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute derives totals from the given lines and an already-resolved coupon
// discount. Rounding happens only at the tax and final-total steps so per-line
// rounding error cannot compound. An empty line set yields all-zero totals.
func (e *Engine) Compute(lines []Line, discount decimal.Decimal) Totals {
	if len(lines) == 0 {
		return Totals{
			Subtotal:     decimal.Zero,
			Tax:          decimal.Zero,
			ShippingCost: decimal.Zero,
			Discount:     decimal.Zero,
			Total:        decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(e.cfg.TaxRate).Round(2)

	shipping := e.cfg.FlatShippingFee
	if subtotal.GreaterThanOrEqual(e.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Add(tax).Add(shipping).Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     discount,
		Total:        total,
	}
}

// CouponDiscount resolves a coupon into a money amount for the given
// subtotal. Percent coupons round to two decimals; fixed coupons are capped
// at the subtotal by Compute.
func CouponDiscount(c domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	switch c.Kind {
	case domain.CouponPercent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case domain.CouponFixed:
		return c.Value
	default:
		return decimal.Zero
	}
}

// LinesFromCart converts cart items for Compute.
func LinesFromCart(items []domain.CartItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return lines
}

// LinesFromOrder converts order item snapshots for Compute.
func LinesFromOrder(items []domain.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return lines
}
