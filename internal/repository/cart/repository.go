package cart

import (
	"context"
	"time"

	"storefront-backend/internal/domain"
)

type Repository interface {
	// GetByOwner returns the owner's cart with lines, or domain.ErrNotFound.
	// The read path never creates a row.
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	// AddItem merges quantity into the owner's cart (created lazily),
	// snapshotting name and price on first add, and recomputes totals in the
	// same transaction.
	AddItem(ctx context.Context, owner domain.CartOwner, product domain.Product, quantity int) (*domain.Cart, error)
	// SetItemQuantity replaces a line's quantity; zero removes the line.
	// Returns domain.ErrNotFound when the line (or cart) is absent.
	SetItemQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error)
	// RemoveItem deletes a line. Returns domain.ErrNotFound when the line is
	// absent; callers decide whether that is an error.
	RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error)
	// Clear removes all lines and any coupon.
	Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	// SetCoupon attaches or detaches (empty code) a coupon and recomputes.
	SetCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, error)
	// PurgeExpired soft-deletes carts idle past their expiry timestamp and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
