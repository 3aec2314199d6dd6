package cache

import (
	"context"
	"errors"

	"storefront-backend/internal/domain"
)

// CartCache is a read-through cache keyed by cart owner. Implementations
// must treat a miss as ErrCacheMiss, not as an empty cart.
type CartCache interface {
	Get(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	Set(ctx context.Context, owner domain.CartOwner, cart *domain.Cart) error
	Delete(ctx context.Context, owner domain.CartOwner) error
}

var ErrCacheMiss = errors.New("cache miss")
