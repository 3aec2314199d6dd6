package coupon

import (
	"context"

	"storefront-backend/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}
