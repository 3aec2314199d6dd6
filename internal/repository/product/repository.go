package product

import (
	"context"

	"storefront-backend/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
