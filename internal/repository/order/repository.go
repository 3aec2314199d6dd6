package order

import (
	"context"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/pricing"
)

// CreateInput is a fully priced, server-validated order ready to persist.
type CreateInput struct {
	OrderNumber     string
	CustomerID      string
	Items           []domain.OrderItem
	Totals          pricing.Totals
	CouponCode      string
	PaymentMethod   string
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	Notes           string
}

type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

type Repository interface {
	// Create persists the order and decrements stock for every line in the
	// same transaction. Returns domain.ErrConflict when the order number
	// collides, or a *domain.StockError when any decrement fails.
	Create(ctx context.Context, in CreateInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]domain.Order, int64, error)
	// UpdateStatus is a compare-and-swap: it only applies when the stored
	// status still equals from. Returns domain.ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, trackingNumber string) error
	// Cancel is the cancellation variant of UpdateStatus.
	Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) error
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentState) error
}
