package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
)

// RecordInput is one attempt/outcome reported for a gateway transaction.
type RecordInput struct {
	OrderID       string
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	Status        domain.PaymentStatus
	TransactionID string
	FailureReason string
}

type Repository interface {
	// Create persists a payment row minted alongside a gateway intent.
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	// Record upserts by transaction id so webhook redelivery never creates a
	// second settlement row. It reports whether the stored status changed.
	Record(ctx context.Context, in RecordInput) (*domain.Payment, bool, error)
	// MarkRefunded stores the refund amount and timestamp; afterwards the
	// row is treated as immutable.
	MarkRefunded(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (*domain.Payment, error)
}
