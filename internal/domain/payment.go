package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "created"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment tracks one settlement attempt against an order. A row is created
// when a gateway intent is minted, which can be before the internal order
// exists; OrderID is filled in during reconciliation.
type Payment struct {
	ID            string           `json:"id"`
	OrderID       *string          `json:"orderId,omitempty"`
	OrderNumber   string           `json:"orderNumber,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	PaymentMethod string           `json:"paymentMethod"`
	Status        PaymentStatus    `json:"status"`
	TransactionID string           `json:"transactionId,omitempty"`
	RefundAmount  *decimal.Decimal `json:"refundAmount,omitempty"`
	RefundedAt    *time.Time       `json:"refundedAt,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}
