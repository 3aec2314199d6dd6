package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/gateway"
	paymentrepo "storefront-backend/internal/repository/payment"
)

// Service links gateway settlements to orders: it mints intents from the
// caller's cart and reconciles reported outcomes onto payment and order rows.
type Service struct {
	payments   repo
	orders     orderRepo
	carts      cartResolver
	gateway    gateway.Gateway
	currency   string
	gatewayKey string
	logger     *log.Logger
}

type repo interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	Record(ctx context.Context, in paymentrepo.RecordInput) (*domain.Payment, bool, error)
	MarkRefunded(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (*domain.Payment, error)
}

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentState) error
}

type cartResolver interface {
	Resolve(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
}

func New(payments repo, orders orderRepo, carts cartResolver, gw gateway.Gateway, currency, gatewayKey string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		payments:   payments,
		orders:     orders,
		carts:      carts,
		gateway:    gw,
		currency:   currency,
		gatewayKey: gatewayKey,
		logger:     logger,
	}
}

// IntentResult is returned to the client for provider-side completion.
type IntentResult struct {
	IntentID   string       `json:"intentId"`
	Amount     int64        `json:"amount"`
	Currency   string       `json:"currency"`
	GatewayKey string       `json:"gatewayKey"`
	Cart       *domain.Cart `json:"cart"`
}

// CreateIntent mints a gateway intent for the caller's cart total and
// records the attempt. Amount is converted to the smallest currency unit.
func (s *Service) CreateIntent(ctx context.Context, owner domain.CartOwner) (*IntentResult, error) {
	cart, err := s.carts.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if !cart.Total.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	minor := cart.Total.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, minor, s.currency, uuid.NewString())
	if err != nil {
		return nil, err
	}

	if _, err := s.payments.Create(ctx, &domain.Payment{
		Amount:        cart.Total,
		Currency:      s.currency,
		PaymentMethod: "online",
		Status:        domain.PaymentCreated,
		TransactionID: intent.ID,
	}); err != nil {
		return nil, err
	}

	return &IntentResult{
		IntentID:   intent.ID,
		Amount:     intent.Amount,
		Currency:   intent.Currency,
		GatewayKey: s.gatewayKey,
		Cart:       cart,
	}, nil
}

// RecordInput is one reported payment outcome, typically a gateway callback.
type RecordInput struct {
	OrderID       string
	Amount        decimal.Decimal
	PaymentMethod string
	Status        domain.PaymentStatus
	TransactionID string
	FailureReason string
}

// Record reconciles a reported outcome. It is idempotent per transaction id:
// webhook redelivery settles on the same payment row and the order-side
// update is a plain idempotent write.
func (s *Service) Record(ctx context.Context, in RecordInput) (*domain.Payment, error) {
	switch in.Status {
	case domain.PaymentCompleted, domain.PaymentFailed, domain.PaymentCreated:
	default:
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown payment status"}
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return nil, &domain.ValidationError{Field: "transactionId"}
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	p, _, err := s.payments.Record(ctx, paymentrepo.RecordInput{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Amount:        in.Amount,
		Currency:      s.currency,
		PaymentMethod: in.PaymentMethod,
		Status:        in.Status,
		TransactionID: in.TransactionID,
		FailureReason: in.FailureReason,
	})
	if err != nil {
		return nil, err
	}

	// Settlement is reflected on the order's payment status only; shipment
	// progression stays a separate, admin-driven transition.
	switch in.Status {
	case domain.PaymentCompleted:
		err = s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentStateCompleted)
	case domain.PaymentFailed:
		err = s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentStateFailed)
	default:
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Refund reverses a settled payment through the gateway and records the
// amount. The order's shipment status is deliberately left alone.
func (s *Service) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentCompleted {
		return nil, &domain.ValidationError{Field: "paymentId", Reason: "only completed payments can be refunded"}
	}
	if amount.IsZero() {
		amount = p.Amount
	}
	if amount.IsNegative() || amount.GreaterThan(p.Amount) {
		return nil, domain.ErrInvalidAmount
	}

	minor := amount.Mul(decimal.NewFromInt(100)).IntPart()
	if _, err := s.gateway.Refund(ctx, p.TransactionID, minor); err != nil {
		return nil, err
	}

	refunded, err := s.payments.MarkRefunded(ctx, paymentID, amount, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Raced with another refund; return the stored row.
			return s.payments.GetByID(ctx, paymentID)
		}
		return nil, err
	}

	if refunded.OrderID != nil {
		if err := s.orders.SetPaymentStatus(ctx, *refunded.OrderID, domain.PaymentStateRefunded); err != nil {
			s.logger.Printf("payment service: set order %s refunded error=%v", *refunded.OrderID, err)
		}
	}
	return refunded, nil
}

// ListByOrder returns all attempts recorded against an order.
func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return s.payments.ListByOrder(ctx, orderID)
}
