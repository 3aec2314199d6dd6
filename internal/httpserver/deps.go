package httpserver

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
	orderrepo "storefront-backend/internal/repository/order"
	ordersvc "storefront-backend/internal/service/order"
	paymentsvc "storefront-backend/internal/service/payment"
)

// Deps carries the services the router needs. Interfaces keep handlers
// testable with stubs.
type Deps struct {
	CartSvc    CartService
	OrderSvc   OrderService
	PaymentSvc PaymentService
	Sessions   SessionService
	AdminKey   string
	// SessionTTL bounds the anonymous session cookie lifetime.
	SessionTTL time.Duration
}

type CartService interface {
	Resolve(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, error)
	RemoveCoupon(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
}

type OrderService interface {
	Create(ctx context.Context, in ordersvc.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, customerID, orderID string) (*domain.Order, error)
	List(ctx context.Context, customerID string, f orderrepo.ListFilter) ([]domain.Order, int64, error)
	Cancel(ctx context.Context, customerID, orderID, reason string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus, trackingNumber string) (*domain.Order, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, owner domain.CartOwner) (*paymentsvc.IntentResult, error)
	Record(ctx context.Context, in paymentsvc.RecordInput) (*domain.Payment, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
}

type SessionService interface {
	Issue(ctx context.Context) (token, sessionID string, err error)
	Resolve(ctx context.Context, token string) (string, error)
}
