package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/pricing"
	orderrepo "storefront-backend/internal/repository/order"
)

const defaultCancellationReason = "cancelled by customer"

// orderNumberAttempts bounds retries on order-number collisions.
const orderNumberAttempts = 3

type Service struct {
	repo     repo
	products productRepo
	coupons  couponRepo
	carts    cartCleaner
	engine   *pricing.Engine
	logger   *log.Logger
}

type repo interface {
	Create(ctx context.Context, in orderrepo.CreateInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, f orderrepo.ListFilter) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, trackingNumber string) error
	Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) error
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// cartCleaner empties the customer's cart once checkout succeeds. May be nil.
type cartCleaner interface {
	Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
}

func New(r repo, products productRepo, coupons couponRepo, carts cartCleaner, engine *pricing.Engine, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: r, products: products, coupons: coupons, carts: carts, engine: engine, logger: logger}
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	CustomerID      string
	Items           []ItemInput
	CouponCode      string
	PaymentMethod   string
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	Notes           string
}

// Create converts a checkout payload into an immutable order. Prices and
// stock come from the catalog at this moment, never from the client: every
// line is re-validated and the totals are re-derived server-side.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if in.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customerId"}
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if in.ShippingAddress.IsZero() {
		return nil, &domain.ValidationError{Field: "shippingAddress"}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, &domain.ValidationError{Field: "paymentMethod"}
	}

	ids := make([]string, len(in.Items))
	for i, item := range in.Items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, item := range in.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrNotFound)
		}
		if !p.Active {
			return nil, &domain.ProductInactiveError{ProductID: p.ID}
		}
		if item.Quantity > p.Stock {
			return nil, &domain.StockError{ProductID: p.ID, Requested: item.Quantity, Available: p.Stock}
		}
		lineSubtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, domain.OrderItem{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			Quantity:     item.Quantity,
			LineSubtotal: lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}

	discount := decimal.Zero
	couponCode := strings.TrimSpace(in.CouponCode)
	if couponCode != "" {
		c, err := s.coupons.GetByCode(ctx, couponCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.CouponError{Code: couponCode, Reason: "unknown code"}
			}
			return nil, err
		}
		if !c.Usable(time.Now()) {
			return nil, &domain.CouponError{Code: couponCode, Reason: "code is not active"}
		}
		discount = pricing.CouponDiscount(*c, subtotal)
	}

	totals := s.engine.Compute(pricing.LinesFromOrder(items), discount)

	var created *domain.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		created, err = s.repo.Create(ctx, orderrepo.CreateInput{
			OrderNumber:     generateOrderNumber(),
			CustomerID:      in.CustomerID,
			Items:           items,
			Totals:          totals,
			CouponCode:      couponCode,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			Notes:           in.Notes,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if s.carts != nil {
		if _, err := s.carts.Clear(ctx, domain.CustomerOwner(in.CustomerID)); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("order service: clear cart customer=%s error=%v", in.CustomerID, err)
		}
	}

	return created, nil
}

// Get returns the order only to the customer who placed it.
func (s *Service) Get(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, customerID string, f orderrepo.ListFilter) ([]domain.Order, int64, error) {
	return s.repo.ListByCustomer(ctx, customerID, f)
}

// Cancel performs a caller-initiated cancellation. The compare-and-swap in
// the repository guards against a concurrent status change slipping in
// between the read and the write.
func (s *Service) Cancel(ctx context.Context, customerID, orderID, reason string) (*domain.Order, error) {
	o, err := s.Get(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateCancel(o.Status); err != nil {
		return nil, err
	}

	if strings.TrimSpace(reason) == "" {
		reason = defaultCancellationReason
	}
	if err := s.repo.Cancel(ctx, orderID, o.Status, reason, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the race; report against the fresh status.
			if fresh, ferr := s.repo.GetByID(ctx, orderID); ferr == nil {
				if verr := ValidateCancel(fresh.Status); verr != nil {
					return nil, verr
				}
			}
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, orderID)
}

// UpdateStatus applies a privileged status change. It passes the same
// transition table as everything else.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	if _, ok := transitions[to]; !ok {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if to == domain.OrderCancelled {
		return nil, &domain.ValidationError{Field: "status", Reason: "use the cancel action"}
	}
	if err := ValidateTransition(o.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, o.Status, to, trackingNumber); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if fresh, ferr := s.repo.GetByID(ctx, orderID); ferr == nil {
				if verr := ValidateTransition(fresh.Status, to); verr != nil {
					return nil, verr
				}
			}
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, orderID)
}

// generateOrderNumber builds a display-friendly unique number: UTC timestamp
// plus a random suffix, uniqueness enforced by the database constraint.
func generateOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}
