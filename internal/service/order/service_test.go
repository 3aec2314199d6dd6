package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/pricing"
	orderrepo "storefront-backend/internal/repository/order"
)

type fakeOrderRepo struct {
	orders map[string]*domain.Order

	createCalls    int
	conflictsLeft  int
	lastCreate     orderrepo.CreateInput
	lastCancelAt   time.Time
	lastCancelWhy  string
	lastTracking   string
	updateConflict bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, in orderrepo.CreateInput) (*domain.Order, error) {
	f.createCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return nil, domain.ErrConflict
	}
	f.lastCreate = in
	o := &domain.Order{
		ID:              "order-1",
		OrderNumber:     in.OrderNumber,
		CustomerID:      in.CustomerID,
		Items:           in.Items,
		Subtotal:        in.Totals.Subtotal,
		Tax:             in.Totals.Tax,
		ShippingCost:    in.Totals.ShippingCost,
		Discount:        in.Totals.Discount,
		Total:           in.Totals.Total,
		CouponCode:      in.CouponCode,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentStatePending,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByCustomer(_ context.Context, customerID string, _ orderrepo.ListFilter) ([]domain.Order, int64, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, trackingNumber string) error {
	if f.updateConflict {
		f.updateConflict = false
		return domain.ErrConflict
	}
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return domain.ErrConflict
	}
	o.Status = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	f.lastTracking = trackingNumber
	return nil
}

func (f *fakeOrderRepo) Cancel(_ context.Context, id string, from domain.OrderStatus, reason string, at time.Time) error {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return domain.ErrConflict
	}
	o.Status = domain.OrderCancelled
	o.CancelledAt = &at
	o.CancellationReason = reason
	f.lastCancelAt = at
	f.lastCancelWhy = reason
	return nil
}

type stubProducts struct {
	products map[string]domain.Product
}

func (s *stubProducts) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubCoupons struct {
	coupons map[string]*domain.Coupon
}

func (s *stubCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testEngine() *pricing.Engine {
	return pricing.NewEngine(pricing.Config{
		TaxRate:               dec("0.18"),
		FreeShippingThreshold: dec("999"),
		FlatShippingFee:       dec("49"),
	})
}

func testService(repo *fakeOrderRepo) *Service {
	products := &stubProducts{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Classic T-Shirt", Price: dec("600"), Stock: 10, Active: true},
		"p2": {ID: "p2", Name: "Ceramic Mug", Price: dec("349"), Stock: 1, Active: true},
		"p3": {ID: "p3", Name: "Retired Poster", Price: dec("199"), Stock: 5, Active: false},
	}}
	coupons := &stubCoupons{coupons: map[string]*domain.Coupon{
		"WELCOME100": {Code: "WELCOME100", Kind: domain.CouponFixed, Value: dec("100"), Active: true},
	}}
	return New(repo, products, coupons, nil, testEngine(), nil)
}

func validInput() CreateInput {
	return CreateInput{
		CustomerID:    "cust-1",
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: "cod",
		ShippingAddress: domain.Address{
			Line1:      "1 Main St",
			City:       "Pune",
			PostalCode: "411001",
			Country:    "IN",
		},
	}
}

func TestCreate_RepricesServerSide(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	order, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 2 x 600 = 1200 subtotal, 18% tax = 216, free shipping above 999.
	if !order.Subtotal.Equal(dec("1200")) {
		t.Fatalf("expected subtotal 1200, got %s", order.Subtotal)
	}
	if !order.Tax.Equal(dec("216")) {
		t.Fatalf("expected tax 216, got %s", order.Tax)
	}
	if !order.ShippingCost.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.ShippingCost)
	}
	if !order.Total.Equal(dec("1416")) {
		t.Fatalf("expected total 1416, got %s", order.Total)
	}
	if order.Status != domain.OrderPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
}

func TestCreate_SnapshotsCatalogPrice(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	order, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(order.Items))
	}
	line := order.Items[0]
	if !line.UnitPrice.Equal(dec("600")) || line.Name != "Classic T-Shirt" {
		t.Fatalf("expected catalog snapshot, got %s %s", line.Name, line.UnitPrice)
	}
}

func TestCreate_AppliesCoupon(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	in := validInput()
	in.CouponCode = "WELCOME100"
	order, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !order.Discount.Equal(dec("100")) {
		t.Fatalf("expected discount 100, got %s", order.Discount)
	}
	// (1200 - 100) * 1.18 computed as 1200 + 216 - 100.
	if !order.Total.Equal(dec("1316")) {
		t.Fatalf("expected total 1316, got %s", order.Total)
	}
}

func TestCreate_Validations(t *testing.T) {
	svc := testService(newFakeOrderRepo())
	ctx := context.Background()

	in := validInput()
	in.CustomerID = ""
	var verr *domain.ValidationError
	if _, err := svc.Create(ctx, in); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for customer, got %v", err)
	}

	in = validInput()
	in.Items = nil
	if _, err := svc.Create(ctx, in); !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	in = validInput()
	in.ShippingAddress = domain.Address{}
	if _, err := svc.Create(ctx, in); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for address, got %v", err)
	}

	in = validInput()
	in.PaymentMethod = "  "
	if _, err := svc.Create(ctx, in); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for payment method, got %v", err)
	}

	in = validInput()
	in.Items[0].Quantity = 0
	if _, err := svc.Create(ctx, in); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCreate_RejectsUnknownInactiveAndOutOfStock(t *testing.T) {
	svc := testService(newFakeOrderRepo())
	ctx := context.Background()

	in := validInput()
	in.Items = []ItemInput{{ProductID: "ghost", Quantity: 1}}
	if _, err := svc.Create(ctx, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in.Items = []ItemInput{{ProductID: "p3", Quantity: 1}}
	var inactive *domain.ProductInactiveError
	if _, err := svc.Create(ctx, in); !errors.As(err, &inactive) {
		t.Fatalf("expected ProductInactiveError, got %v", err)
	}

	in.Items = []ItemInput{{ProductID: "p2", Quantity: 3}}
	var stockErr *domain.StockError
	if _, err := svc.Create(ctx, in); !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
}

func TestCreate_RetriesOrderNumberCollision(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.conflictsLeft = 2
	svc := testService(repo)

	order, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create after collisions: %v", err)
	}
	if repo.createCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.createCalls)
	}
	if order.OrderNumber == "" {
		t.Fatalf("expected order number assigned")
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.conflictsLeft = 5
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if repo.createCalls != orderNumberAttempts {
		t.Fatalf("expected %d attempts, got %d", orderNumberAttempts, repo.createCalls)
	}
}

func TestGet_HidesOtherCustomersOrders(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Get(context.Background(), "cust-2", "order-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign order, got %v", err)
	}
}

func TestCancel_DefaultsReasonAndStampsTime(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	order, err := svc.Cancel(context.Background(), "cust-1", "order-1", "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != domain.OrderCancelled {
		t.Fatalf("expected cancelled, got %s", order.Status)
	}
	if order.CancellationReason != defaultCancellationReason {
		t.Fatalf("expected default reason, got %q", order.CancellationReason)
	}
	if order.CancelledAt == nil || order.CancelledAt.IsZero() {
		t.Fatalf("expected cancellation timestamp")
	}
}

func TestCancel_ShippedOrderRejected(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.orders["order-1"].Status = domain.OrderShipped

	_, err := svc.Cancel(context.Background(), "cust-1", "order-1", "changed my mind")
	var conflict *domain.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError, got %v", err)
	}
}

func TestUpdateStatus_WalksLifecycle(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	order, err := svc.UpdateStatus(context.Background(), "order-1", domain.OrderProcessing, "")
	if err != nil {
		t.Fatalf("to processing: %v", err)
	}
	if order.Status != domain.OrderProcessing {
		t.Fatalf("expected processing, got %s", order.Status)
	}

	order, err = svc.UpdateStatus(context.Background(), "order-1", domain.OrderShipped, "TRK123")
	if err != nil {
		t.Fatalf("to shipped: %v", err)
	}
	if order.TrackingNumber != "TRK123" {
		t.Fatalf("expected tracking number stored, got %q", order.TrackingNumber)
	}
}

func TestUpdateStatus_RejectsSkipsAndCancel(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := testService(repo)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	var conflict *domain.StateConflictError
	if _, err := svc.UpdateStatus(context.Background(), "order-1", domain.OrderDelivered, ""); !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for pending -> delivered, got %v", err)
	}

	var verr *domain.ValidationError
	if _, err := svc.UpdateStatus(context.Background(), "order-1", domain.OrderCancelled, ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for cancel via status, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "order-1", "mangled", ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown status, got %v", err)
	}
}
