package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
)

// fakeCartRepo keeps one cart per owner key and mirrors the merge semantics
// of the SQL layer: adding an existing product increments its quantity.
type fakeCartRepo struct {
	carts map[string]*domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*domain.Cart)}
}

func (f *fakeCartRepo) GetByOwner(_ context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, ok := f.carts[owner.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cart, nil
}

func (f *fakeCartRepo) AddItem(_ context.Context, owner domain.CartOwner, product domain.Product, quantity int) (*domain.Cart, error) {
	cart, ok := f.carts[owner.Key()]
	if !ok {
		cart = &domain.Cart{ID: "cart-" + owner.Key()}
		f.carts[owner.Key()] = cart
	}
	if line := cart.FindItem(product.ID); line != nil {
		line.Quantity += quantity
		line.LineSubtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:    product.ID,
			Name:         product.Name,
			UnitPrice:    product.Price,
			Quantity:     quantity,
			LineSubtotal: product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}
	return cart, nil
}

func (f *fakeCartRepo) SetItemQuantity(_ context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error) {
	cart, ok := f.carts[owner.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	line := cart.FindItem(productID)
	if line == nil {
		return nil, domain.ErrNotFound
	}
	if quantity == 0 {
		items := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductID != productID {
				items = append(items, it)
			}
		}
		cart.Items = items
		return cart, nil
	}
	line.Quantity = quantity
	line.LineSubtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return cart, nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error) {
	return f.SetItemQuantity(ctx, owner, productID, 0)
}

func (f *fakeCartRepo) Clear(_ context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, ok := f.carts[owner.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cart.Items = nil
	cart.CouponCode = ""
	return cart, nil
}

func (f *fakeCartRepo) SetCoupon(_ context.Context, owner domain.CartOwner, code string) (*domain.Cart, error) {
	cart, ok := f.carts[owner.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cart.CouponCode = code
	return cart, nil
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type stubCouponRepo struct {
	coupons map[string]*domain.Coupon
}

func (s *stubCouponRepo) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testService(repo *fakeCartRepo) *Service {
	products := &stubProductRepo{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Classic T-Shirt", Price: price("599"), Stock: 10, Active: true},
		"p2": {ID: "p2", Name: "Ceramic Mug", Price: price("349"), Stock: 2, Active: true},
		"p3": {ID: "p3", Name: "Retired Poster", Price: price("199"), Stock: 5, Active: false},
	}}
	coupons := &stubCouponRepo{coupons: map[string]*domain.Coupon{
		"WELCOME100": {Code: "WELCOME100", Kind: domain.CouponFixed, Value: price("100"), Active: true},
		"EXPIRED":    {Code: "EXPIRED", Kind: domain.CouponFixed, Value: price("50"), Active: false},
	}}
	return New(repo, products, coupons, nil, nil)
}

func TestAddItem_MergesQuantities(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), owner, "p1", 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if got := cart.Items[0].Quantity; got != 5 {
		t.Fatalf("expected merged quantity 5, got %d", got)
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc := testService(newFakeCartRepo())

	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s"), "p1", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s"), "p1", -2); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddItem_CountsExistingLineAgainstStock(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p2", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddItem(context.Background(), owner, "p2", 1)
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.Requested != 3 || stockErr.Available != 2 {
		t.Fatalf("expected requested 3 of 2 available, got %d of %d", stockErr.Requested, stockErr.Available)
	}
}

func TestAddItem_InactiveProduct(t *testing.T) {
	svc := testService(newFakeCartRepo())

	_, err := svc.AddItem(context.Background(), domain.SessionOwner("s"), "p3", 1)
	var inactive *domain.ProductInactiveError
	if !errors.As(err, &inactive) {
		t.Fatalf("expected ProductInactiveError, got %v", err)
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := testService(newFakeCartRepo())

	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s"), "nope", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.UpdateQuantity(context.Background(), owner, "p1", 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %d items", len(cart.Items))
	}
}

func TestUpdateQuantity_ReducingLineIgnoresDepletedStock(t *testing.T) {
	repo := newFakeCartRepo()
	products := &stubProductRepo{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Classic T-Shirt", Price: price("599"), Stock: 10, Active: true},
	}}
	svc := New(repo, products, &stubCouponRepo{}, nil, nil)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Catalog stock drops below what the cart already holds.
	products.products["p1"].Stock = 3

	cart, err := svc.UpdateQuantity(context.Background(), owner, "p1", 4)
	if err != nil {
		t.Fatalf("expected reduction to succeed, got %v", err)
	}
	if got := cart.Items[0].Quantity; got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}

	_, err = svc.UpdateQuantity(context.Background(), owner, "p1", 6)
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError on increase, got %v", err)
	}
	if stockErr.Requested != 6 || stockErr.Available != 3 {
		t.Fatalf("expected requested 6 of 3 available, got %d of %d", stockErr.Requested, stockErr.Available)
	}
}

func TestUpdateQuantity_MissingLine(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.UpdateQuantity(context.Background(), owner, "p2", 1)
	var missing *domain.ItemNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected ItemNotFoundError, got %v", err)
	}
}

func TestRemoveItem_AbsentLineIsNoOp(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.RemoveItem(context.Background(), owner, "p2")
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected cart unchanged, got %d items", len(cart.Items))
	}
}

func TestResolve_NoCartReturnsEmptyView(t *testing.T) {
	svc := testService(newFakeCartRepo())

	cart, err := svc.Resolve(context.Background(), domain.CustomerOwner("cust-1"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart view")
	}
	if cart.CustomerID == nil || *cart.CustomerID != "cust-1" {
		t.Fatalf("expected owner echoed on empty view")
	}
}

func TestClear_NeverCreatedCartSucceeds(t *testing.T) {
	svc := testService(newFakeCartRepo())

	cart, err := svc.Clear(context.Background(), domain.SessionOwner("sess-1"))
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart")
	}
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.ApplyCoupon(context.Background(), owner, "NOPE")
	var couponErr *domain.CouponError
	if !errors.As(err, &couponErr) {
		t.Fatalf("expected CouponError, got %v", err)
	}
}

func TestApplyCoupon_InactiveCode(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.ApplyCoupon(context.Background(), owner, "EXPIRED")
	var couponErr *domain.CouponError
	if !errors.As(err, &couponErr) {
		t.Fatalf("expected CouponError for inactive code, got %v", err)
	}
}

func TestApplyCoupon_NoCart(t *testing.T) {
	svc := testService(newFakeCartRepo())

	if _, err := svc.ApplyCoupon(context.Background(), domain.SessionOwner("sess-1"), "WELCOME100"); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestApplyCoupon_Success(t *testing.T) {
	repo := newFakeCartRepo()
	svc := testService(repo)
	owner := domain.SessionOwner("sess-1")

	if _, err := svc.AddItem(context.Background(), owner, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.ApplyCoupon(context.Background(), owner, "WELCOME100")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cart.CouponCode != "WELCOME100" {
		t.Fatalf("expected coupon attached, got %q", cart.CouponCode)
	}
}
