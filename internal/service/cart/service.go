package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"storefront-backend/internal/cache"
	"storefront-backend/internal/domain"
)

// Service is the cart aggregate: it validates mutations against the catalog
// and delegates atomic merge/recompute to the repository.
type Service struct {
	repo     cartRepo
	products productRepo
	coupons  couponRepo
	cache    cache.CartCache
	logger   *log.Logger
}

type cartRepo interface {
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.CartOwner, product domain.Product, quantity int) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	SetCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// New builds a cart Service. cartCache may be nil when no cache is
// configured.
func New(repo cartRepo, products productRepo, coupons couponRepo, cartCache cache.CartCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, products: products, coupons: coupons, cache: cartCache, logger: logger}
}

// Resolve returns the owner's cart, or an empty-cart view without creating a
// row. The read path never mutates storage.
func (s *Service) Resolve(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, owner); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Printf("cart service: cache get owner=%s error=%v", owner.Key(), err)
		}
	}

	cart, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return emptyCart(owner), nil
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// AddItem merges quantity into the owner's cart after validating the product
// is active and sufficiently stocked, counting what the cart already holds.
func (s *Service) AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, &domain.ProductInactiveError{ProductID: productID}
	}

	requested := quantity
	if current, err := s.repo.GetByOwner(ctx, owner); err == nil {
		if line := current.FindItem(productID); line != nil {
			requested += line.Quantity
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if requested > product.Stock {
		return nil, &domain.StockError{ProductID: productID, Requested: requested, Available: product.Stock}
	}

	cart, err := s.repo.AddItem(ctx, owner, *product, quantity)
	if err != nil {
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// UpdateQuantity replaces a line's quantity; zero removes the line. Stock is
// only re-checked when the quantity grows, so a shopper can always trim a
// line even after the catalog has dropped below what their cart holds.
func (s *Service) UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	if quantity > 0 {
		held := 0
		if current, err := s.repo.GetByOwner(ctx, owner); err == nil {
			if line := current.FindItem(productID); line != nil {
				held = line.Quantity
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if quantity > held {
			product, err := s.products.GetByID(ctx, productID)
			if err != nil {
				return nil, err
			}
			if quantity > product.Stock {
				return nil, &domain.StockError{ProductID: productID, Requested: quantity, Available: product.Stock}
			}
		}
	}

	cart, err := s.repo.SetItemQuantity(ctx, owner, productID, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ItemNotFoundError{ProductID: productID}
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// RemoveItem deletes a line. Removing an absent line is a no-op success: the
// caller gets the unchanged cart back.
func (s *Service) RemoveItem(ctx context.Context, owner domain.CartOwner, productID string) (*domain.Cart, error) {
	cart, err := s.repo.RemoveItem(ctx, owner, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.Resolve(ctx, owner)
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// Clear empties the cart and drops any coupon. Clearing a cart that was
// never created succeeds with an empty view.
func (s *Service) Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := s.repo.Clear(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return emptyCart(owner), nil
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// ApplyCoupon validates and attaches a discount code.
func (s *Service) ApplyCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &domain.ValidationError{Field: "code"}
	}

	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.CouponError{Code: code, Reason: "unknown code"}
		}
		return nil, err
	}
	if !c.Usable(time.Now()) {
		return nil, &domain.CouponError{Code: code, Reason: "code is not active"}
	}

	cart, err := s.repo.SetCoupon(ctx, owner, c.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// RemoveCoupon detaches any applied code.
func (s *Service) RemoveCoupon(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := s.repo.SetCoupon(ctx, owner, "")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return emptyCart(owner), nil
		}
		return nil, err
	}
	s.storeCache(ctx, owner, cart)
	return cart, nil
}

// Invalidate drops the cached copy, e.g. after checkout cleared the cart.
func (s *Service) Invalidate(ctx context.Context, owner domain.CartOwner) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, owner); err != nil {
		s.logger.Printf("cart service: cache delete owner=%s error=%v", owner.Key(), err)
	}
}

func (s *Service) storeCache(ctx context.Context, owner domain.CartOwner, cart *domain.Cart) {
	if s.cache == nil || cart == nil {
		return
	}
	if err := s.cache.Set(ctx, owner, cart); err != nil {
		s.logger.Printf("cart service: cache set owner=%s error=%v", owner.Key(), err)
	}
}

func emptyCart(owner domain.CartOwner) *domain.Cart {
	cart := &domain.Cart{Items: []domain.CartItem{}}
	if owner.CustomerID != "" {
		id := owner.CustomerID
		cart.CustomerID = &id
	} else if owner.SessionID != "" {
		id := owner.SessionID
		cart.SessionID = &id
	}
	return cart
}
