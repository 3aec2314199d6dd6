package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique-constraint or concurrent-update conflict.
	ErrConflict = errors.New("conflict")

	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StockError reports insufficient stock for a product.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// ProductInactiveError reports an attempt to buy a disabled product.
type ProductInactiveError struct {
	ProductID string
}

func (e *ProductInactiveError) Error() string {
	return fmt.Sprintf("product %s is not available for purchase", e.ProductID)
}

// ItemNotFoundError reports a cart line that does not exist.
type ItemNotFoundError struct {
	ProductID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("product %s is not in the cart", e.ProductID)
}

// StateConflictError reports an order status transition the state machine
// does not allow.
type StateConflictError struct {
	From   OrderStatus
	To     OrderStatus
	Reason string
}

func (e *StateConflictError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// CouponError reports an unusable coupon code.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %s: %s", e.Code, e.Reason)
}

// UpstreamError wraps a payment gateway failure. The wrapped error is logged
// server-side; callers only see Message.
type UpstreamError struct {
	Op      string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
