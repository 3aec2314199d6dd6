package order

import "storefront-backend/internal/domain"

// transitions is the forward-only lifecycle. Cancellation branches off before
// shipment; delivered and cancelled are terminal.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderPending:    {domain.OrderProcessing, domain.OrderCancelled},
	domain.OrderProcessing: {domain.OrderShipped, domain.OrderCancelled},
	domain.OrderShipped:    {domain.OrderDelivered},
	domain.OrderDelivered:  nil,
	domain.OrderCancelled:  nil,
}

// CanTransition reports whether from -> to is allowed by the lifecycle table.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a StateConflictError when from -> to is not in
// the table. Every status change, including privileged ones, goes through
// this check.
func ValidateTransition(from, to domain.OrderStatus) error {
	if !CanTransition(from, to) {
		return &domain.StateConflictError{From: from, To: to}
	}
	return nil
}

// ValidateCancel checks caller-initiated cancellation and phrases the
// rejection for the shopper.
func ValidateCancel(status domain.OrderStatus) error {
	switch status {
	case domain.OrderPending, domain.OrderProcessing:
		return nil
	case domain.OrderShipped:
		return &domain.StateConflictError{
			From:   status,
			To:     domain.OrderCancelled,
			Reason: "order has already shipped; contact support to arrange a return",
		}
	case domain.OrderDelivered:
		return &domain.StateConflictError{
			From:   status,
			To:     domain.OrderCancelled,
			Reason: "order has already been delivered and can no longer be cancelled",
		}
	case domain.OrderCancelled:
		return &domain.StateConflictError{
			From:   status,
			To:     domain.OrderCancelled,
			Reason: "order is already cancelled",
		}
	default:
		return &domain.StateConflictError{From: status, To: domain.OrderCancelled}
	}
}
