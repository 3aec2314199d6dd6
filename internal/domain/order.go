package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

type Order struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"orderNumber"`
	CustomerID         string          `json:"customerId"`
	Items              []OrderItem     `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	ShippingCost       decimal.Decimal `json:"shippingCost"`
	Discount           decimal.Decimal `json:"discount"`
	CouponCode         string          `json:"couponCode,omitempty"`
	Total              decimal.Decimal `json:"total"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      PaymentState    `json:"paymentStatus"`
	PaymentMethod      string          `json:"paymentMethod"`
	ShippingAddress    Address         `json:"shippingAddress"`
	BillingAddress     *Address        `json:"billingAddress,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	TrackingNumber     string          `json:"trackingNumber,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// OrderItem is an immutable snapshot copied from the cart at order-creation
// time; it is never re-derived from the catalog afterward.
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"-"`
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
}

type Address struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == ""
}
