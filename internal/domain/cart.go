package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID           string          `json:"id"`
	CustomerID   *string         `json:"customerId,omitempty"`
	SessionID    *string         `json:"-"`
	Items        []CartItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Discount     decimal.Decimal `json:"discount"`
	CouponCode   string          `json:"couponCode,omitempty"`
	Total        decimal.Decimal `json:"total"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CartItem carries the name and price snapshotted at add-time; it is never
// live-joined to the catalog on read.
type CartItem struct {
	ID           string           `json:"id"`
	CartID       string           `json:"-"`
	ProductID    string           `json:"productId"`
	Name         string           `json:"name"`
	UnitPrice    decimal.Decimal  `json:"unitPrice"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty"`
	Quantity     int              `json:"quantity"`
	LineSubtotal decimal.Decimal  `json:"lineSubtotal"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Items) == 0 }

// FindItem returns the line for productID, or nil.
func (c *Cart) FindItem(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
