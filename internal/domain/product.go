package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string           `json:"id"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty"`
	Stock        int              `json:"stock"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"createdAt"`
}
