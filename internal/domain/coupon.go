package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponKind string

const (
	CouponFixed   CouponKind = "fixed"
	CouponPercent CouponKind = "percent"
)

type Coupon struct {
	Code      string          `json:"code"`
	Kind      CouponKind      `json:"kind"`
	Value     decimal.Decimal `json:"value"`
	Active    bool            `json:"active"`
	StartsAt  *time.Time      `json:"startsAt,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Usable reports whether the coupon can be applied at the given time.
func (c Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
