package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount types
const (
	DiscountTypeFixed         = "fixed"
	DiscountTypePercentage    = "percentage"
	DiscountTypeMaxPercentage = "maxPercentage"
)

// Promotion is one voucher definition. maxPercentage is a percentage
// cut capped at MaxDiscount; fixed subtracts DiscountValue outright.
type Promotion struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscount       *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue     *decimal.Decimal `json:"min_order_value,omitempty"`
	MaxUsage          *int             `json:"max_usage,omitempty"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user,omitempty"`
	RequiredPoints    *int             `json:"required_points,omitempty"`
	UsedCount         int              `json:"used_count"`
	StartsAt          time.Time        `json:"starts_at"`
	EndsAt            time.Time        `json:"ends_at"`
	IsActive          bool             `json:"is_active"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsPointGated reports whether the voucher must be redeemed with
// loyalty points before use.
func (p *Promotion) IsPointGated() bool {
	return p.RequiredPoints != nil && *p.RequiredPoints > 0
}

// IsExhausted reports whether the global usage cap is reached
func (p *Promotion) IsExhausted() bool {
	return p.MaxUsage != nil && p.UsedCount >= *p.MaxUsage
}

// Redemption is a diner's stock of purchased usage charges for a
// point-gated voucher. One row per (user, promotion).
type Redemption struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PromotionID uuid.UUID `json:"promotion_id"`
	UsageCount  int       `json:"usage_count"`
}

// Usage is the append-only record of a voucher applied to a payment
type Usage struct {
	ID               uuid.UUID `json:"id"`
	PromotionID      uuid.UUID `json:"promotion_id"`
	UserID           uuid.UUID `json:"user_id"`
	PaymentID        uuid.UUID `json:"payment_id"`
	UsageCount       int       `json:"usage_count"`
	PromotionVersion int       `json:"promotion_version"`
	UsedAt           time.Time `json:"used_at"`
}

// Evaluation is the advisory answer to "would this code apply".
// Nothing is reserved; the settlement transaction re-checks.
type Evaluation struct {
	Applicable bool            `json:"applicable"`
	FinalTotal decimal.Decimal `json:"final_total"`
	Discount   decimal.Decimal `json:"discount"`
	Reason     string          `json:"reason,omitempty"`
}
