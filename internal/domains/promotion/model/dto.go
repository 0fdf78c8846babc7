package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// CreatePromotionRequest defines a voucher (admin). Field combinations
// depend on the discount type:
//   - percentage:    value <= 100, no cap fields required
//   - maxPercentage: value <= 100, requires max_discount and min_order_value
//   - fixed:         forbids max_discount and min_order_value caps tied to
//     percentages; value is the flat amount
type CreatePromotionRequest struct {
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscount       *decimal.Decimal `json:"max_discount"`
	MinOrderValue     *decimal.Decimal `json:"min_order_value"`
	MaxUsage          *int             `json:"max_usage"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user"`
	RequiredPoints    *int             `json:"required_points"`
	StartsAt          time.Time        `json:"starts_at"`
	EndsAt            time.Time        `json:"ends_at"`
}

func (r CreatePromotionRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.DiscountType, validation.Required,
			validation.In(DiscountTypeFixed, DiscountTypePercentage, DiscountTypeMaxPercentage)),
		validation.Field(&r.DiscountValue, validation.By(positiveDecimal)),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.EndsAt, validation.Required),
		validation.Field(&r.Code, validation.Length(0, 50)),
	); err != nil {
		return err
	}
	return r.validateCombination()
}

func (r CreatePromotionRequest) validateCombination() error {
	if !r.EndsAt.After(r.StartsAt) {
		return validation.NewError("validation_window", "ends_at must be after starts_at")
	}

	hundred := decimal.NewFromInt(100)
	switch r.DiscountType {
	case DiscountTypePercentage:
		if r.DiscountValue.GreaterThan(hundred) {
			return validation.NewError("validation_percentage", "percentage cannot exceed 100")
		}
	case DiscountTypeMaxPercentage:
		if r.DiscountValue.GreaterThan(hundred) {
			return validation.NewError("validation_percentage", "percentage cannot exceed 100")
		}
		if r.MaxDiscount == nil || r.MinOrderValue == nil {
			return validation.NewError("validation_combination",
				"maxPercentage requires max_discount and min_order_value")
		}
	case DiscountTypeFixed:
		if r.MaxDiscount != nil || r.MinOrderValue != nil {
			return validation.NewError("validation_combination",
				"fixed discounts take no max_discount or min_order_value")
		}
	}

	if r.MaxUsage != nil && *r.MaxUsage < 1 {
		return validation.NewError("validation_max_usage", "max_usage must be at least 1")
	}
	if r.UsageLimitPerUser != nil && *r.UsageLimitPerUser < 1 {
		return validation.NewError("validation_user_limit", "usage_limit_per_user must be at least 1")
	}
	if r.RequiredPoints != nil && *r.RequiredPoints < 1 {
		return validation.NewError("validation_points", "required_points must be at least 1")
	}
	return nil
}

// UpdatePromotionRequest edits a voucher definition (admin)
type UpdatePromotionRequest struct {
	Description       *string          `json:"description"`
	MaxUsage          *int             `json:"max_usage"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user"`
	StartsAt          *time.Time       `json:"starts_at"`
	EndsAt            *time.Time       `json:"ends_at"`
	MaxDiscount       *decimal.Decimal `json:"max_discount"`
	MinOrderValue     *decimal.Decimal `json:"min_order_value"`
}

// EvaluateRequest asks whether a code would apply to a total
type EvaluateRequest struct {
	Code  string          `json:"code"`
	Total decimal.Decimal `json:"total"`
}

func (r EvaluateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Total, validation.By(nonNegativeDecimal)),
	)
}

// RedeemRequest buys one usage charge with loyalty points
type RedeemRequest struct {
	Code string `json:"code"`
}

func (r RedeemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 50)),
	)
}

func positiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_invalid", "must be a decimal number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return validation.NewError("validation_positive", "must be greater than zero")
	}
	return nil
}

func nonNegativeDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_invalid", "must be a decimal number")
	}
	if d.IsNegative() {
		return validation.NewError("validation_non_negative", "must not be negative")
	}
	return nil
}
