package service

import (
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/promotion/model"
)

// DiscountCalculator turns a voucher and a total into a final total.
// Pure arithmetic, no persistence.
type DiscountCalculator struct{}

func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

var hundred = decimal.NewFromInt(100)

// FinalTotal computes the total after the voucher is applied.
//
//   - fixed:         max(total - value, 0)
//   - percentage:    total * (1 - value/100)
//   - maxPercentage: total - min(total * value/100, max_discount)
//
// The result is never negative and never above the input total.
func (c *DiscountCalculator) FinalTotal(promo *model.Promotion, total decimal.Decimal) decimal.Decimal {
	discount := c.Discount(promo, total)
	final := total.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// Discount computes the amount the voucher takes off
func (c *DiscountCalculator) Discount(promo *model.Promotion, total decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch promo.DiscountType {
	case model.DiscountTypeFixed:
		discount = promo.DiscountValue

	case model.DiscountTypePercentage:
		discount = total.Mul(promo.DiscountValue).Div(hundred)

	case model.DiscountTypeMaxPercentage:
		discount = total.Mul(promo.DiscountValue).Div(hundred)
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}

	default:
		return decimal.Zero
	}

	// Never take off more than the bill itself
	if discount.GreaterThan(total) {
		discount = total
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}
