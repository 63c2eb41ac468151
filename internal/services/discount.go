package services

import (
	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// DiscountResult is the outcome of applying a promo code to an order amount
type DiscountResult struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// ComputeDiscount calculates the discount a promo code yields on an order.
// The caller is responsible for having validated the code against the order
// first; this function only does the arithmetic.
//
// Percentage discounts are clamped to MaxDiscount when set; every discount
// is clamped to the order amount so the final amount can never go negative.
// Results are rounded half-up to cents.
func ComputeDiscount(promo *models.PromoCode, orderAmount decimal.Decimal) DiscountResult {
	var discount decimal.Decimal

	switch promo.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount.Mul(promo.DiscountValue).Div(oneHundred)
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}
	case models.DiscountFixedAmount:
		discount = promo.DiscountValue
	}

	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	discount = discount.Round(2)

	return DiscountResult{
		DiscountAmount: discount,
		FinalAmount:    orderAmount.Sub(discount),
	}
}

// ComputeCommission calculates the commission owed on a subscription amount
// at the given percentage rate, rounded half-up to cents.
func ComputeCommission(subscriptionAmount, rate decimal.Decimal) decimal.Decimal {
	return subscriptionAmount.Mul(rate).Div(oneHundred).Round(2)
}
