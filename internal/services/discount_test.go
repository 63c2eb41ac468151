package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"coaching-platform/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeDiscount_Percentage(t *testing.T) {
	tests := []struct {
		name         string
		promo        *models.PromoCode
		orderAmount  string
		wantDiscount string
		wantFinal    string
	}{
		{
			name: "20 percent capped by max discount",
			promo: &models.PromoCode{
				DiscountType:  models.DiscountPercentage,
				DiscountValue: dec("20"),
				MaxDiscount:   decPtr("5.00"),
			},
			orderAmount:  "30.00",
			wantDiscount: "5.00",
			wantFinal:    "25.00",
		},
		{
			name: "20 percent under the cap",
			promo: &models.PromoCode{
				DiscountType:  models.DiscountPercentage,
				DiscountValue: dec("20"),
				MaxDiscount:   decPtr("10.00"),
			},
			orderAmount:  "30.00",
			wantDiscount: "6.00",
			wantFinal:    "24.00",
		},
		{
			name: "no cap",
			promo: &models.PromoCode{
				DiscountType:  models.DiscountPercentage,
				DiscountValue: dec("50"),
			},
			orderAmount:  "80.00",
			wantDiscount: "40.00",
			wantFinal:    "40.00",
		},
		{
			name: "rounds to cents half up",
			promo: &models.PromoCode{
				DiscountType:  models.DiscountPercentage,
				DiscountValue: dec("15"),
			},
			orderAmount:  "33.33",
			// 15% of 33.33 = 4.9995 -> 5.00
			wantDiscount: "5.00",
			wantFinal:    "28.33",
		},
		{
			name: "100 percent discounts the full order",
			promo: &models.PromoCode{
				DiscountType:  models.DiscountPercentage,
				DiscountValue: dec("100"),
			},
			orderAmount:  "49.99",
			wantDiscount: "49.99",
			wantFinal:    "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeDiscount(tt.promo, dec(tt.orderAmount))
			assert.True(t, result.DiscountAmount.Equal(dec(tt.wantDiscount)),
				"discount = %s, want %s", result.DiscountAmount, tt.wantDiscount)
			assert.True(t, result.FinalAmount.Equal(dec(tt.wantFinal)),
				"final = %s, want %s", result.FinalAmount, tt.wantFinal)
		})
	}
}

func TestComputeDiscount_FixedAmount(t *testing.T) {
	t.Run("straight subtraction", func(t *testing.T) {
		promo := &models.PromoCode{
			DiscountType:  models.DiscountFixedAmount,
			DiscountValue: dec("10.00"),
		}

		result := ComputeDiscount(promo, dec("45.00"))
		assert.True(t, result.DiscountAmount.Equal(dec("10.00")))
		assert.True(t, result.FinalAmount.Equal(dec("35.00")))
	})

	t.Run("clamped to order amount", func(t *testing.T) {
		promo := &models.PromoCode{
			DiscountType:  models.DiscountFixedAmount,
			DiscountValue: dec("50.00"),
		}

		result := ComputeDiscount(promo, dec("30.00"))
		assert.True(t, result.DiscountAmount.Equal(dec("30.00")),
			"discount must not exceed the order amount")
		assert.True(t, result.FinalAmount.IsZero(),
			"final amount must never go negative, got %s", result.FinalAmount)
	})
}

func TestComputeCommission(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"default rate", "100.00", "10", "10.00"},
		{"custom rate", "49.99", "15", "7.50"},   // 7.4985 rounds up
		{"half cent rounds up", "50.10", "15", "7.52"}, // 7.515
		{"zero rate", "100.00", "0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCommission(dec(tt.amount), dec(tt.rate))
			assert.True(t, got.Equal(dec(tt.want)), "commission = %s, want %s", got, tt.want)
		})
	}
}
