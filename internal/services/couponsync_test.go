package services

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coaching-platform/internal/models"
)

func TestCouponSyncService_SyncPromoCode(t *testing.T) {
	t.Run("first sync creates coupon and promotion code", func(t *testing.T) {
		store := newMockPromoStore()
		processor := NewMockProcessorService("secret")
		service := NewCouponSyncService(processor, store)

		promo := store.add(&models.PromoCode{
			Code:          "SAVE20",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: dec("20"),
			UsageLimit:    intPtr(50),
		})

		require.NoError(t, service.SyncPromoCode(promo))
		assert.Equal(t, 1, processor.CouponCount())

		codes, err := processor.ListPromotionCodes()
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, "SAVE20", codes[0].Code)
		assert.Equal(t, 50, codes[0].MaxRedemptions)
		assert.Equal(t, float64(20), codes[0].Coupon.PercentOff)
	})

	t.Run("repeat sync is a no-op", func(t *testing.T) {
		store := newMockPromoStore()
		processor := NewMockProcessorService("secret")
		service := NewCouponSyncService(processor, store)

		promo := store.add(&models.PromoCode{
			Code:          "SAVE20",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: dec("20"),
		})

		require.NoError(t, service.SyncPromoCode(promo))
		require.NoError(t, service.SyncPromoCode(promo))

		assert.Equal(t, 1, processor.CouponCount())
		codes, err := processor.ListPromotionCodes()
		require.NoError(t, err)
		assert.Len(t, codes, 1)
	})

	t.Run("fixed amount maps to amount-off coupon", func(t *testing.T) {
		store := newMockPromoStore()
		processor := NewMockProcessorService("secret")
		service := NewCouponSyncService(processor, store)

		promo := store.add(&models.PromoCode{
			Code:          "TENOFF",
			DiscountType:  models.DiscountFixedAmount,
			DiscountValue: dec("10.00"),
		})

		require.NoError(t, service.SyncPromoCode(promo))

		codes, err := processor.ListPromotionCodes()
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, int64(1000), codes[0].Coupon.AmountOff)
		assert.Equal(t, "usd", codes[0].Coupon.Currency)
	})

	t.Run("reuses a coupon left by an interrupted sync", func(t *testing.T) {
		store := newMockPromoStore()
		processor := NewMockProcessorService("secret")
		service := NewCouponSyncService(processor, store)

		promo := store.add(&models.PromoCode{
			Code:          "SAVE20",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: dec("20"),
		})

		// An earlier pass created the coupon but died before the
		// promotion code.
		percent := dec("20")
		orphan, err := processor.CreateCoupon(&CouponCreateRequest{
			PercentOff: &percent,
			Metadata:   map[string]string{"promo_code_id": strconv.Itoa(promo.ID)},
		})
		require.NoError(t, err)

		require.NoError(t, service.SyncPromoCode(promo))

		assert.Equal(t, 1, processor.CouponCount(), "no duplicate coupon")
		codes, err := processor.ListPromotionCodes()
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, orphan.ID, codes[0].Coupon.ID)
	})

	t.Run("listing failure propagates", func(t *testing.T) {
		store := newMockPromoStore()
		processor := NewMockProcessorService("secret")
		processor.FailListings = true
		service := NewCouponSyncService(processor, store)

		promo := store.add(&models.PromoCode{
			Code:          "SAVE20",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: dec("20"),
		})

		assert.Error(t, service.SyncPromoCode(promo))
		assert.Zero(t, processor.CouponCount())
	})
}

func TestCouponSyncService_ReconcileAll(t *testing.T) {
	store := newMockPromoStore()
	processor := NewMockProcessorService("secret")
	service := NewCouponSyncService(processor, store)

	store.add(&models.PromoCode{
		Code:          "ALPHA",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
	})
	store.add(&models.PromoCode{
		Code:          "BETA",
		DiscountType:  models.DiscountFixedAmount,
		DiscountValue: dec("5"),
	})
	store.add(&models.PromoCode{
		Code:          "RETIRED",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		Status:        models.PromoCodeStatusInactive,
	})

	synced, err := service.ReconcileAll()
	require.NoError(t, err)
	assert.Equal(t, 2, synced, "only active codes are mirrored")
	assert.Equal(t, 2, processor.CouponCount())

	// A second pass finds everything already mirrored.
	synced, err = service.ReconcileAll()
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, 2, processor.CouponCount())
}
