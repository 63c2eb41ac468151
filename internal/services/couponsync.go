package services

import (
	"fmt"
	"log"
	"strconv"

	"coaching-platform/internal/models"
)

// promoCodeMetadataKey is the metadata field on processor-side promotion
// codes that links them back to a local promo code. The processor does not
// dedupe by code string, so this is the identity the mirror searches on.
const promoCodeMetadataKey = "promo_code_id"

// CouponSyncService projects local promo codes into the payment processor's
// coupon and promotion code primitives. The projection is at-least-once and
// idempotent: repeated syncs of the same promo code find the existing
// promotion code by metadata and do nothing.
type CouponSyncService struct {
	processor ProcessorClient
	promoRepo PromoCodeStore
}

// NewCouponSyncService creates a new coupon sync service
func NewCouponSyncService(processor ProcessorClient, promoRepo PromoCodeStore) *CouponSyncService {
	return &CouponSyncService{
		processor: processor,
		promoRepo: promoRepo,
	}
}

// SyncPromoCode mirrors one promo code into the processor. Safe to call any
// number of times for the same code.
func (s *CouponSyncService) SyncPromoCode(promo *models.PromoCode) error {
	existing, err := s.processor.ListPromotionCodes()
	if err != nil {
		return fmt.Errorf("failed to list promotion codes: %w", err)
	}

	localID := strconv.Itoa(promo.ID)
	for _, code := range existing {
		if code.Metadata[promoCodeMetadataKey] == localID {
			return nil
		}
	}

	// A prior pass may have created the coupon and then failed before the
	// promotion code; reuse it rather than minting a duplicate.
	couponID, err := s.findCoupon(localID)
	if err != nil {
		return fmt.Errorf("failed to list coupons: %w", err)
	}

	if couponID == "" {
		couponReq := &CouponCreateRequest{
			Metadata: map[string]string{promoCodeMetadataKey: localID},
		}
		switch promo.DiscountType {
		case models.DiscountPercentage:
			value := promo.DiscountValue
			couponReq.PercentOff = &value
		case models.DiscountFixedAmount:
			value := promo.DiscountValue
			couponReq.AmountOff = &value
			couponReq.Currency = "usd"
		default:
			return fmt.Errorf("unknown discount type %q", promo.DiscountType)
		}

		coupon, err := s.processor.CreateCoupon(couponReq)
		if err != nil {
			return fmt.Errorf("failed to create coupon: %w", err)
		}
		couponID = coupon.ID
	}

	promoReq := &PromotionCodeCreateRequest{
		CouponID: couponID,
		Code:     promo.Code,
		Metadata: map[string]string{promoCodeMetadataKey: localID},
	}
	if promo.UsageLimit != nil {
		promoReq.MaxRedemptions = *promo.UsageLimit
	}

	if _, err := s.processor.CreatePromotionCode(promoReq); err != nil {
		return fmt.Errorf("failed to create promotion code: %w", err)
	}

	return nil
}

func (s *CouponSyncService) findCoupon(localID string) (string, error) {
	coupons, err := s.processor.ListCoupons()
	if err != nil {
		return "", err
	}
	for _, coupon := range coupons {
		if coupon.Metadata[promoCodeMetadataKey] == localID {
			return coupon.ID, nil
		}
	}
	return "", nil
}

// ReconcileAll re-mirrors every active promo code. Run periodically, this
// turns the best-effort sync on creation into a real at-least-once
// guarantee: codes whose initial sync failed get picked up on the next pass.
// Individual failures are logged and do not stop the pass.
func (s *CouponSyncService) ReconcileAll() (int, error) {
	promos, err := s.promoRepo.GetActive()
	if err != nil {
		return 0, fmt.Errorf("failed to load active promo codes: %w", err)
	}

	synced := 0
	for _, promo := range promos {
		if err := s.SyncPromoCode(promo); err != nil {
			log.Printf("Warning: coupon reconciliation failed for promo code %s: %v", promo.Code, err)
			continue
		}
		synced++
	}

	return synced, nil
}
