package services

import (
	"fmt"
	"log"

	"coaching-platform/internal/models"
)

// PromoCodeService handles promo code administration. Creation and updates
// trigger a best-effort coupon mirror into the payment processor; a mirror
// failure never rolls back the local write.
type PromoCodeService struct {
	promoRepo  PromoCodeStore
	couponSync *CouponSyncService
}

// NewPromoCodeService creates a new promo code service
func NewPromoCodeService(promoRepo PromoCodeStore, couponSync *CouponSyncService) *PromoCodeService {
	return &PromoCodeService{
		promoRepo:  promoRepo,
		couponSync: couponSync,
	}
}

// CreatePromoCode creates a promo code and mirrors it into the processor
func (s *PromoCodeService) CreatePromoCode(req *models.PromoCodeCreateRequest) (*models.PromoCode, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo, err := s.promoRepo.Create(req)
	if err != nil {
		return nil, err
	}

	if s.couponSync != nil {
		if err := s.couponSync.SyncPromoCode(promo); err != nil {
			log.Printf("Warning: coupon sync failed for promo code %s: %v", promo.Code, err)
		}
	}

	return promo, nil
}

// GetPromoCode retrieves a promo code by ID
func (s *PromoCodeService) GetPromoCode(id int) (*models.PromoCode, error) {
	return s.promoRepo.GetByID(id)
}

// GetPromoCodes retrieves promo codes with pagination
func (s *PromoCodeService) GetPromoCodes(page, limit int, status string) ([]*models.PromoCode, int, error) {
	offset := (page - 1) * limit
	return s.promoRepo.GetAll(limit, offset, status)
}

// UpdatePromoCode applies an admin edit and re-mirrors the code
func (s *PromoCodeService) UpdatePromoCode(id int, req *models.PromoCodeUpdateRequest) (*models.PromoCode, error) {
	promo, err := s.promoRepo.Update(id, req)
	if err != nil {
		return nil, err
	}

	if s.couponSync != nil {
		if err := s.couponSync.SyncPromoCode(promo); err != nil {
			log.Printf("Warning: coupon sync failed for promo code %s: %v", promo.Code, err)
		}
	}

	return promo, nil
}

// DeletePromoCode removes a promo code. A code that has been redeemed is
// soft-disabled instead of hard-deleted so its commission history stays
// attributable.
func (s *PromoCodeService) DeletePromoCode(id int) error {
	err := s.promoRepo.Delete(id)
	if err == models.ErrPromoCodeInUse {
		if deactivateErr := s.promoRepo.Deactivate(id); deactivateErr != nil {
			return fmt.Errorf("failed to deactivate used promo code: %w", deactivateErr)
		}
		return nil
	}
	return err
}

// DeactivatePromoCode soft-disables a promo code
func (s *PromoCodeService) DeactivatePromoCode(id int) error {
	return s.promoRepo.Deactivate(id)
}
