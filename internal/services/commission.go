package services

import (
	"log"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// CommissionService is the commission ledger: it owns commission records and
// the influencer balance aggregates they feed.
//
// Commission status tracks eligibility for payout batching and is deliberately
// independent of the withdrawal pipeline: marking a commission paid stamps
// paid_at but moves no money — cash movement happens only when a withdrawal
// request is processed.
type CommissionService struct {
	commissionRepo CommissionStore
	influencerRepo InfluencerStore
	notifier       Notifier
}

// NewCommissionService creates a new commission service
func NewCommissionService(commissionRepo CommissionStore, influencerRepo InfluencerStore, notifier Notifier) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		influencerRepo: influencerRepo,
		notifier:       notifier,
	}
}

// RecordCommission credits an influencer directly, outside the promo code
// redemption path. The commission insert and the balance increment share one
// transaction in the repository.
func (s *CommissionService) RecordCommission(influencerID, promoCodeID int, purchaseID string,
	subscriptionAmount, rate decimal.Decimal) (*models.Commission, error) {

	amount := ComputeCommission(subscriptionAmount, rate)

	commission, err := s.commissionRepo.Record(influencerID, promoCodeID, purchaseID,
		subscriptionAmount, rate, amount)
	if err != nil {
		if err == models.ErrDuplicateEntry {
			return s.commissionRepo.GetByPurchaseID(purchaseID)
		}
		return nil, err
	}

	s.notifyEarned(commission)
	return commission, nil
}

// GetCommission retrieves a commission by ID
func (s *CommissionService) GetCommission(id int) (*models.Commission, error) {
	return s.commissionRepo.GetByID(id)
}

// GetInfluencerCommissions retrieves an influencer's commissions
func (s *CommissionService) GetInfluencerCommissions(influencerID int, page, limit int) ([]*models.Commission, int, error) {
	offset := (page - 1) * limit
	return s.commissionRepo.GetByInfluencer(influencerID, limit, offset)
}

// GetInfluencerBalance returns the influencer's balance aggregates
func (s *CommissionService) GetInfluencerBalance(influencerID int) (*models.BalanceSummary, error) {
	return s.influencerRepo.GetBalance(influencerID)
}

// UpdateCommissionStatus transitions a commission along
// pending -> approved -> paid. The transition is checked against the current
// status and applied with a guard on it, so concurrent updates cannot both win.
func (s *CommissionService) UpdateCommissionStatus(id int, status models.CommissionStatus) (*models.Commission, error) {
	commission, err := s.commissionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !commission.CanTransitionTo(status) {
		return nil, models.ErrInvalidTransition
	}

	if err := s.commissionRepo.UpdateStatus(id, commission.Status, status); err != nil {
		return nil, err
	}

	return s.commissionRepo.GetByID(id)
}

// NotifyEarned sends the commission-earned email for a redemption recorded
// elsewhere. Failures are logged, never returned.
func (s *CommissionService) NotifyEarned(commission *models.Commission) {
	s.notifyEarned(commission)
}

func (s *CommissionService) notifyEarned(commission *models.Commission) {
	if s.notifier == nil || commission == nil {
		return
	}

	influencer, err := s.influencerRepo.GetByID(commission.InfluencerID)
	if err != nil {
		log.Printf("Warning: failed to load influencer %d for commission email: %v", commission.InfluencerID, err)
		return
	}

	err = s.notifier.Send(TemplateCommissionEarned, influencer.Email, map[string]string{
		"name":   influencer.FullName(),
		"amount": commission.CommissionAmount.StringFixed(2),
	})
	if err != nil {
		log.Printf("Warning: failed to send commission email to %s: %v", influencer.Email, err)
	}
}
