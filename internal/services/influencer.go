package services

import (
	"coaching-platform/internal/bank"
	"coaching-platform/internal/models"
)

// InfluencerService handles influencer onboarding and bank detail upkeep
type InfluencerService struct {
	influencerRepo InfluencerStore
}

// NewInfluencerService creates a new influencer service
func NewInfluencerService(influencerRepo InfluencerStore) *InfluencerService {
	return &InfluencerService{influencerRepo: influencerRepo}
}

// CreateInfluencer onboards an influencer in pending status. Bank details
// are validated up front when provided; they can also be added later, but
// must be valid before any withdrawal is accepted.
func (s *InfluencerService) CreateInfluencer(req *models.InfluencerCreateRequest) (*models.Influencer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Bank != (models.BankAccount{}) {
		if result := bank.ValidateAccount(req.Bank); !result.Valid {
			return nil, &models.BankValidationError{Reasons: result.Errors}
		}
	}

	return s.influencerRepo.Create(req)
}

// GetInfluencer retrieves an influencer by ID
func (s *InfluencerService) GetInfluencer(id int) (*models.Influencer, error) {
	return s.influencerRepo.GetByID(id)
}

// ApproveInfluencer marks an influencer approved
func (s *InfluencerService) ApproveInfluencer(id int) error {
	return s.influencerRepo.UpdateStatus(id, models.InfluencerStatusApproved)
}

// RejectInfluencer marks an influencer rejected
func (s *InfluencerService) RejectInfluencer(id int) error {
	return s.influencerRepo.UpdateStatus(id, models.InfluencerStatusRejected)
}

// UpdateBankDetails replaces the influencer's bank details after validating
// them. Filed withdrawal requests keep their original snapshot.
func (s *InfluencerService) UpdateBankDetails(id int, account models.BankAccount) error {
	if result := bank.ValidateAccount(account); !result.Valid {
		return &models.BankValidationError{Reasons: result.Errors}
	}
	return s.influencerRepo.UpdateBank(id, account)
}
