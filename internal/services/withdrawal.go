package services

import (
	"errors"
	"fmt"
	"log"

	"coaching-platform/internal/bank"
	"coaching-platform/internal/models"
)

// WithdrawalService manages the withdrawal pipeline:
// pending -> approved -> paid, or pending -> rejected.
type WithdrawalService struct {
	withdrawalRepo WithdrawalStore
	influencerRepo InfluencerStore
	processor      ProcessorClient
	notifier       Notifier
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(withdrawalRepo WithdrawalStore, influencerRepo InfluencerStore,
	processor ProcessorClient, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		influencerRepo: influencerRepo,
		processor:      processor,
		notifier:       notifier,
	}
}

// RequestWithdrawal files a withdrawal request. The request is rejected when
// the amount is below the floor, exceeds the available balance, or the
// influencer's bank details fail validation — every bank failure is reported,
// not just the first. The bank details are snapshotted onto the request.
//
// No balance moves at request time: funds leave the balance only when the
// request is processed.
func (s *WithdrawalService) RequestWithdrawal(influencerID int, req *models.WithdrawalCreateRequest) (*models.Withdrawal, error) {
	if req.Amount.LessThan(models.MinWithdrawalAmount) {
		return nil, &ValidationError{
			Reason:  "BELOW_MINIMUM",
			Message: fmt.Sprintf("minimum withdrawal amount is %s", models.MinWithdrawalAmount.StringFixed(2)),
		}
	}

	influencer, err := s.influencerRepo.GetByID(influencerID)
	if err != nil {
		return nil, err
	}

	if req.Amount.GreaterThan(influencer.AvailableBalance) {
		return nil, &models.InsufficientBalanceError{
			Requested: req.Amount,
			Available: influencer.AvailableBalance,
		}
	}

	if result := bank.ValidateAccount(influencer.Bank); !result.Valid {
		return nil, &models.BankValidationError{Reasons: result.Errors}
	}

	return s.withdrawalRepo.Create(influencerID, req.Amount, influencer.Bank)
}

// ApproveWithdrawal approves a pending withdrawal. No balance change yet.
func (s *WithdrawalService) ApproveWithdrawal(id int) error {
	if err := s.withdrawalRepo.ResolvePending(id, models.WithdrawalStatusApproved, ""); err != nil {
		return err
	}
	s.notifyStatus(id, TemplateWithdrawalApproved)
	return nil
}

// RejectWithdrawal rejects a pending withdrawal with a reason
func (s *WithdrawalService) RejectWithdrawal(id int, reason string) error {
	if reason == "" {
		return models.ErrInvalidInput
	}
	if err := s.withdrawalRepo.ResolvePending(id, models.WithdrawalStatusRejected, reason); err != nil {
		return err
	}
	s.notifyStatus(id, TemplateWithdrawalRejected)
	return nil
}

// ProcessWithdrawal pays out an approved withdrawal.
//
// Ordering matters here: the payout call happens first, with no database
// locks held, carrying the withdrawal reference as the processor idempotency
// key so a crashed or repeated process cannot double-pay. Only after the
// processor accepts does one local transaction re-check the balance, debit
// it, and flip the request to paid. A payout failure leaves the request
// approved and balances untouched, so processing can be retried.
func (s *WithdrawalService) ProcessWithdrawal(id int) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != models.WithdrawalStatusApproved {
		return nil, models.ErrInvalidTransition
	}

	// Fail fast before touching the processor if the balance has already
	// shrunk below the requested amount.
	summary, err := s.influencerRepo.GetBalance(withdrawal.InfluencerID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Amount.GreaterThan(summary.AvailableBalance) {
		return nil, &models.InsufficientBalanceError{
			Requested: withdrawal.Amount,
			Available: summary.AvailableBalance,
		}
	}

	payout, err := s.processor.CreatePayout(&PayoutRequest{
		DestinationAccount: withdrawal.Bank.AccountNumber,
		Amount:             withdrawal.Amount,
		Note:               fmt.Sprintf("Influencer withdrawal #%d", withdrawal.ID),
		IdempotencyKey:     fmt.Sprintf("withdrawal-%d", withdrawal.ID),
	})
	if err != nil {
		return nil, &models.ExternalServiceError{Op: "payout", Err: err}
	}

	err = s.withdrawalRepo.MarkPaid(withdrawal.ID, withdrawal.InfluencerID, withdrawal.Amount, payout.ID)
	if err != nil {
		var insufficient *models.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			// The balance shrank between the pre-check and the debit — a
			// concurrent withdrawal completed first. The payout was already
			// issued under our idempotency key; leave the request approved
			// and surface the conflict for manual reconciliation.
			log.Printf("Warning: payout %s for withdrawal %d issued but balance debit failed: %v",
				payout.ID, withdrawal.ID, err)
		}
		return nil, err
	}

	s.notifyStatus(id, TemplateWithdrawalPaid)
	return s.withdrawalRepo.GetByID(id)
}

// GetWithdrawal retrieves a withdrawal by ID
func (s *WithdrawalService) GetWithdrawal(id int) (*models.Withdrawal, error) {
	return s.withdrawalRepo.GetByID(id)
}

// GetInfluencerWithdrawals retrieves withdrawals for an influencer
func (s *WithdrawalService) GetInfluencerWithdrawals(influencerID int, page, limit int) ([]*models.Withdrawal, int, error) {
	offset := (page - 1) * limit
	return s.withdrawalRepo.GetByInfluencer(influencerID, limit, offset)
}

// GetAllWithdrawals retrieves the admin withdrawal queue
func (s *WithdrawalService) GetAllWithdrawals(page, limit int, status string) ([]*models.Withdrawal, int, error) {
	offset := (page - 1) * limit
	return s.withdrawalRepo.GetAll(limit, offset, status)
}

func (s *WithdrawalService) notifyStatus(id int, template string) {
	if s.notifier == nil {
		return
	}

	withdrawal, err := s.withdrawalRepo.GetByID(id)
	if err != nil || withdrawal.Influencer == nil {
		return
	}

	err = s.notifier.Send(template, withdrawal.Influencer.Email, map[string]string{
		"name":   withdrawal.Influencer.FullName(),
		"amount": withdrawal.Amount.StringFixed(2),
		"reason": withdrawal.RejectionReason,
	})
	if err != nil {
		log.Printf("Warning: failed to send withdrawal email for request %d: %v", id, err)
	}
}
