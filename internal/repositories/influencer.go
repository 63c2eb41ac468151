package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"coaching-platform/internal/models"
)

// InfluencerRepository handles influencer data operations. Balance fields are
// never written here directly; they change only inside the redemption and
// payout transactions.
type InfluencerRepository struct {
	db *sql.DB
}

// NewInfluencerRepository creates a new influencer repository
func NewInfluencerRepository(db *sql.DB) *InfluencerRepository {
	return &InfluencerRepository{db: db}
}

const influencerColumns = `id, first_name, last_name, email, status,
	routing_number, account_number, bank_name, holder_name, account_type,
	total_earnings, available_balance, total_withdrawn, created_at, updated_at`

func scanInfluencer(row rowScanner) (*models.Influencer, error) {
	influencer := &models.Influencer{}
	err := row.Scan(
		&influencer.ID,
		&influencer.FirstName,
		&influencer.LastName,
		&influencer.Email,
		&influencer.Status,
		&influencer.Bank.RoutingNumber,
		&influencer.Bank.AccountNumber,
		&influencer.Bank.BankName,
		&influencer.Bank.HolderName,
		&influencer.Bank.AccountType,
		&influencer.TotalEarnings,
		&influencer.AvailableBalance,
		&influencer.TotalWithdrawn,
		&influencer.CreatedAt,
		&influencer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return influencer, nil
}

// Create creates a new influencer in pending status
func (r *InfluencerRepository) Create(req *models.InfluencerCreateRequest) (*models.Influencer, error) {
	query := `
		INSERT INTO influencers (first_name, last_name, email,
		                         routing_number, account_number, bank_name, holder_name, account_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + influencerColumns

	influencer, err := scanInfluencer(r.db.QueryRow(query,
		req.FirstName, req.LastName, req.Email,
		req.Bank.RoutingNumber, req.Bank.AccountNumber, req.Bank.BankName,
		req.Bank.HolderName, req.Bank.AccountType,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to create influencer: %w", err)
	}

	return influencer, nil
}

// GetByID retrieves an influencer by ID
func (r *InfluencerRepository) GetByID(id int) (*models.Influencer, error) {
	query := `SELECT ` + influencerColumns + ` FROM influencers WHERE id = $1`

	influencer, err := scanInfluencer(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrInfluencerNotFound
		}
		return nil, fmt.Errorf("failed to get influencer: %w", err)
	}

	return influencer, nil
}

// UpdateStatus updates an influencer's onboarding status
func (r *InfluencerRepository) UpdateStatus(id int, status models.InfluencerStatus) error {
	result, err := r.db.Exec(`UPDATE influencers SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update influencer status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.ErrInfluencerNotFound
	}
	return nil
}

// UpdateBank replaces the influencer's bank details. Withdrawal requests
// already filed keep their own snapshot.
func (r *InfluencerRepository) UpdateBank(id int, bank models.BankAccount) error {
	result, err := r.db.Exec(`
		UPDATE influencers
		SET routing_number = $2, account_number = $3, bank_name = $4,
		    holder_name = $5, account_type = $6, updated_at = $7
		WHERE id = $1`,
		id, bank.RoutingNumber, bank.AccountNumber, bank.BankName,
		bank.HolderName, bank.AccountType, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update bank details: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.ErrInfluencerNotFound
	}
	return nil
}

// GetBalance returns the influencer's balance aggregates
func (r *InfluencerRepository) GetBalance(id int) (*models.BalanceSummary, error) {
	summary := &models.BalanceSummary{InfluencerID: id}

	err := r.db.QueryRow(`
		SELECT total_earnings, available_balance, total_withdrawn
		FROM influencers WHERE id = $1`, id).Scan(
		&summary.TotalEarnings,
		&summary.AvailableBalance,
		&summary.TotalWithdrawn,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrInfluencerNotFound
		}
		return nil, fmt.Errorf("failed to get influencer balance: %w", err)
	}

	return summary, nil
}
