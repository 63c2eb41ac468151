package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// WithdrawalRepository handles withdrawal data operations, including the
// payout transaction that moves balance from available to withdrawn.
type WithdrawalRepository struct {
	db *sql.DB
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `id, influencer_id, amount, status, bank_snapshot,
	rejection_reason, payout_id, requested_at, processed_at, created_at, updated_at`

func scanWithdrawal(row rowScanner, extra ...interface{}) (*models.Withdrawal, error) {
	withdrawal := &models.Withdrawal{}
	var bankSnapshot []byte
	var processedAt sql.NullTime

	dest := []interface{}{
		&withdrawal.ID,
		&withdrawal.InfluencerID,
		&withdrawal.Amount,
		&withdrawal.Status,
		&bankSnapshot,
		&withdrawal.RejectionReason,
		&withdrawal.PayoutID,
		&withdrawal.RequestedAt,
		&processedAt,
		&withdrawal.CreatedAt,
		&withdrawal.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(bankSnapshot, &withdrawal.Bank); err != nil {
		return nil, fmt.Errorf("failed to decode bank snapshot: %w", err)
	}
	if processedAt.Valid {
		withdrawal.ProcessedAt = &processedAt.Time
	}

	return withdrawal, nil
}

// Create files a new withdrawal request with a point-in-time bank snapshot
func (r *WithdrawalRepository) Create(influencerID int, amount decimal.Decimal, bank models.BankAccount) (*models.Withdrawal, error) {
	snapshot, err := json.Marshal(bank)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank snapshot: %w", err)
	}

	query := `
		INSERT INTO withdrawals (influencer_id, amount, bank_snapshot, requested_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + withdrawalColumns

	withdrawal, err := scanWithdrawal(r.db.QueryRow(query, influencerID, amount, snapshot, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	return withdrawal, nil
}

// GetByID retrieves a withdrawal with its influencer
func (r *WithdrawalRepository) GetByID(id int) (*models.Withdrawal, error) {
	query := `
		SELECT w.id, w.influencer_id, w.amount, w.status, w.bank_snapshot,
		       w.rejection_reason, w.payout_id, w.requested_at, w.processed_at, w.created_at, w.updated_at,
		       i.first_name, i.last_name, i.email
		FROM withdrawals w
		JOIN influencers i ON w.influencer_id = i.id
		WHERE w.id = $1`

	influencer := &models.Influencer{}
	withdrawal, err := scanWithdrawal(r.db.QueryRow(query, id),
		&influencer.FirstName, &influencer.LastName, &influencer.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}

	influencer.ID = withdrawal.InfluencerID
	withdrawal.Influencer = influencer
	return withdrawal, nil
}

// GetByInfluencer retrieves withdrawals for one influencer, newest first
func (r *WithdrawalRepository) GetByInfluencer(influencerID int, limit, offset int) ([]*models.Withdrawal, int, error) {
	var totalCount int
	err := r.db.QueryRow("SELECT COUNT(*) FROM withdrawals WHERE influencer_id = $1", influencerID).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get withdrawal count: %w", err)
	}

	query := `SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE influencer_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(query, influencerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, withdrawal)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating withdrawals: %w", err)
	}

	return withdrawals, totalCount, nil
}

// GetAll retrieves withdrawals with pagination and an optional status
// filter, with requester details, for the admin queue.
func (r *WithdrawalRepository) GetAll(limit, offset int, status string) ([]*models.Withdrawal, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		whereClause = "WHERE w.status = $1"
		args = append(args, status)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM withdrawals w %s", whereClause)
	var totalCount int
	if err := r.db.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to get withdrawal count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT w.id, w.influencer_id, w.amount, w.status, w.bank_snapshot,
		       w.rejection_reason, w.payout_id, w.requested_at, w.processed_at, w.created_at, w.updated_at,
		       i.first_name, i.last_name, i.email
		FROM withdrawals w
		JOIN influencers i ON w.influencer_id = i.id
		%s
		ORDER BY w.requested_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		influencer := &models.Influencer{}
		withdrawal, err := scanWithdrawal(rows, &influencer.FirstName, &influencer.LastName, &influencer.Email)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		influencer.ID = withdrawal.InfluencerID
		withdrawal.Influencer = influencer
		withdrawals = append(withdrawals, withdrawal)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating withdrawals: %w", err)
	}

	return withdrawals, totalCount, nil
}

// ResolvePending transitions a pending withdrawal to approved or rejected.
// The status guard in the WHERE clause rejects double decisions.
func (r *WithdrawalRepository) ResolvePending(id int, status models.WithdrawalStatus, reason string) error {
	query := `
		UPDATE withdrawals
		SET status = $2, rejection_reason = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Exec(query, id, status, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to resolve withdrawal: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, getErr := r.GetByID(id); getErr != nil {
			return getErr
		}
		return models.ErrInvalidTransition
	}
	return nil
}

// MarkPaid finalizes a payout: in one transaction it debits the influencer's
// available balance (conditional on sufficient funds), credits total
// withdrawn, and flips the withdrawal from approved to paid.
//
// The conditional debit is what prevents two approved withdrawals from
// double-spending the same balance: the second transaction sees zero
// affected rows and rolls back, leaving its withdrawal approved.
func (r *WithdrawalRepository) MarkPaid(id int, influencerID int, amount decimal.Decimal, payoutID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin payout transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE influencers
		SET available_balance = available_balance - $2,
		    total_withdrawn = total_withdrawn + $2,
		    updated_at = $3
		WHERE id = $1 AND available_balance >= $2`,
		influencerID, amount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to debit influencer balance: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var available decimal.Decimal
		if err := tx.QueryRow(`SELECT available_balance FROM influencers WHERE id = $1`,
			influencerID).Scan(&available); err != nil {
			return models.ErrInfluencerNotFound
		}
		return &models.InsufficientBalanceError{Requested: amount, Available: available}
	}

	now := time.Now()
	result, err = tx.Exec(`
		UPDATE withdrawals
		SET status = 'paid', payout_id = $2, processed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'approved'`,
		id, payoutID, now)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal paid: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.ErrInvalidTransition
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payout: %w", err)
	}
	return nil
}
