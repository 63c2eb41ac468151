package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// CommissionRepository handles commission queries and status transitions.
// Commissions are created only inside the redemption transaction
// (PromoCodeRepository.Redeem) or through Record for direct credits.
type CommissionRepository struct {
	db *sql.DB
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(db *sql.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

const commissionColumns = `id, influencer_id, promo_code_id, purchase_id, subscription_amount,
	commission_rate, commission_amount, status, paid_at, created_at, updated_at`

func scanCommission(row rowScanner) (*models.Commission, error) {
	commission := &models.Commission{}
	var paidAt sql.NullTime

	err := row.Scan(
		&commission.ID,
		&commission.InfluencerID,
		&commission.PromoCodeID,
		&commission.PurchaseID,
		&commission.SubscriptionAmount,
		&commission.CommissionRate,
		&commission.CommissionAmount,
		&commission.Status,
		&paidAt,
		&commission.CreatedAt,
		&commission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		commission.PaidAt = &paidAt.Time
	}

	return commission, nil
}

// GetByID retrieves a commission by ID
func (r *CommissionRepository) GetByID(id int) (*models.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE id = $1`

	commission, err := scanCommission(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	return commission, nil
}

// GetByPurchaseID retrieves a commission by its purchase reference
func (r *CommissionRepository) GetByPurchaseID(purchaseID string) (*models.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE purchase_id = $1`

	commission, err := scanCommission(r.db.QueryRow(query, purchaseID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	return commission, nil
}

// GetByInfluencer retrieves commissions for an influencer, newest first
func (r *CommissionRepository) GetByInfluencer(influencerID int, limit, offset int) ([]*models.Commission, int, error) {
	var totalCount int
	err := r.db.QueryRow("SELECT COUNT(*) FROM commissions WHERE influencer_id = $1", influencerID).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get commission count: %w", err)
	}

	query := `SELECT ` + commissionColumns + `
		FROM commissions
		WHERE influencer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(query, influencerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var commissions []*models.Commission
	for rows.Next() {
		commission, err := scanCommission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan commission: %w", err)
		}
		commissions = append(commissions, commission)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating commissions: %w", err)
	}

	return commissions, totalCount, nil
}

// UpdateStatus transitions a commission from one status to another. The
// WHERE clause on the prior status makes concurrent transitions race-safe:
// only one update can win.
func (r *CommissionRepository) UpdateStatus(id int, from, to models.CommissionStatus) error {
	query := `
		UPDATE commissions
		SET status = $3,
		    paid_at = CASE WHEN $3 = 'paid' THEN $4 ELSE paid_at END,
		    updated_at = $4
		WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(query, id, from, to, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update commission status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

// Record inserts a commission and credits the influencer's balances in one
// transaction, for credits that do not flow through a promo code redemption.
func (r *CommissionRepository) Record(influencerID, promoCodeID int, purchaseID string,
	subscriptionAmount, rate, amount decimal.Decimal) (*models.Commission, error) {

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin commission transaction: %w", err)
	}
	defer tx.Rollback()

	commission := &models.Commission{
		InfluencerID:       influencerID,
		PromoCodeID:        promoCodeID,
		PurchaseID:         purchaseID,
		SubscriptionAmount: subscriptionAmount,
		CommissionRate:     rate,
		CommissionAmount:   amount,
	}

	err = tx.QueryRow(`
		INSERT INTO commissions (influencer_id, promo_code_id, purchase_id,
		                         subscription_amount, commission_rate, commission_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, updated_at`,
		influencerID, promoCodeID, purchaseID, subscriptionAmount, rate, amount,
	).Scan(&commission.ID, &commission.Status, &commission.CreatedAt, &commission.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to insert commission: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE influencers
		SET total_earnings = total_earnings + $2,
		    available_balance = available_balance + $2,
		    updated_at = $3
		WHERE id = $1`,
		influencerID, amount, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to credit influencer balance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit commission: %w", err)
	}

	return commission, nil
}
