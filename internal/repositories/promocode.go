package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
)

// PromoCodeRepository owns promo code records, their usage counters, and the
// redemption transaction that ties a usage increment to its commission.
type PromoCodeRepository struct {
	db *sql.DB
}

// NewPromoCodeRepository creates a new promo code repository
func NewPromoCodeRepository(db *sql.DB) *PromoCodeRepository {
	return &PromoCodeRepository{db: db}
}

const promoCodeColumns = `id, code, discount_type, discount_value, max_discount, min_order_amount,
	usage_limit, used_count, valid_from, valid_until, status, influencer_id,
	commission_rate, total_commissions, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPromoCode(row rowScanner) (*models.PromoCode, error) {
	promo := &models.PromoCode{}
	var (
		maxDiscount    decimal.NullDecimal
		minOrderAmount decimal.NullDecimal
		usageLimit     sql.NullInt64
		validFrom      sql.NullTime
		validUntil     sql.NullTime
		influencerID   sql.NullInt64
	)

	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountType,
		&promo.DiscountValue,
		&maxDiscount,
		&minOrderAmount,
		&usageLimit,
		&promo.UsedCount,
		&validFrom,
		&validUntil,
		&promo.Status,
		&influencerID,
		&promo.CommissionRate,
		&promo.TotalCommissions,
		&promo.CreatedAt,
		&promo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if maxDiscount.Valid {
		promo.MaxDiscount = &maxDiscount.Decimal
	}
	if minOrderAmount.Valid {
		promo.MinOrderAmount = &minOrderAmount.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		promo.UsageLimit = &limit
	}
	if validFrom.Valid {
		promo.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		promo.ValidUntil = &validUntil.Time
	}
	if influencerID.Valid {
		id := int(influencerID.Int64)
		promo.InfluencerID = &id
	}

	return promo, nil
}

// Create creates a new promo code
func (r *PromoCodeRepository) Create(req *models.PromoCodeCreateRequest) (*models.PromoCode, error) {
	rate := models.DefaultCommissionRate
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}

	var maxDiscount, minOrderAmount decimal.NullDecimal
	if req.MaxDiscount != nil {
		maxDiscount = decimal.NullDecimal{Decimal: *req.MaxDiscount, Valid: true}
	}
	if req.MinOrderAmount != nil {
		minOrderAmount = decimal.NullDecimal{Decimal: *req.MinOrderAmount, Valid: true}
	}

	query := `
		INSERT INTO promo_codes (code, discount_type, discount_value, max_discount, min_order_amount,
		                         usage_limit, valid_from, valid_until, influencer_id, commission_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + promoCodeColumns

	row := r.db.QueryRow(query,
		req.Code, req.DiscountType, req.DiscountValue, maxDiscount, minOrderAmount,
		nullableInt(req.UsageLimit), nullableTime(req.ValidFrom), nullableTime(req.ValidUntil),
		nullableInt(req.InfluencerID), rate,
	)

	promo, err := scanPromoCode(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}

	return promo, nil
}

// GetByCode retrieves a promo code by its code string (case-sensitive)
func (r *PromoCodeRepository) GetByCode(code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE code = $1`

	promo, err := scanPromoCode(r.db.QueryRow(query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	return promo, nil
}

// GetByID retrieves a promo code by ID
func (r *PromoCodeRepository) GetByID(id int) (*models.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE id = $1`

	promo, err := scanPromoCode(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	return promo, nil
}

// GetAll retrieves promo codes with pagination and an optional status filter
func (r *PromoCodeRepository) GetAll(limit, offset int, status string) ([]*models.PromoCode, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		whereClause = "WHERE status = $1"
		args = append(args, status)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM promo_codes %s", whereClause)
	var totalCount int
	if err := r.db.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to get promo code count: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+promoCodeColumns+` FROM promo_codes %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query promo codes: %w", err)
	}
	defer rows.Close()

	var promos []*models.PromoCode
	for rows.Next() {
		promo, err := scanPromoCode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, promo)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating promo codes: %w", err)
	}

	return promos, totalCount, nil
}

// GetActive retrieves every active promo code, for the coupon
// reconciliation pass.
func (r *PromoCodeRepository) GetActive() ([]*models.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE status = 'active' ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active promo codes: %w", err)
	}
	defer rows.Close()

	var promos []*models.PromoCode
	for rows.Next() {
		promo, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, promo)
	}

	return promos, rows.Err()
}

// Update applies an admin edit. Usage counters are not touched here.
func (r *PromoCodeRepository) Update(id int, req *models.PromoCodeUpdateRequest) (*models.PromoCode, error) {
	query := `
		UPDATE promo_codes SET
			discount_value   = COALESCE($2, discount_value),
			max_discount     = COALESCE($3, max_discount),
			min_order_amount = COALESCE($4, min_order_amount),
			usage_limit      = COALESCE($5, usage_limit),
			valid_from       = COALESCE($6, valid_from),
			valid_until      = COALESCE($7, valid_until),
			status           = COALESCE($8, status),
			commission_rate  = COALESCE($9, commission_rate),
			updated_at       = $10
		WHERE id = $1
		RETURNING ` + promoCodeColumns

	row := r.db.QueryRow(query, id,
		nullableDecimal(req.DiscountValue), nullableDecimal(req.MaxDiscount), nullableDecimal(req.MinOrderAmount),
		nullableInt(req.UsageLimit), nullableTime(req.ValidFrom), nullableTime(req.ValidUntil),
		nullableStatus(req.Status), nullableDecimal(req.CommissionRate), time.Now(),
	)

	promo, err := scanPromoCode(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}

	return promo, nil
}

// Deactivate soft-disables a promo code without deleting it
func (r *PromoCodeRepository) Deactivate(id int) error {
	result, err := r.db.Exec(`UPDATE promo_codes SET status = 'inactive', updated_at = $2 WHERE id = $1`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.ErrPromoCodeNotFound
	}
	return nil
}

// Delete hard-deletes a promo code, but only while it has never been
// redeemed. Once used it must be deactivated instead.
func (r *PromoCodeRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM promo_codes WHERE id = $1 AND used_count = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Distinguish missing from in-use.
		if _, getErr := r.GetByID(id); getErr != nil {
			return getErr
		}
		return models.ErrPromoCodeInUse
	}
	return nil
}

// RedeemParams carries the pre-computed amounts for one redemption. Rate and
// commission amount are snapshots; they are stored as-is.
type RedeemParams struct {
	PurchaseID       string
	OrderAmount      decimal.Decimal
	DiscountAmount   decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
}

// Redeem consumes one usage slot of the promo code for the given purchase and,
// when the code has an owning influencer, records the commission and credits
// the influencer's balances — all in one transaction.
//
// The usage increment is a conditional UPDATE, so two concurrent redemptions
// racing for the last slot cannot both succeed: the loser sees zero affected
// rows and the transaction rolls back with ErrUsageLimitReached. The unique
// purchase_id on redemptions makes replays collapse onto the first attempt.
func (r *PromoCodeRepository) Redeem(promo *models.PromoCode, params RedeemParams) (*models.Redemption, *models.Commission, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin redemption transaction: %w", err)
	}
	defer tx.Rollback()

	// Claim a usage slot. Zero rows means the limit was hit, possibly by a
	// concurrent redemption that won the race.
	result, err := tx.Exec(`
		UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND status = 'active'
		  AND (usage_limit IS NULL OR used_count < usage_limit)`,
		promo.ID, time.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to increment usage count: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, nil, models.ErrUsageLimitReached
	}

	var commission *models.Commission
	var commissionID interface{}

	if promo.InfluencerID != nil {
		commission = &models.Commission{
			InfluencerID:       *promo.InfluencerID,
			PromoCodeID:        promo.ID,
			PurchaseID:         params.PurchaseID,
			SubscriptionAmount: params.OrderAmount,
			CommissionRate:     params.CommissionRate,
			CommissionAmount:   params.CommissionAmount,
			Status:             models.CommissionStatusPending,
		}

		err = tx.QueryRow(`
			INSERT INTO commissions (influencer_id, promo_code_id, purchase_id,
			                         subscription_amount, commission_rate, commission_amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (purchase_id) DO NOTHING
			RETURNING id, status, created_at, updated_at`,
			commission.InfluencerID, commission.PromoCodeID, commission.PurchaseID,
			commission.SubscriptionAmount, commission.CommissionRate, commission.CommissionAmount,
		).Scan(&commission.ID, &commission.Status, &commission.CreatedAt, &commission.UpdatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				// Another transaction already recorded this purchase.
				return nil, nil, models.ErrDuplicateEntry
			}
			return nil, nil, fmt.Errorf("failed to insert commission: %w", err)
		}
		commissionID = commission.ID

		// A commission must never exist without its balance update.
		_, err = tx.Exec(`
			UPDATE influencers
			SET total_earnings = total_earnings + $2,
			    available_balance = available_balance + $2,
			    updated_at = $3
			WHERE id = $1`,
			commission.InfluencerID, commission.CommissionAmount, time.Now())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to credit influencer balance: %w", err)
		}

		_, err = tx.Exec(`
			UPDATE promo_codes SET total_commissions = total_commissions + $2 WHERE id = $1`,
			promo.ID, commission.CommissionAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to accumulate promo code commissions: %w", err)
		}
	}

	redemption := &models.Redemption{
		PromoCodeID:    promo.ID,
		PurchaseID:     params.PurchaseID,
		OrderAmount:    params.OrderAmount,
		DiscountAmount: params.DiscountAmount,
	}

	err = tx.QueryRow(`
		INSERT INTO redemptions (promo_code_id, purchase_id, order_amount, discount_amount, commission_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (purchase_id) DO NOTHING
		RETURNING id, created_at`,
		redemption.PromoCodeID, redemption.PurchaseID, redemption.OrderAmount,
		redemption.DiscountAmount, commissionID,
	).Scan(&redemption.ID, &redemption.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, models.ErrDuplicateEntry
		}
		return nil, nil, fmt.Errorf("failed to insert redemption: %w", err)
	}

	if commission != nil {
		id := commission.ID
		redemption.CommissionID = &id
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	return redemption, commission, nil
}

// FindRedemption looks up a prior redemption (and its commission, if any) by
// purchase reference. Used to make redemption idempotent across retries.
func (r *PromoCodeRepository) FindRedemption(purchaseID string) (*models.Redemption, *models.Commission, error) {
	redemption := &models.Redemption{}
	var commissionID sql.NullInt64

	err := r.db.QueryRow(`
		SELECT id, promo_code_id, purchase_id, order_amount, discount_amount, commission_id, created_at
		FROM redemptions WHERE purchase_id = $1`, purchaseID).Scan(
		&redemption.ID,
		&redemption.PromoCodeID,
		&redemption.PurchaseID,
		&redemption.OrderAmount,
		&redemption.DiscountAmount,
		&commissionID,
		&redemption.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to find redemption: %w", err)
	}

	var commission *models.Commission
	if commissionID.Valid {
		id := int(commissionID.Int64)
		redemption.CommissionID = &id

		commission = &models.Commission{}
		var paidAt sql.NullTime
		err = r.db.QueryRow(`
			SELECT id, influencer_id, promo_code_id, purchase_id, subscription_amount,
			       commission_rate, commission_amount, status, paid_at, created_at, updated_at
			FROM commissions WHERE id = $1`, id).Scan(
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
			return nil, nil, fmt.Errorf("failed to load redemption commission: %w", err)
		}
		if paidAt.Valid {
			commission.PaidAt = &paidAt.Time
		}
	}

	return redemption, commission, nil
}
