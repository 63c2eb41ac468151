package services

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"coaching-platform/internal/models"
	"coaching-platform/internal/repositories"
)

// In-memory stores backing the service tests. They reproduce the database
// guarantees the services lean on: conditional usage increments, unique
// purchase references, and status-guarded updates.

type mockPromoStore struct {
	mu          sync.Mutex
	promos      map[int]*models.PromoCode
	redemptions map[string]*models.Redemption
	commissions map[string]*models.Commission
	nextID      int
	influencers *mockInfluencerStore

	listErr error
}

func newMockPromoStore() *mockPromoStore {
	return &mockPromoStore{
		promos:      make(map[int]*models.PromoCode),
		redemptions: make(map[string]*models.Redemption),
		commissions: make(map[string]*models.Commission),
		nextID:      1,
	}
}

func (m *mockPromoStore) Create(req *models.PromoCodeCreateRequest) (*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.promos {
		if p.Code == req.Code {
			return nil, models.ErrDuplicateCode
		}
	}

	rate := models.DefaultCommissionRate
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}

	promo := &models.PromoCode{
		ID:             m.nextID,
		Code:           req.Code,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MaxDiscount:    req.MaxDiscount,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		Status:         models.PromoCodeStatusActive,
		InfluencerID:   req.InfluencerID,
		CommissionRate: rate,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.promos[promo.ID] = promo
	m.nextID++

	snapshot := *promo
	return &snapshot, nil
}

// add seeds a promo code directly, bypassing request validation
func (m *mockPromoStore) add(promo *models.PromoCode) *models.PromoCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if promo.ID == 0 {
		promo.ID = m.nextID
		m.nextID++
	}
	if promo.Status == "" {
		promo.Status = models.PromoCodeStatusActive
	}
	m.promos[promo.ID] = promo
	return promo
}

func (m *mockPromoStore) GetByCode(code string) (*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if p.Code == code {
			snapshot := *p
			return &snapshot, nil
		}
	}
	return nil, models.ErrPromoCodeNotFound
}

func (m *mockPromoStore) GetByID(id int) (*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return nil, models.ErrPromoCodeNotFound
	}
	snapshot := *p
	return &snapshot, nil
}

func (m *mockPromoStore) GetAll(limit, offset int, status string) ([]*models.PromoCode, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.PromoCode
	for _, p := range m.promos {
		if status != "" && string(p.Status) != status {
			continue
		}
		snapshot := *p
		all = append(all, &snapshot)
	}
	return all, len(all), nil
}

func (m *mockPromoStore) GetActive() ([]*models.PromoCode, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []*models.PromoCode
	for _, p := range m.promos {
		if p.Status == models.PromoCodeStatusActive {
			snapshot := *p
			active = append(active, &snapshot)
		}
	}
	return active, nil
}

func (m *mockPromoStore) Update(id int, req *models.PromoCodeUpdateRequest) (*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return nil, models.ErrPromoCodeNotFound
	}
	if req.DiscountValue != nil {
		p.DiscountValue = *req.DiscountValue
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.UsageLimit != nil {
		p.UsageLimit = req.UsageLimit
	}
	if req.CommissionRate != nil {
		p.CommissionRate = *req.CommissionRate
	}
	p.UpdatedAt = time.Now()
	snapshot := *p
	return &snapshot, nil
}

func (m *mockPromoStore) Deactivate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return models.ErrPromoCodeNotFound
	}
	p.Status = models.PromoCodeStatusInactive
	return nil
}

func (m *mockPromoStore) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return models.ErrPromoCodeNotFound
	}
	if p.UsedCount > 0 {
		return models.ErrPromoCodeInUse
	}
	delete(m.promos, id)
	return nil
}

func (m *mockPromoStore) Redeem(promo *models.PromoCode, params repositories.RedeemParams) (*models.Redemption, *models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.promos[promo.ID]
	if !ok {
		return nil, nil, models.ErrPromoCodeNotFound
	}

	if _, exists := m.redemptions[params.PurchaseID]; exists {
		return nil, nil, models.ErrDuplicateEntry
	}

	// Conditional increment: the usage slot is taken under the lock, exactly
	// like the guarded UPDATE in the real store.
	if stored.UsageLimit != nil && stored.UsedCount >= *stored.UsageLimit {
		return nil, nil, models.ErrUsageLimitReached
	}
	stored.UsedCount++

	var commission *models.Commission
	if stored.InfluencerID != nil {
		commission = &models.Commission{
			ID:                 len(m.commissions) + 1,
			InfluencerID:       *stored.InfluencerID,
			PromoCodeID:        stored.ID,
			PurchaseID:         params.PurchaseID,
			SubscriptionAmount: params.OrderAmount,
			CommissionRate:     params.CommissionRate,
			CommissionAmount:   params.CommissionAmount,
			Status:             models.CommissionStatusPending,
			CreatedAt:          time.Now(),
		}
		m.commissions[params.PurchaseID] = commission
		stored.TotalCommissions = stored.TotalCommissions.Add(params.CommissionAmount)
		if m.influencers != nil {
			m.influencers.credit(*stored.InfluencerID, params.CommissionAmount)
		}
	}

	redemption := &models.Redemption{
		ID:             len(m.redemptions) + 1,
		PromoCodeID:    stored.ID,
		PurchaseID:     params.PurchaseID,
		OrderAmount:    params.OrderAmount,
		DiscountAmount: params.DiscountAmount,
		CreatedAt:      time.Now(),
	}
	if commission != nil {
		id := commission.ID
		redemption.CommissionID = &id
	}
	m.redemptions[params.PurchaseID] = redemption

	return redemption, commission, nil
}

func (m *mockPromoStore) FindRedemption(purchaseID string) (*models.Redemption, *models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	redemption, ok := m.redemptions[purchaseID]
	if !ok {
		return nil, nil, nil
	}
	return redemption, m.commissions[purchaseID], nil
}

func (m *mockPromoStore) usedCount(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.promos[id].UsedCount
}

type mockInfluencerStore struct {
	mu          sync.Mutex
	influencers map[int]*models.Influencer
	nextID      int
}

func newMockInfluencerStore() *mockInfluencerStore {
	return &mockInfluencerStore{
		influencers: make(map[int]*models.Influencer),
		nextID:      1,
	}
}

func (m *mockInfluencerStore) Create(req *models.InfluencerCreateRequest) (*models.Influencer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer := &models.Influencer{
		ID:        m.nextID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Status:    models.InfluencerStatusPending,
		Bank:      req.Bank,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.influencers[influencer.ID] = influencer
	m.nextID++
	snapshot := *influencer
	return &snapshot, nil
}

func (m *mockInfluencerStore) add(influencer *models.Influencer) *models.Influencer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if influencer.ID == 0 {
		influencer.ID = m.nextID
		m.nextID++
	}
	m.influencers[influencer.ID] = influencer
	return influencer
}

func (m *mockInfluencerStore) GetByID(id int) (*models.Influencer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer, ok := m.influencers[id]
	if !ok {
		return nil, models.ErrInfluencerNotFound
	}
	snapshot := *influencer
	return &snapshot, nil
}

func (m *mockInfluencerStore) UpdateStatus(id int, status models.InfluencerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer, ok := m.influencers[id]
	if !ok {
		return models.ErrInfluencerNotFound
	}
	influencer.Status = status
	return nil
}

func (m *mockInfluencerStore) UpdateBank(id int, bank models.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer, ok := m.influencers[id]
	if !ok {
		return models.ErrInfluencerNotFound
	}
	influencer.Bank = bank
	return nil
}

func (m *mockInfluencerStore) GetBalance(id int) (*models.BalanceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer, ok := m.influencers[id]
	if !ok {
		return nil, models.ErrInfluencerNotFound
	}
	return &models.BalanceSummary{
		InfluencerID:     id,
		TotalEarnings:    influencer.TotalEarnings,
		AvailableBalance: influencer.AvailableBalance,
		TotalWithdrawn:   influencer.TotalWithdrawn,
	}, nil
}

func (m *mockInfluencerStore) credit(id int, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	influencer, ok := m.influencers[id]
	if !ok {
		return
	}
	influencer.TotalEarnings = influencer.TotalEarnings.Add(amount)
	influencer.AvailableBalance = influencer.AvailableBalance.Add(amount)
}

type mockCommissionStore struct {
	mu          sync.Mutex
	commissions map[int]*models.Commission
	byPurchase  map[string]*models.Commission
	nextID      int
	influencers *mockInfluencerStore
}

func newMockCommissionStore(influencers *mockInfluencerStore) *mockCommissionStore {
	return &mockCommissionStore{
		commissions: make(map[int]*models.Commission),
		byPurchase:  make(map[string]*models.Commission),
		nextID:      1,
		influencers: influencers,
	}
}

func (m *mockCommissionStore) GetByID(id int) (*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	commission, ok := m.commissions[id]
	if !ok {
		return nil, models.ErrCommissionNotFound
	}
	snapshot := *commission
	return &snapshot, nil
}

func (m *mockCommissionStore) GetByPurchaseID(purchaseID string) (*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	commission, ok := m.byPurchase[purchaseID]
	if !ok {
		return nil, models.ErrCommissionNotFound
	}
	snapshot := *commission
	return &snapshot, nil
}

func (m *mockCommissionStore) GetByInfluencer(influencerID int, limit, offset int) ([]*models.Commission, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Commission
	for _, c := range m.commissions {
		if c.InfluencerID == influencerID {
			snapshot := *c
			result = append(result, &snapshot)
		}
	}
	return result, len(result), nil
}

func (m *mockCommissionStore) UpdateStatus(id int, from, to models.CommissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	commission, ok := m.commissions[id]
	if !ok {
		return models.ErrCommissionNotFound
	}
	if commission.Status != from {
		return models.ErrInvalidTransition
	}
	commission.Status = to
	if to == models.CommissionStatusPaid {
		now := time.Now()
		commission.PaidAt = &now
	}
	return nil
}

func (m *mockCommissionStore) Record(influencerID, promoCodeID int, purchaseID string,
	subscriptionAmount, rate, amount decimal.Decimal) (*models.Commission, error) {
	m.mu.Lock()
	if _, exists := m.byPurchase[purchaseID]; exists {
		m.mu.Unlock()
		return nil, models.ErrDuplicateEntry
	}
	commission := &models.Commission{
		ID:                 m.nextID,
		InfluencerID:       influencerID,
		PromoCodeID:        promoCodeID,
		PurchaseID:         purchaseID,
		SubscriptionAmount: subscriptionAmount,
		CommissionRate:     rate,
		CommissionAmount:   amount,
		Status:             models.CommissionStatusPending,
		CreatedAt:          time.Now(),
	}
	m.commissions[commission.ID] = commission
	m.byPurchase[purchaseID] = commission
	m.nextID++
	m.mu.Unlock()

	if m.influencers != nil {
		m.influencers.credit(influencerID, amount)
	}
	snapshot := *commission
	return &snapshot, nil
}

type mockWithdrawalStore struct {
	mu          sync.Mutex
	withdrawals map[int]*models.Withdrawal
	nextID      int
	influencers *mockInfluencerStore
}

func newMockWithdrawalStore(influencers *mockInfluencerStore) *mockWithdrawalStore {
	return &mockWithdrawalStore{
		withdrawals: make(map[int]*models.Withdrawal),
		nextID:      1,
		influencers: influencers,
	}
}

func (m *mockWithdrawalStore) Create(influencerID int, amount decimal.Decimal, bank models.BankAccount) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	withdrawal := &models.Withdrawal{
		ID:           m.nextID,
		InfluencerID: influencerID,
		Amount:       amount,
		Status:       models.WithdrawalStatusPending,
		Bank:         bank,
		RequestedAt:  time.Now(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.withdrawals[withdrawal.ID] = withdrawal
	m.nextID++
	snapshot := *withdrawal
	return &snapshot, nil
}

func (m *mockWithdrawalStore) GetByID(id int) (*models.Withdrawal, error) {
	m.mu.Lock()
	withdrawal, ok := m.withdrawals[id]
	if !ok {
		m.mu.Unlock()
		return nil, models.ErrWithdrawalNotFound
	}
	snapshot := *withdrawal
	m.mu.Unlock()

	if m.influencers != nil {
		if influencer, err := m.influencers.GetByID(snapshot.InfluencerID); err == nil {
			snapshot.Influencer = influencer
		}
	}
	return &snapshot, nil
}

func (m *mockWithdrawalStore) GetByInfluencer(influencerID int, limit, offset int) ([]*models.Withdrawal, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Withdrawal
	for _, w := range m.withdrawals {
		if w.InfluencerID == influencerID {
			snapshot := *w
			result = append(result, &snapshot)
		}
	}
	return result, len(result), nil
}

func (m *mockWithdrawalStore) GetAll(limit, offset int, status string) ([]*models.Withdrawal, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Withdrawal
	for _, w := range m.withdrawals {
		if status != "" && string(w.Status) != status {
			continue
		}
		snapshot := *w
		result = append(result, &snapshot)
	}
	return result, len(result), nil
}

func (m *mockWithdrawalStore) ResolvePending(id int, status models.WithdrawalStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	withdrawal, ok := m.withdrawals[id]
	if !ok {
		return models.ErrWithdrawalNotFound
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		return models.ErrInvalidTransition
	}
	withdrawal.Status = status
	withdrawal.RejectionReason = reason
	return nil
}

func (m *mockWithdrawalStore) MarkPaid(id int, influencerID int, amount decimal.Decimal, payoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	withdrawal, ok := m.withdrawals[id]
	if !ok {
		return models.ErrWithdrawalNotFound
	}

	m.influencers.mu.Lock()
	defer m.influencers.mu.Unlock()
	influencer, ok := m.influencers.influencers[influencerID]
	if !ok {
		return models.ErrInfluencerNotFound
	}

	// Debit and status flip happen together, exactly like the single
	// transaction in the real store.
	if influencer.AvailableBalance.LessThan(amount) {
		return &models.InsufficientBalanceError{
			Requested: amount,
			Available: influencer.AvailableBalance,
		}
	}
	if withdrawal.Status != models.WithdrawalStatusApproved {
		return models.ErrInvalidTransition
	}

	influencer.AvailableBalance = influencer.AvailableBalance.Sub(amount)
	influencer.TotalWithdrawn = influencer.TotalWithdrawn.Add(amount)

	now := time.Now()
	withdrawal.Status = models.WithdrawalStatusPaid
	withdrawal.PayoutID = payoutID
	withdrawal.ProcessedAt = &now
	return nil
}

type mockSubscriptionStore struct {
	mu            sync.Mutex
	subscriptions map[string]*models.Subscription
	nextID        int

	// upsertErr fails the next Upsert call once, for transient-failure tests
	upsertErr error
}

func newMockSubscriptionStore() *mockSubscriptionStore {
	return &mockSubscriptionStore{
		subscriptions: make(map[string]*models.Subscription),
		nextID:        1,
	}
}

func (m *mockSubscriptionStore) Upsert(processorSubscriptionID string, status models.SubscriptionStatus,
	customerEmail, promoCode string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		err := m.upsertErr
		m.upsertErr = nil
		return nil, err
	}

	if existing, ok := m.subscriptions[processorSubscriptionID]; ok {
		existing.Status = status
		snapshot := *existing
		return &snapshot, nil
	}

	sub := &models.Subscription{
		ID:                      m.nextID,
		ProcessorSubscriptionID: processorSubscriptionID,
		Status:                  status,
		CustomerEmail:           customerEmail,
		PromoCode:               promoCode,
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	m.subscriptions[processorSubscriptionID] = sub
	m.nextID++
	snapshot := *sub
	return &snapshot, nil
}

func (m *mockSubscriptionStore) get(processorSubscriptionID string) *models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptions[processorSubscriptionID]
}

type mockEventStore struct {
	mu        sync.Mutex
	processed map[string]string
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{processed: make(map[string]string)}
}

func (m *mockEventStore) MarkProcessed(eventID, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.processed[eventID]; ok {
		return false, nil
	}
	m.processed[eventID] = eventType
	return true, nil
}

func (m *mockEventStore) Release(eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processed, eventID)
	return nil
}

// Shared test fixtures

func validTestBank() models.BankAccount {
	return models.BankAccount{
		RoutingNumber: "021000021",
		AccountNumber: "123456789",
		BankName:      "Chase Bank",
		HolderName:    "Jordan Smith",
		AccountType:   "checking",
	}
}

func approvedTestInfluencer(store *mockInfluencerStore, balance decimal.Decimal) *models.Influencer {
	return store.add(&models.Influencer{
		FirstName:        "Jordan",
		LastName:         "Smith",
		Email:            "jordan@example.com",
		Status:           models.InfluencerStatusApproved,
		Bank:             validTestBank(),
		TotalEarnings:    balance,
		AvailableBalance: balance,
		TotalWithdrawn:   decimal.Zero,
	})
}
