package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coaching-platform/internal/models"
)

func setupCommission(t *testing.T) (*CommissionService, *mockCommissionStore, *mockInfluencerStore, *MockNotifier, *models.Influencer) {
	t.Helper()
	influencers := newMockInfluencerStore()
	commissions := newMockCommissionStore(influencers)
	notifier := NewMockNotifier()
	influencer := approvedTestInfluencer(influencers, dec("0"))
	service := NewCommissionService(commissions, influencers, notifier)
	return service, commissions, influencers, notifier, influencer
}

func TestCommissionService_RecordCommission(t *testing.T) {
	t.Run("records and credits the balance", func(t *testing.T) {
		service, _, influencers, notifier, influencer := setupCommission(t)

		commission, err := service.RecordCommission(influencer.ID, 1, "purchase-1", dec("200.00"), dec("12.5"))
		require.NoError(t, err)

		assert.True(t, commission.CommissionAmount.Equal(dec("25.00")))
		assert.True(t, commission.CommissionRate.Equal(dec("12.5")))
		assert.Equal(t, models.CommissionStatusPending, commission.Status)

		balance, err := influencers.GetBalance(influencer.ID)
		require.NoError(t, err)
		assert.True(t, balance.AvailableBalance.Equal(dec("25.00")))
		assert.True(t, balance.TotalEarnings.Equal(dec("25.00")))
		assert.Equal(t, 1, notifier.SentCount())
	})

	t.Run("duplicate purchase returns the existing record", func(t *testing.T) {
		service, _, influencers, _, influencer := setupCommission(t)

		first, err := service.RecordCommission(influencer.ID, 1, "purchase-1", dec("200.00"), dec("10"))
		require.NoError(t, err)

		second, err := service.RecordCommission(influencer.ID, 1, "purchase-1", dec("200.00"), dec("10"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		// Only one credit happened.
		balance, err := influencers.GetBalance(influencer.ID)
		require.NoError(t, err)
		assert.True(t, balance.AvailableBalance.Equal(dec("20.00")))
	})
}

func TestCommissionService_UpdateCommissionStatus(t *testing.T) {
	service, _, _, _, influencer := setupCommission(t)

	commission, err := service.RecordCommission(influencer.ID, 1, "purchase-1", dec("100.00"), dec("10"))
	require.NoError(t, err)

	t.Run("pending to approved", func(t *testing.T) {
		updated, err := service.UpdateCommissionStatus(commission.ID, models.CommissionStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, models.CommissionStatusApproved, updated.Status)
		assert.Nil(t, updated.PaidAt)
	})

	t.Run("approved to paid stamps paid_at without moving money", func(t *testing.T) {
		service, _, influencers, _, influencer := setupCommission(t)
		commission, err := service.RecordCommission(influencer.ID, 1, "purchase-2", dec("100.00"), dec("10"))
		require.NoError(t, err)

		_, err = service.UpdateCommissionStatus(commission.ID, models.CommissionStatusApproved)
		require.NoError(t, err)
		paid, err := service.UpdateCommissionStatus(commission.ID, models.CommissionStatusPaid)
		require.NoError(t, err)

		assert.Equal(t, models.CommissionStatusPaid, paid.Status)
		assert.NotNil(t, paid.PaidAt)

		// The commission status track does not touch balances.
		balance, err := influencers.GetBalance(influencer.ID)
		require.NoError(t, err)
		assert.True(t, balance.AvailableBalance.Equal(dec("10.00")))
		assert.True(t, balance.TotalWithdrawn.IsZero())
	})

	t.Run("pending straight to paid is allowed", func(t *testing.T) {
		service, _, _, _, influencer := setupCommission(t)
		commission, err := service.RecordCommission(influencer.ID, 1, "purchase-3", dec("100.00"), dec("10"))
		require.NoError(t, err)

		paid, err := service.UpdateCommissionStatus(commission.ID, models.CommissionStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, models.CommissionStatusPaid, paid.Status)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		service, _, _, _, influencer := setupCommission(t)
		commission, err := service.RecordCommission(influencer.ID, 1, "purchase-4", dec("100.00"), dec("10"))
		require.NoError(t, err)

		_, err = service.UpdateCommissionStatus(commission.ID, models.CommissionStatusPaid)
		require.NoError(t, err)

		_, err = service.UpdateCommissionStatus(commission.ID, models.CommissionStatusPending)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = service.UpdateCommissionStatus(commission.ID, models.CommissionStatusApproved)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("unknown commission", func(t *testing.T) {
		service, _, _, _, _ := setupCommission(t)
		_, err := service.UpdateCommissionStatus(999, models.CommissionStatusApproved)
		assert.ErrorIs(t, err, models.ErrCommissionNotFound)
	})
}

func TestCommissionService_Queries(t *testing.T) {
	service, _, _, _, influencer := setupCommission(t)

	_, err := service.RecordCommission(influencer.ID, 1, "purchase-1", dec("100.00"), dec("10"))
	require.NoError(t, err)
	_, err = service.RecordCommission(influencer.ID, 1, "purchase-2", dec("50.00"), dec("10"))
	require.NoError(t, err)

	commissions, total, err := service.GetInfluencerCommissions(influencer.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, commissions, 2)
	assert.Equal(t, 2, total)

	balance, err := service.GetInfluencerBalance(influencer.ID)
	require.NoError(t, err)
	assert.True(t, balance.TotalEarnings.Equal(dec("15.00")))
}
