package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

type fakeTierSource struct {
	tiers []models.CommissionTier
	err   error
}

func (f *fakeTierSource) ListActive(ctx context.Context) ([]models.CommissionTier, error) {
	return f.tiers, f.err
}

func standardTiers() []models.CommissionTier {
	return []models.CommissionTier{
		{ID: 1, Name: "Standard", Rate: 10, MinOrderAmount: 0, SortOrder: 0},
		{ID: 2, Name: "Silver", Rate: 15, MinOrderAmount: 500000, SortOrder: 1},
		{ID: 3, Name: "Gold", Rate: 20, MinOrderAmount: 2000000, SortOrder: 2},
	}
}

func TestSelectTier(t *testing.T) {
	tiers := standardTiers()

	tests := []struct {
		amount   int64
		wantName string
	}{
		{0, "Standard"},
		{499999, "Standard"},
		{500000, "Silver"},
		{1999999, "Silver"},
		{2000000, "Gold"},
		{50000000, "Gold"},
	}
	for _, tt := range tests {
		got := SelectTier(tiers, tt.amount)
		assert.Equal(t, tt.wantName, got.Name, "amount %d", tt.amount)
	}
}

func TestSelectTierMonotonic(t *testing.T) {
	tiers := standardTiers()

	// A larger order never earns a lower rate.
	prev := 0.0
	for _, amount := range []int64{0, 100, 499999, 500000, 1000000, 2000000, 9000000} {
		rate := SelectTier(tiers, amount).Rate
		assert.GreaterOrEqual(t, rate, prev, "amount %d", amount)
		prev = rate
	}
}

func TestComputeCommission(t *testing.T) {
	assert.Equal(t, int64(10000), ComputeCommission(100000, 10))
	assert.Equal(t, int64(75000), ComputeCommission(500000, 15))
	assert.Equal(t, int64(0), ComputeCommission(0, 20))
	// Rounds to the nearest yen.
	assert.Equal(t, int64(50), ComputeCommission(333, 15))
	assert.Equal(t, int64(33), ComputeCommission(333, 10))
}

func TestActiveTiersSummary(t *testing.T) {
	s := NewCommissionService(&fakeTierSource{tiers: standardTiers()})

	tiers, summary, err := s.ActiveTiers(context.Background())

	require.NoError(t, err)
	assert.Len(t, tiers, 3)
	require.NotNil(t, summary)
	assert.Equal(t, 10.0, summary.MinRate)
	assert.Equal(t, 20.0, summary.MaxRate)
	assert.Equal(t, 3, summary.TierCount)
}

func TestActiveTiersEmptyTable(t *testing.T) {
	s := NewCommissionService(&fakeTierSource{})

	_, _, err := s.ActiveTiers(context.Background())

	assert.ErrorIs(t, err, utils.ErrNoTiersConfigured)
}

func TestActiveTiersRejectsDecreasingRate(t *testing.T) {
	tiers := standardTiers()
	tiers[2].Rate = 5
	s := NewCommissionService(&fakeTierSource{tiers: tiers})

	_, _, err := s.ActiveTiers(context.Background())

	assert.ErrorIs(t, err, utils.ErrTierTableInvalid)
}

func TestActiveTiersRejectsDecreasingThreshold(t *testing.T) {
	tiers := standardTiers()
	tiers[2].MinOrderAmount = 100
	s := NewCommissionService(&fakeTierSource{tiers: tiers})

	_, _, err := s.ActiveTiers(context.Background())

	assert.ErrorIs(t, err, utils.ErrTierTableInvalid)
}

func TestActiveTiersSourceError(t *testing.T) {
	srcErr := errors.New("connection refused")
	s := NewCommissionService(&fakeTierSource{err: srcErr})

	_, _, err := s.ActiveTiers(context.Background())

	assert.ErrorIs(t, err, srcErr)
}

func TestCommissionFor(t *testing.T) {
	s := NewCommissionService(&fakeTierSource{tiers: standardTiers()})

	amount, rate, err := s.CommissionFor(context.Background(), 500000)

	require.NoError(t, err)
	assert.Equal(t, 15.0, rate)
	assert.Equal(t, int64(75000), amount)
}
