package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// tierSource is the slice of the tier repository the engine needs.
type tierSource interface {
	ListActive(ctx context.Context) ([]models.CommissionTier, error)
}

// CommissionService maps order values to commission tiers and computes
// partner payouts. Tier tables come from external configuration; this service
// validates them on load and refuses non-monotonic tables rather than
// producing payouts where a larger order earns a lower rate.
type CommissionService struct {
	tiers tierSource
}

// NewCommissionService creates a new CommissionService.
func NewCommissionService(tiers tierSource) *CommissionService {
	return &CommissionService{tiers: tiers}
}

// ActiveTiers returns the active tier table (sorted by sort order ascending)
// plus the derived public summary.
func (s *CommissionService) ActiveTiers(ctx context.Context) ([]models.CommissionTier, *models.TierSummary, error) {
	tiers, err := s.tiers.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load commission tiers")
		return nil, nil, err
	}
	if len(tiers) == 0 {
		return nil, nil, utils.ErrNoTiersConfigured
	}
	if err := validateTierTable(tiers); err != nil {
		log.Error().Err(err).Msg("commission tier table rejected")
		return nil, nil, err
	}

	summary := &models.TierSummary{
		MinRate:   tiers[0].Rate,
		MaxRate:   tiers[len(tiers)-1].Rate,
		TierCount: len(tiers),
	}
	return tiers, summary, nil
}

// CommissionFor computes the commission for an order amount from the active
// tier table. Returns the amount, the applied rate, and any backend error.
func (s *CommissionService) CommissionFor(ctx context.Context, amount int64) (int64, float64, error) {
	tiers, _, err := s.ActiveTiers(ctx)
	if err != nil {
		return 0, 0, err
	}
	tier := SelectTier(tiers, amount)
	return ComputeCommission(amount, tier.Rate), tier.Rate, nil
}

// SelectTier picks the highest-sort-order tier whose threshold the amount
// meets or exceeds, falling back to the lowest tier when none match. tiers
// must be sorted by sort order ascending and non-empty.
func SelectTier(tiers []models.CommissionTier, amount int64) *models.CommissionTier {
	selected := &tiers[0]
	for i := range tiers {
		if amount >= tiers[i].MinOrderAmount {
			selected = &tiers[i]
		}
	}
	return selected
}

// ComputeCommission derives the payout for an order amount at a percentage
// rate, rounded to the nearest yen.
func ComputeCommission(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}

// validateTierTable enforces monotonicity: walking the table in sort order,
// both rate and threshold must be non-decreasing, so larger orders never
// resolve to a strictly lower rate than smaller orders.
func validateTierTable(tiers []models.CommissionTier) error {
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if cur.SortOrder < prev.SortOrder {
			return fmt.Errorf("%w: tier %q out of sort order", utils.ErrTierTableInvalid, cur.Name)
		}
		if cur.Rate < prev.Rate {
			return fmt.Errorf("%w: tier %q rate %.2f below preceding tier", utils.ErrTierTableInvalid, cur.Name, cur.Rate)
		}
		if cur.MinOrderAmount < prev.MinOrderAmount {
			return fmt.Errorf("%w: tier %q threshold below preceding tier", utils.ErrTierTableInvalid, cur.Name)
		}
	}
	return nil
}
