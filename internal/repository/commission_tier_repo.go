package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/meditabi/meditabi_api/internal/models"
)

// CommissionTierRepository provides read access to the commission_tiers
// table. The tier table is externally configured; this service only reads it.
type CommissionTierRepository struct {
	db *sqlx.DB
}

// NewCommissionTierRepository creates a new CommissionTierRepository.
func NewCommissionTierRepository(db *sqlx.DB) *CommissionTierRepository {
	return &CommissionTierRepository{db: db}
}

// ListActive returns active tiers ordered by sort_order ascending.
func (r *CommissionTierRepository) ListActive(ctx context.Context) ([]models.CommissionTier, error) {
	var tiers []models.CommissionTier
	err := r.db.SelectContext(ctx, &tiers,
		`SELECT id, name, rate, min_order_amount, sort_order, is_active, created_at, updated_at
         FROM commission_tiers
         WHERE is_active = true
         ORDER BY sort_order ASC`)
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
