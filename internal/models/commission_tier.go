package models

import "time"

// CommissionTier maps an order value band to a partner payout rate. Tiers are
// externally configured; smallest SortOrder carries the lowest rate.
type CommissionTier struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Rate           float64   `db:"rate" json:"rate"`
	MinOrderAmount int64     `db:"min_order_amount" json:"minOrderAmount"`
	SortOrder      int       `db:"sort_order" json:"sortOrder"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// TierSummary is the derived summary exposed on the public tier endpoint.
// MinRate and MaxRate are the rates of the first and last tier in sort order.
type TierSummary struct {
	MinRate   float64 `json:"minRate"`
	MaxRate   float64 `json:"maxRate"`
	TierCount int     `json:"tierCount"`
}
