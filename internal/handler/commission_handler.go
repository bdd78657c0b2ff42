package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// tierProvider is the slice of the commission service this handler needs.
type tierProvider interface {
	ActiveTiers(ctx context.Context) ([]models.CommissionTier, *models.TierSummary, error)
}

// CommissionHandler exposes the public commission tier endpoint used by
// partner marketing pages. No authentication.
type CommissionHandler struct {
	commissionSvc tierProvider
}

// NewCommissionHandler constructs a CommissionHandler.
func NewCommissionHandler(commissionSvc tierProvider) *CommissionHandler {
	return &CommissionHandler{commissionSvc: commissionSvc}
}

// GetTiers handles GET /api/commission-tiers
func (h *CommissionHandler) GetTiers(c *gin.Context) {
	tiers, summary, err := h.commissionSvc.ActiveTiers(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load commission tiers")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve commission tiers")
		return
	}

	utils.Success(c, 200, "Commission tiers retrieved", gin.H{
		"tiers":   tiers,
		"summary": summary,
	})
}
