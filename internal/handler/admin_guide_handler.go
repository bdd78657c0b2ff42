package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/repository"
	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// maxLogoBytes bounds logo uploads.
const maxLogoBytes = 2 << 20

// AdminGuideHandler handles back-office guide management.
type AdminGuideHandler struct {
	guideRepo    *repository.GuideRepository
	guideSvc     *service.GuideService
	trackingRepo *repository.TrackingRepository
	orderRepo    *repository.OrderRepository
	assetSvc     *service.AssetService
}

// NewAdminGuideHandler constructs an AdminGuideHandler.
func NewAdminGuideHandler(
	guideRepo *repository.GuideRepository,
	guideSvc *service.GuideService,
	trackingRepo *repository.TrackingRepository,
	orderRepo *repository.OrderRepository,
	assetSvc *service.AssetService,
) *AdminGuideHandler {
	return &AdminGuideHandler{
		guideRepo:    guideRepo,
		guideSvc:     guideSvc,
		trackingRepo: trackingRepo,
		orderRepo:    orderRepo,
		assetSvc:     assetSvc,
	}
}

// ListGuides handles GET /v1/admin/guides
func (h *AdminGuideHandler) ListGuides(c *gin.Context) {
	guides, err := h.guideRepo.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list guides")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve guides")
		return
	}
	utils.Success(c, 200, "Guides retrieved", guides)
}

// GetGuide handles GET /v1/admin/guides/:id
func (h *AdminGuideHandler) GetGuide(c *gin.Context) {
	g, ok := h.loadGuide(c)
	if !ok {
		return
	}
	utils.Success(c, 200, "Guide retrieved", g)
}

// CreateGuideRequest is the guide onboarding payload.
type CreateGuideRequest struct {
	Slug      string   `json:"slug" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	BrandName *string  `json:"brandName,omitempty"`
	Modules   []string `json:"modules"`
}

// CreateGuide handles POST /v1/admin/guides. New guides start inactive until
// the billing collaborator activates the subscription.
func (h *AdminGuideHandler) CreateGuide(c *gin.Context) {
	var req CreateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "slug and name are required")
		return
	}
	if !utils.ValidSlug(req.Slug) {
		utils.Error(c, 400, "INVALID_SLUG", "Slug must be lowercase alphanumerics and hyphens, 2-64 chars")
		return
	}
	if key, ok := invalidModule(req.Modules); !ok {
		utils.Error(c, 400, "INVALID_MODULE_KEY", "Unknown catalog module: "+key)
		return
	}

	g := &models.Guide{
		Slug:               req.Slug,
		Name:               req.Name,
		BrandName:          req.BrandName,
		SubscriptionStatus: models.SubscriptionInactive,
		Modules:            req.Modules,
	}
	if g.Modules == nil {
		g.Modules = []string{}
	}

	if err := h.guideRepo.Create(c.Request.Context(), g); err != nil {
		if errors.Is(err, utils.ErrDuplicateSlug) {
			utils.Error(c, 409, "DUPLICATE_SLUG", "A guide with this slug already exists")
			return
		}
		log.Error().Err(err).Str("slug", req.Slug).Msg("failed to create guide")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create guide")
		return
	}

	utils.Success(c, 201, "Guide created", g)
}

// UpdateGuideRequest is the guide edit payload.
type UpdateGuideRequest struct {
	Name      string   `json:"name" binding:"required"`
	BrandName *string  `json:"brandName,omitempty"`
	Modules   []string `json:"modules"`
}

// UpdateGuide handles PUT /v1/admin/guides/:id
func (h *AdminGuideHandler) UpdateGuide(c *gin.Context) {
	g, ok := h.loadGuide(c)
	if !ok {
		return
	}

	var req UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "name is required")
		return
	}
	if key, ok := invalidModule(req.Modules); !ok {
		utils.Error(c, 400, "INVALID_MODULE_KEY", "Unknown catalog module: "+key)
		return
	}

	g.Name = req.Name
	g.BrandName = req.BrandName
	g.Modules = req.Modules
	if g.Modules == nil {
		g.Modules = []string{}
	}

	if err := h.guideRepo.Update(c.Request.Context(), g); err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("failed to update guide")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update guide")
		return
	}

	h.guideSvc.Invalidate(c.Request.Context(), g.Slug)
	utils.Success(c, 200, "Guide updated", g)
}

// UpdateStatusRequest carries a subscription status change.
type UpdateStatusRequest struct {
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus" binding:"required"`
}

// UpdateSubscriptionStatus handles PUT /v1/admin/guides/:id/status
func (h *AdminGuideHandler) UpdateSubscriptionStatus(c *gin.Context) {
	g, ok := h.loadGuide(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidSubscriptionStatus(req.SubscriptionStatus) {
		utils.Error(c, 400, "VALIDATION_ERROR", "subscriptionStatus must be one of active, inactive, past_due, cancelled")
		return
	}

	if err := h.guideRepo.UpdateSubscriptionStatus(c.Request.Context(), g.ID, req.SubscriptionStatus); err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("failed to update subscription status")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update subscription status")
		return
	}

	h.guideSvc.Invalidate(c.Request.Context(), g.Slug)
	g.SubscriptionStatus = req.SubscriptionStatus
	utils.Success(c, 200, "Subscription status updated", g)
}

// UploadLogo handles POST /v1/admin/guides/:id/logo
func (h *AdminGuideHandler) UploadLogo(c *gin.Context) {
	g, ok := h.loadGuide(c)
	if !ok {
		return
	}
	if h.assetSvc == nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Asset storage is not configured")
		return
	}

	contentType := c.ContentType()
	if !service.AcceptedLogoType(contentType) {
		utils.Error(c, 400, "VALIDATION_ERROR", "Logo must be png, jpeg, svg, or webp")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLogoBytes+1))
	if err != nil || len(data) == 0 {
		utils.Error(c, 400, "VALIDATION_ERROR", "Empty or unreadable logo payload")
		return
	}
	if len(data) > maxLogoBytes {
		utils.Error(c, 400, "VALIDATION_ERROR", "Logo exceeds the 2MB limit")
		return
	}

	url, err := h.assetSvc.UploadGuideLogo(c.Request.Context(), g.Slug, data, contentType)
	if err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("logo upload failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to store logo")
		return
	}

	if err := h.guideRepo.UpdateLogoURL(c.Request.Context(), g.ID, url); err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("failed to persist logo url")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update guide")
		return
	}

	h.guideSvc.Invalidate(c.Request.Context(), g.Slug)
	utils.Success(c, 200, "Logo uploaded", gin.H{"logoUrl": url})
}

// GetStats handles GET /v1/admin/guides/:id/stats
func (h *AdminGuideHandler) GetStats(c *gin.Context) {
	g, ok := h.loadGuide(c)
	if !ok {
		return
	}

	days := 30
	if d := c.Query("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	views, err := h.trackingRepo.DailyViews(c.Request.Context(), g.ID, days)
	if err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("failed to load daily views")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve guide stats")
		return
	}

	totals, err := h.orderRepo.GetGuideOrderTotals(c.Request.Context(), g.ID)
	if err != nil {
		log.Error().Err(err).Int("guide_id", g.ID).Msg("failed to load order totals")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve guide stats")
		return
	}

	utils.Success(c, 200, "Guide stats retrieved", gin.H{
		"dailyViews": views,
		"orders": gin.H{
			"count":           totals.OrderCount,
			"totalAmount":     totals.TotalAmount,
			"totalCommission": totals.TotalCommission,
		},
	})
}

// loadGuide parses :id and fetches the guide, writing the error response
// itself when something is off.
func (h *AdminGuideHandler) loadGuide(c *gin.Context) (*models.Guide, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Guide id must be numeric")
		return nil, false
	}

	g, err := h.guideRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("guide_id", id).Msg("failed to get guide")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve guide")
		return nil, false
	}
	if g == nil {
		utils.Error(c, 404, "GUIDE_NOT_FOUND", "Guide not found")
		return nil, false
	}
	return g, true
}

// invalidModule returns the first unknown module key, with ok=false, or
// ("", true) when all keys are valid.
func invalidModule(modules []string) (string, bool) {
	for _, m := range modules {
		if !models.ValidModuleKey(m) {
			return m, false
		}
	}
	return "", true
}
