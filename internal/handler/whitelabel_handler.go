package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/middleware"
	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// WhiteLabelHandler handles partner entry routes and the tracking endpoint.
type WhiteLabelHandler struct {
	guideSvc    *service.GuideService
	resolverSvc *service.ResolverService
	trackingSvc *service.TrackingService
}

// NewWhiteLabelHandler constructs a WhiteLabelHandler.
func NewWhiteLabelHandler(guideSvc *service.GuideService, resolverSvc *service.ResolverService, trackingSvc *service.TrackingService) *WhiteLabelHandler {
	return &WhiteLabelHandler{guideSvc: guideSvc, resolverSvc: resolverSvc, trackingSvc: trackingSvc}
}

// EnterBySlug handles GET /p/:slug — the partner invitation link. An active
// guide gets the attribution cookie and a redirect home; anything else
// redirects home untagged.
func (h *WhiteLabelHandler) EnterBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if !utils.ValidSlug(slug) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	g, err := h.guideSvc.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		// Fail closed: no branded session on a backend failure.
		log.Warn().Err(err).Str("slug", slug).Msg("guide lookup failed on entry route")
		c.Redirect(http.StatusFound, "/")
		return
	}
	if g == nil || !g.CanServeWhiteLabel() {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.SetCookie(models.GuideSlugCookie, g.Slug, 30*24*3600, "/", "", false, false)

	rc := &models.ResolvedContext{IsWhiteLabel: true, Slug: g.Slug, Guide: g}
	h.trackingSvc.Track(rc, c.Query("sid"), "/p/"+g.Slug, c.Request.Referer(), c.Request.UserAgent())

	c.Redirect(http.StatusFound, "/")
}

// LandingBySlug handles GET /g/:slug — redirects to the first catalog module
// with a dedicated detail page, or 404 when the guide is missing, inactive,
// or has no such module.
func (h *WhiteLabelHandler) LandingBySlug(c *gin.Context) {
	slug := c.Param("slug")

	target, g, err := h.resolverSvc.ResolveEntry(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, utils.ErrGuideNotFound) {
			utils.Error(c, 404, "GUIDE_NOT_FOUND", "Guide not found")
			return
		}
		log.Error().Err(err).Str("slug", slug).Msg("entry resolution failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to resolve guide")
		return
	}

	// Build the context from the freshly verified guide rather than the
	// request's resolution: a first visit carries no attribution cookie yet,
	// and the page view must still count.
	rc := &models.ResolvedContext{IsWhiteLabel: true, Slug: g.Slug, Guide: g}
	h.trackingSvc.Track(rc, c.Query("sid"), "/g/"+slug, c.Request.Referer(), c.Request.UserAgent())

	c.Redirect(http.StatusFound, target)
}

// TrackRequest is the tracking endpoint payload.
type TrackRequest struct {
	PagePath  string `json:"pagePath" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// Track handles POST /api/whitelabel/track. Accepts and returns immediately;
// the record is written fire-and-forget and its outcome is never surfaced.
func (h *WhiteLabelHandler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "pagePath and sessionId are required")
		return
	}

	rc := middleware.ResolvedFrom(c)
	h.trackingSvc.Track(rc, req.SessionID, req.PagePath, c.Request.Referer(), c.Request.UserAgent())

	utils.Success(c, 200, "Accepted", nil)
}
