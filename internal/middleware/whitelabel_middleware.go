package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/service"
)

const contextKey = "wl_context"

// Attribution cookie lifetime. Expiry is the only automatic clearing
// mechanism; there is no separate sweep.
const slugCookieMaxAge = 30 * 24 * 3600

// WhiteLabelMiddleware resolves the white-label context once at the request
// boundary and attaches it to the gin context, so handlers receive an
// already-resolved value instead of re-deriving it from request globals.
type WhiteLabelMiddleware struct {
	resolver *service.ResolverService
}

// NewWhiteLabelMiddleware constructs a WhiteLabelMiddleware.
func NewWhiteLabelMiddleware(resolver *service.ResolverService) *WhiteLabelMiddleware {
	return &WhiteLabelMiddleware{resolver: resolver}
}

// Handle resolves the context and keeps the attribution cookie in sync with
// the outcome: refreshed in white-label mode, cleared when the cookie slug no
// longer resolves.
func (m *WhiteLabelMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieSlug, _ := c.Cookie(models.GuideSlugCookie)
		headerSlug := c.GetHeader(models.GuideSlugHeader)

		rc := m.resolver.Resolve(c.Request.Context(), c.Request.Host, cookieSlug, headerSlug)

		if rc.IsWhiteLabel {
			if rc.Slug != cookieSlug {
				c.SetCookie(models.GuideSlugCookie, rc.Slug, slugCookieMaxAge, "/", "", false, false)
			}
		} else if cookieSlug != "" && !rc.Degraded {
			// A stale cookie pointing at a missing or inactive guide. A
			// degraded resolution keeps the cookie: attribution clears only
			// when the guide is verifiably gone.
			c.SetCookie(models.GuideSlugCookie, "", -1, "/", "", false, false)
		}

		c.Set(contextKey, rc)
		c.Next()
	}
}

// ResolvedFrom returns the request's resolved context, or the official
// context when the middleware did not run.
func ResolvedFrom(c *gin.Context) *models.ResolvedContext {
	if v, ok := c.Get(contextKey); ok {
		if rc, ok := v.(*models.ResolvedContext); ok {
			return rc
		}
	}
	return models.OfficialContext()
}
