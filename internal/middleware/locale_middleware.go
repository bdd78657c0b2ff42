package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/meditabi/meditabi_api/internal/models"
)

const localeKey = "locale"

// LocaleMiddleware reads the UI locale cookie and attaches a validated
// locale to the request context. Unknown values fall back to the default.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := models.DefaultLocale
		if v, err := c.Cookie(models.LocaleCookie); err == nil && models.ValidLocale(v) {
			locale = v
		}
		c.Set(localeKey, locale)
		c.Next()
	}
}

// LocaleFrom returns the request's validated locale.
func LocaleFrom(c *gin.Context) string {
	if v := c.GetString(localeKey); v != "" {
		return v
	}
	return models.DefaultLocale
}
