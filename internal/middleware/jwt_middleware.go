package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meditabi/meditabi_api/internal/utils"
)

// JWTMiddleware enforces bearer-token admin authentication plus an email
// allow-list. An empty allow-list admits any authenticated admin.
type JWTMiddleware struct {
	allowedEmails map[string]bool
}

// NewJWTMiddleware constructs a JWTMiddleware from the configured allow-list.
func NewJWTMiddleware(allowedEmails []string) *JWTMiddleware {
	allowed := make(map[string]bool, len(allowedEmails))
	for _, e := range allowedEmails {
		allowed[strings.ToLower(e)] = true
	}
	return &JWTMiddleware{allowedEmails: allowed}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if len(m.allowedEmails) > 0 && !m.allowedEmails[strings.ToLower(claims.Email)] {
			// Generic message: don't reveal the allow-list exists.
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
