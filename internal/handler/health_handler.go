package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/meditabi/meditabi_api/internal/cache"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// HealthHandler reports readiness of the service and its backends.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth handles GET /v1/health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unavailable"
	}

	redisStatus := "ok"
	if _, err := h.redis.Exists(ctx, "health"); err != nil {
		redisStatus = "unavailable"
	}

	code := 200
	if dbStatus != "ok" || redisStatus != "ok" {
		code = 503
	}

	utils.Success(c, code, "Health check", gin.H{
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
