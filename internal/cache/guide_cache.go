package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meditabi/meditabi_api/internal/models"
)

// guideTTL bounds how stale a cached guide config may get. Subscription
// changes made by the billing collaborator become visible within this window
// even without an explicit invalidation.
const guideTTL = 5 * time.Minute

// GuideCache caches guide configs by slug so request-time resolution does not
// hit the database on every page load.
type GuideCache struct {
	redis *RedisClient
}

// NewGuideCache creates a new GuideCache.
func NewGuideCache(redis *RedisClient) *GuideCache {
	return &GuideCache{redis: redis}
}

func (c *GuideCache) key(slug string) string {
	return fmt.Sprintf("guide:slug:%s", slug)
}

// Get returns the cached guide for slug, or (nil, nil) on a cache miss.
func (c *GuideCache) Get(ctx context.Context, slug string) (*models.Guide, error) {
	raw, err := c.redis.Get(ctx, c.key(slug))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var g models.Guide
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached guide: %w", err)
	}
	return &g, nil
}

// Set stores a guide config under its slug.
func (c *GuideCache) Set(ctx context.Context, g *models.Guide) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal guide: %w", err)
	}
	return c.redis.Set(ctx, c.key(g.Slug), string(raw), guideTTL)
}

// Invalidate drops the cached config for slug.
func (c *GuideCache) Invalidate(ctx context.Context, slug string) error {
	return c.redis.Delete(ctx, c.key(slug))
}
