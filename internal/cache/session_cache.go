package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lastPathTTL matches a typical browsing session; after it expires the next
// view of the same path is tracked again.
const lastPathTTL = 30 * time.Minute

// SessionCache remembers the last tracked page path per browser session so
// consecutive re-renders of the same page produce a single tracking event.
type SessionCache struct {
	redis *RedisClient
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(redis *RedisClient) *SessionCache {
	return &SessionCache{redis: redis}
}

func (c *SessionCache) key(sessionID string) string {
	return fmt.Sprintf("track:last:%s", sessionID)
}

// LastPath returns the last tracked path for the session, or "" if none.
func (c *SessionCache) LastPath(ctx context.Context, sessionID string) (string, error) {
	path, err := c.redis.Get(ctx, c.key(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// SetLastPath records the last tracked path for the session.
func (c *SessionCache) SetLastPath(ctx context.Context, sessionID, path string) error {
	return c.redis.Set(ctx, c.key(sessionID), path, lastPathTTL)
}
