package subscription

import (
	"context"
	"time"

	"github.com/p-n-ai/pai-path/internal/platform/cache"
)

const keyPrefix = "premium:"

// CachedStore memoizes another Checker's answers in Redis.
type CachedStore struct {
	next  Checker
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedStore wraps next with a cache entry per learner.
func NewCachedStore(next Checker, c *cache.Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: c, ttl: ttl}
}

// HasPremium answers from the cache when it can. A cache outage falls
// through to the wrapped Checker.
func (c *CachedStore) HasPremium(ctx context.Context, userID string) (bool, error) {
	v, err := c.cache.Remember(ctx, keyPrefix+userID, c.ttl, func(ctx context.Context) (string, error) {
		premium, err := c.next.HasPremium(ctx, userID)
		if err != nil {
			return "", err
		}
		if premium {
			return "1", nil
		}
		return "0", nil
	})
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// Invalidate drops the cached answer for a learner.
func (c *CachedStore) Invalidate(ctx context.Context, userID string) error {
	return c.cache.Forget(ctx, keyPrefix+userID)
}
