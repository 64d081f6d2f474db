package auth

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults for CachedFetcher.
const (
	DefaultIdentityCacheSize = 1024
	DefaultIdentityCacheTTL  = 30 * time.Second
)

// CachedFetcher memoizes positive identity lookups for a short TTL.
// Misses are not cached, so a deleted user loses access once its entry
// expires.
type CachedFetcher struct {
	next  IdentityFetcher
	cache *lru.LRU[string, models.Identity]
}

// NewCachedFetcher wraps next. size <= 0 and ttl <= 0 select the defaults.
func NewCachedFetcher(next IdentityFetcher, size int, ttl time.Duration) *CachedFetcher {
	if size <= 0 {
		size = DefaultIdentityCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultIdentityCacheTTL
	}
	return &CachedFetcher{
		next:  next,
		cache: lru.NewLRU[string, models.Identity](size, nil, ttl),
	}
}

// FetchIdentity implements IdentityFetcher.
func (c *CachedFetcher) FetchIdentity(ctx context.Context, userID string) *models.Identity {
	if id, ok := c.cache.Get(userID); ok {
		return &id
	}
	id := c.next.FetchIdentity(ctx, userID)
	if id == nil {
		return nil
	}
	c.cache.Add(userID, *id)
	return id
}

// Forget drops userID from the cache.
func (c *CachedFetcher) Forget(userID string) {
	c.cache.Remove(userID)
}
