// Package transient provides short-lived key/value markers with per-entry
// expiry, used by the CSS cache to throttle its sweep across requests.
package transient

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Store keeps values for a bounded time. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// Cache is the in-process Store backed by go-cache.
type Cache struct {
	items *cache.Cache
}

var _ Store = (*Cache)(nil)

// New builds a Cache. defaultTTL applies when Set receives a zero ttl;
// cleanup controls how often expired entries are purged.
func New(defaultTTL, cleanup time.Duration) *Cache {
	return &Cache{items: cache.New(defaultTTL, cleanup)}
}

func (c *Cache) Get(key string) (any, bool) {
	return c.items.Get(key)
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		c.items.Set(key, value, cache.DefaultExpiration)
		return
	}
	c.items.Set(key, value, ttl)
}

func (c *Cache) Delete(key string) {
	c.items.Delete(key)
}
