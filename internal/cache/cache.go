// Package cache provides the in-memory TTL store behind the taxonomy cache.
// It uses patrickmn/go-cache, whose items expire once now > stored_at + TTL,
// and whose reads and writes are serialised by an internal mutex.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps go-cache with the expiry bookkeeping the taxonomy cache needs.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
// A cleanupInterval <= 0 disables the background janitor; expired items are
// then only dropped lazily on access.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value that has not yet expired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// GetWithExpiration retrieves a live value along with its expiry time.
func (c *Cache) GetWithExpiration(key string) (any, time.Time, bool) {
	return c.store.GetWithExpiration(key)
}

// Set stores a value in the cache with default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value in the cache with custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache, including expired
// items that have not been cleaned up yet.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
