package cache

import (
	"context"

	"github.com/evyataryagoni/ipweather/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

const defaultKey = "default"

// MemoryCache implements DefaultCache in process memory.
// go-cache's Add refuses to overwrite, which gives set-once semantics
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an empty cache. Entries never expire and no
// janitor goroutine is started
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get implements DefaultCache
func (c *MemoryCache) Get(ctx context.Context) (*models.DefaultEntry, bool, error) {
	value, found := c.items.Get(defaultKey)
	if !found {
		return nil, false, nil
	}
	entry := value.(models.DefaultEntry)
	return &entry, true, nil
}

// SetOnce implements DefaultCache
func (c *MemoryCache) SetOnce(ctx context.Context, entry models.DefaultEntry) (bool, error) {
	if err := c.items.Add(defaultKey, entry, gocache.NoExpiration); err != nil {
		// Add only fails when the key already exists
		return false, nil
	}
	return true, nil
}

// Backend implements DefaultCache
func (c *MemoryCache) Backend() string {
	return "memory"
}

// Close drops the entry
func (c *MemoryCache) Close() error {
	c.items.Flush()
	return nil
}
