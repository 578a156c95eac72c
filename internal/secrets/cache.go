package secrets

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 300 * time.Second

// Cache holds one fetched value until it is older than its TTL. Create one
// per process and share it with every caller that needs the value.
type Cache struct {
	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	value     string
	fetchedAt time.Time
	valid     bool
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the cached value while it is fresh.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked()
}

// Set stores value and restarts its TTL.
func (c *Cache) Set(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.fetchedAt = c.now()
	c.valid = true
}

// GetOrFetch returns the fresh value or calls fetch and caches its result.
// Failed fetches are not cached.
func (c *Cache) GetOrFetch(ctx context.Context, fetch func(context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, ok := c.freshLocked(); ok {
		return value, nil
	}
	value, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	c.value = value
	c.fetchedAt = c.now()
	c.valid = true
	return value, nil
}

func (c *Cache) freshLocked() (string, bool) {
	if !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl {
		return "", false
	}
	return c.value, true
}
