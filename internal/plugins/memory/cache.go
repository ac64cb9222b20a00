package memory

import (
	"context"
	"sync"
)

// CacheInvalidator records invalidations in process memory. Used when
// no Redis is configured; the record doubles as an inspection point.
type CacheInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func NewCacheInvalidator() *CacheInvalidator {
	return &CacheInvalidator{}
}

func (c *CacheInvalidator) Invalidate(ctx context.Context, resource, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, resource+":"+id, resource+":list")
	return nil
}

// Invalidated returns a copy of every key invalidated so far.
func (c *CacheInvalidator) Invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}
