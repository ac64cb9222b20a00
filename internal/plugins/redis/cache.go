package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// CacheInvalidator drops the platform's cached detail and list views
// for a resource so the next REST read refetches.
type CacheInvalidator struct {
	rdb *redis.Client
}

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator {
	return &CacheInvalidator{rdb: rdb}
}

func (c *CacheInvalidator) Invalidate(ctx context.Context, resource, id string) error {
	return c.rdb.Del(ctx,
		"cache:"+resource+":"+id,
		"cache:"+resource+":list",
	).Err()
}
