package contracts

import "context"

// CacheInvalidator drops the cached detail and list views of a resource
// so the next read refetches. Called after an approved/generated
// classification; never called for rejected or informational events.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, resource, id string) error
}
