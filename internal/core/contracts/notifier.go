package contracts

import (
	"context"

	"payesh/internal/core/domain"
)

// Notifier renders a transient user-facing toast for a classified
// business event. Feature subscribers are the sole callers.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice) error
}
