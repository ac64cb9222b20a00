package contracts

import (
	"context"

	"payesh/internal/core/domain"
)

// ConnectionRegistry owns the process-wide connection handle and the
// readiness waiter list. It is the single writer of the handle; all
// other components only read it or register interest in it.
type ConnectionRegistry interface {
	// Create establishes the connection if none exists. Idempotent: an
	// existing handle is returned as-is without dialing again. Fails
	// when the credential is absent. On first success all pending
	// readiness waiters fire, in registration order.
	Create(ctx context.Context, cred domain.Credential) (Connection, error)
	// Get returns the current handle, nil when no session is active.
	Get() Connection
	// Destroy closes the transport and clears the handle. Idempotent.
	Destroy()
	// OnReady invokes fn with the handle: immediately and synchronously
	// when one exists, otherwise exactly once upon the next successful
	// Create. Each registered callback fires at most once.
	OnReady(fn func(Connection))
}
