package registry

import (
	"context"
	"log/slog"
	"sync"

	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/pkg/logging"
)

// ConnRegistry holds the process-wide connection handle: at most one
// live connection per authenticated session. It is the only component
// allowed to create or destroy the handle; consumers read it through
// Get or register interest through OnReady.
type ConnRegistry struct {
	log       *slog.Logger
	transport contracts.Transport

	mu      sync.Mutex
	conn    contracts.Connection
	waiters []func(contracts.Connection)
}

func NewConnRegistry(log *slog.Logger, transport contracts.Transport) *ConnRegistry {
	return &ConnRegistry{
		log:       log,
		transport: transport,
	}
}

// Create establishes the connection if none exists. Idempotent: when a
// handle already exists it is returned without dialing the transport a
// second time. On first success all pending readiness waiters fire in
// registration order and the waiter list is cleared.
func (r *ConnRegistry) Create(ctx context.Context, cred domain.Credential) (contracts.Connection, error) {
	r.mu.Lock()
	if r.conn != nil {
		conn := r.conn
		r.mu.Unlock()
		return conn, nil
	}
	if !cred.Present() {
		r.mu.Unlock()
		return nil, domain.ErrNoCredential
	}
	r.mu.Unlock()

	// Dial without holding the lock so Get and OnReady stay responsive
	// through a slow handshake.
	conn, err := r.transport.Connect(ctx, cred)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - create - transport connect failed", logging.Err(err))
		return nil, err
	}

	r.mu.Lock()
	if r.conn != nil {
		// A concurrent create won the race; keep its handle.
		existing := r.conn
		r.mu.Unlock()
		conn.Close()
		return existing, nil
	}
	r.conn = conn
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()

	r.log.InfoContext(ctx, "registry - create - connection established",
		logging.SocketID(conn.SocketID()), slog.Int("pending_waiters", len(waiters)))
	for _, fn := range waiters {
		fn(conn)
	}
	return conn, nil
}

// Get returns the current handle, nil when no session is active.
func (r *ConnRegistry) Get() contracts.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn
}

// Destroy closes the transport and clears the handle. Safe to call
// when nothing exists.
func (r *ConnRegistry) Destroy() {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn == nil {
		return
	}
	conn.Close()
	r.log.Info("registry - destroy - connection closed")
}

// OnReady invokes fn with the handle: immediately and synchronously
// when one exists, otherwise exactly once upon the next successful
// Create.
func (r *ConnRegistry) OnReady(fn func(contracts.Connection)) {
	r.mu.Lock()
	if conn := r.conn; conn != nil {
		r.mu.Unlock()
		fn(conn)
		return
	}
	r.waiters = append(r.waiters, fn)
	r.mu.Unlock()
}
