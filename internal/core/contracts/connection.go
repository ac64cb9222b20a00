package contracts

import (
	"context"

	"payesh/internal/core/domain"
)

// EventHandler receives one inbound delivery for a bound (channel, event)
// pair. Handlers must not block the transport's read loop.
type EventHandler func(ctx context.Context, ev domain.Event)

// Connection is the single live handle to the broadcaster. Exactly one
// instance exists per authenticated session; only the registry creates
// or destroys it, everything else subscribes through it.
type Connection interface {
	// SocketID identifies this connection to the broadcaster, used when
	// requesting private-channel auth signatures.
	SocketID() string
	// Subscribe joins a named channel. Private channels (private- prefix)
	// are authorized against the application before joining.
	Subscribe(ctx context.Context, channel string) error
	// Bind registers a handler for an event name on a joined channel.
	Bind(channel, event string, handler EventHandler)
	// Leave unsubscribes from a channel and drops all its bindings.
	// Leaving a channel that was never joined is a no-op.
	Leave(channel string)
	// Close tears down the transport. Idempotent.
	Close()
}

// Transport dials the broadcaster and produces Connections.
type Transport interface {
	Connect(ctx context.Context, cred domain.Credential) (Connection, error)
}
