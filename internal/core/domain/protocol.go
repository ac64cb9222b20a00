package domain

// Broadcaster protocol event names (Pusher-compatible wire protocol).
const (
	EventConnectionEstablished = "pusher:connection_established"
	EventSubscribe             = "pusher:subscribe"
	EventUnsubscribe           = "pusher:unsubscribe"
	EventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	EventPing                  = "pusher:ping"
	EventPong                  = "pusher:pong"
	EventProtocolError         = "pusher:error"
)

// Transport connection states. Observational only: state changes are
// logged but never drive lifecycle control flow.
type TransportState string

const (
	StateConnecting   TransportState = "connecting"
	StateConnected    TransportState = "connected"
	StateError        TransportState = "error"
	StateDisconnected TransportState = "disconnected"
	StateUnavailable  TransportState = "unavailable"
)

// PrivateChannelPrefix marks channels that require an auth signature
// from the application before the broadcaster accepts the subscription.
const PrivateChannelPrefix = "private-"
