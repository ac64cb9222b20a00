package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/pkg/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BroadcastTransport reads the backend's broadcast bus directly: the
// backend publishes {"event":...,"data":...} JSON on a Redis channel
// named after the broadcast channel. Used when the notifier daemon
// runs next to the backend; private-channel auth does not apply here
// because bus access is the trust boundary.
type BroadcastTransport struct {
	log *slog.Logger
	rdb *redis.Client
}

func NewBroadcastTransport(log *slog.Logger, rdb *redis.Client) *BroadcastTransport {
	return &BroadcastTransport{log: log, rdb: rdb}
}

func (t *BroadcastTransport) Connect(ctx context.Context, cred domain.Credential) (contracts.Connection, error) {
	pubsub := t.rdb.Subscribe(ctx)
	c := &broadcastConn{
		log:      t.log,
		pubsub:   pubsub,
		socketID: uuid.NewString(),
		handlers: make(map[string]map[string][]contracts.EventHandler),
		joined:   make(map[string]bool),
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go c.readLoop()
	t.log.InfoContext(ctx, "redis - connect - broadcast bus attached",
		logging.Transport(string(domain.StateConnected)), logging.SocketID(c.socketID))
	return c, nil
}

type broadcastConn struct {
	log      *slog.Logger
	pubsub   *redis.PubSub
	socketID string

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu       sync.Mutex
	handlers map[string]map[string][]contracts.EventHandler
	joined   map[string]bool
}

// busMessage is what the backend's broadcaster publishes on the bus.
type busMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *broadcastConn) SocketID() string {
	return c.socketID
}

func (c *broadcastConn) Subscribe(ctx context.Context, channel string) error {
	if err := c.pubsub.Subscribe(ctx, channel); err != nil {
		return err
	}
	c.mu.Lock()
	c.joined[channel] = true
	c.mu.Unlock()
	return nil
}

func (c *broadcastConn) Bind(channel, event string, handler contracts.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers[channel] == nil {
		c.handlers[channel] = make(map[string][]contracts.EventHandler)
	}
	c.handlers[channel][event] = append(c.handlers[channel][event], handler)
}

func (c *broadcastConn) Leave(channel string) {
	c.mu.Lock()
	if !c.joined[channel] {
		c.mu.Unlock()
		return
	}
	delete(c.joined, channel)
	delete(c.handlers, channel)
	c.mu.Unlock()

	if err := c.pubsub.Unsubscribe(context.Background(), channel); err != nil {
		c.log.Warn("redis - leave - unsubscribe failed", logging.Channel(channel), logging.Err(err))
	}
}

func (c *broadcastConn) Close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.pubsub.Close()
		c.log.Info("redis - close - broadcast bus detached",
			logging.Transport(string(domain.StateDisconnected)), logging.SocketID(c.socketID))
	})
}

func (c *broadcastConn) readLoop() {
	defer c.Close()
	ch := c.pubsub.Channel()
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bm busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				c.log.Warn("redis - read loop - unparsable bus message",
					logging.Channel(msg.Channel), logging.Err(err))
				continue
			}

			c.mu.Lock()
			var bound []contracts.EventHandler
			if events := c.handlers[msg.Channel]; events != nil {
				bound = append(bound, events[bm.Event]...)
			}
			c.mu.Unlock()

			ev := domain.Event{Channel: msg.Channel, Name: bm.Event, Payload: bm.Data}
			for _, handler := range bound {
				handler(c.ctx, ev)
			}
		}
	}
}
