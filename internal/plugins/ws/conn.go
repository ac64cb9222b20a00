package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"payesh/internal/config"
	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/pkg/logging"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 512 * 1024 // protects against memory exhaustion
)

// frame is one wire message in either direction.
type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// subscribePayload is the client half of channel subscription.
type subscribePayload struct {
	Channel string `json:"channel"`
	Auth    string `json:"auth,omitempty"`
}

// Conn is the live broadcaster connection. It owns the read loop and
// the keepalive; handlers are bound per (channel, event) and invoked
// from the read loop.
type Conn struct {
	log      *slog.Logger
	ws       *websocket.Conn
	cfg      config.BroadcastConfig
	cred     domain.Credential
	socketID string
	httpc    *http.Client

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	writeMu  sync.Mutex // serializes all conn writes (subscribe, pong, ping)
	mu       sync.Mutex // guards handlers and joined
	handlers map[string]map[string][]contracts.EventHandler
	joined   map[string]bool
}

func newConn(parent context.Context, log *slog.Logger, ws *websocket.Conn, cfg config.BroadcastConfig, cred domain.Credential, socketID string, httpc *http.Client) *Conn {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	c := &Conn{
		log:      log,
		ws:       ws,
		cfg:      cfg,
		cred:     cred,
		socketID: socketID,
		httpc:    httpc,
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[string]map[string][]contracts.EventHandler),
		joined:   make(map[string]bool),
	}
	ws.SetReadLimit(readLimit)
	go c.readLoop()
	go c.pingLoop()
	return c
}

func (c *Conn) SocketID() string {
	return c.socketID
}

// Subscribe joins a channel. Private channels are authorized against
// the application's auth endpoint first.
func (c *Conn) Subscribe(ctx context.Context, channel string) error {
	payload := subscribePayload{Channel: channel}
	if strings.HasPrefix(channel, domain.PrivateChannelPrefix) {
		auth, err := c.authorize(ctx, channel)
		if err != nil {
			return err
		}
		payload.Auth = auth
	}
	data, _ := json.Marshal(payload)
	if err := c.write(frame{Event: domain.EventSubscribe, Data: data}); err != nil {
		return err
	}
	c.mu.Lock()
	c.joined[channel] = true
	c.mu.Unlock()
	return nil
}

// Bind registers a handler for an event name on a channel.
func (c *Conn) Bind(channel, event string, handler contracts.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers[channel] == nil {
		c.handlers[channel] = make(map[string][]contracts.EventHandler)
	}
	c.handlers[channel][event] = append(c.handlers[channel][event], handler)
}

// Leave unsubscribes from a channel and drops its bindings. No-op for
// channels that were never joined.
func (c *Conn) Leave(channel string) {
	c.mu.Lock()
	if !c.joined[channel] {
		c.mu.Unlock()
		return
	}
	delete(c.joined, channel)
	delete(c.handlers, channel)
	c.mu.Unlock()

	data, _ := json.Marshal(subscribePayload{Channel: channel})
	if err := c.write(frame{Event: domain.EventUnsubscribe, Data: data}); err != nil {
		c.log.Warn("ws - leave - unsubscribe write failed", logging.Channel(channel), logging.Err(err))
	}
}

// Close tears down the connection. Idempotent.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.ws.Close()
		c.log.Info("ws - close - connection closed",
			logging.Transport(string(domain.StateDisconnected)), logging.SocketID(c.socketID))
	})
}

func (c *Conn) write(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(f)
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				// Closed on purpose; nothing to report.
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.log.Error("ws - read loop - transport error",
						logging.Transport(string(domain.StateError)), logging.Err(err))
				}
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warn("ws - read loop - unparsable frame", logging.Err(err))
			continue
		}
		c.dispatch(f)
	}
}

func (c *Conn) dispatch(f frame) {
	switch f.Event {
	case domain.EventPing:
		if err := c.write(frame{Event: domain.EventPong}); err != nil {
			c.log.Warn("ws - dispatch - pong write failed", logging.Err(err))
		}
		return
	case domain.EventPong:
		return
	case domain.EventSubscriptionSucceeded:
		c.log.Debug("ws - dispatch - subscription confirmed", logging.Channel(f.Channel))
		return
	case domain.EventProtocolError:
		// Diagnostics only; transport errors never tear down the handle.
		c.log.Error("ws - dispatch - broadcaster error",
			logging.Transport(string(domain.StateError)), slog.String("detail", string(f.Data)))
		return
	}

	c.mu.Lock()
	var bound []contracts.EventHandler
	if events := c.handlers[f.Channel]; events != nil {
		bound = append(bound, events[f.Event]...)
	}
	c.mu.Unlock()

	ev := domain.Event{Channel: f.Channel, Name: f.Event, Payload: f.Data}
	for _, handler := range bound {
		handler(c.ctx, ev)
	}
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(frame{Event: domain.EventPing}); err != nil {
				return
			}
		}
	}
}
