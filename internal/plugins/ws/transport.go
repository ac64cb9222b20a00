package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"payesh/internal/config"
	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/pkg/logging"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	clientName       = "payesh-notify"
	clientVersion    = "1.0"
)

// Transport dials the platform's Pusher-compatible broadcaster.
type Transport struct {
	log  *slog.Logger
	cfg  config.BroadcastConfig
	http *http.Client
}

func NewTransport(log *slog.Logger, cfg config.BroadcastConfig) *Transport {
	return &Transport{
		log: log,
		cfg: cfg,
		http: &http.Client{
			Timeout: handshakeTimeout,
		},
	}
}

// Connect dials the broadcaster's app endpoint and waits for the
// connection_established handshake carrying our socket id.
func (t *Transport) Connect(ctx context.Context, cred domain.Credential) (contracts.Connection, error) {
	endpoint := fmt.Sprintf("%s://%s:%s/app/%s?protocol=7&client=%s&version=%s",
		t.cfg.Scheme, t.cfg.Host, t.cfg.Port, t.cfg.AppKey, clientName, clientVersion)

	t.log.InfoContext(ctx, "ws - connect - dialing broadcaster",
		logging.Transport(string(domain.StateConnecting)), slog.String("host", t.cfg.Host))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		t.log.ErrorContext(ctx, "ws - connect - broadcaster unreachable",
			logging.Transport(string(domain.StateUnavailable)), logging.Err(err))
		return nil, fmt.Errorf("dial broadcaster: %w", err)
	}

	socketID, err := awaitHandshake(conn)
	if err != nil {
		_ = conn.Close()
		t.log.ErrorContext(ctx, "ws - connect - handshake failed",
			logging.Transport(string(domain.StateError)), logging.Err(err))
		return nil, err
	}

	c := newConn(ctx, t.log, conn, t.cfg, cred, socketID, t.http)
	t.log.InfoContext(ctx, "ws - connect - connection established",
		logging.Transport(string(domain.StateConnected)), logging.SocketID(socketID))
	return c, nil
}

func awaitHandshake(conn *websocket.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("read handshake: %w", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse handshake: %w", err)
	}
	switch f.Event {
	case domain.EventConnectionEstablished:
	case domain.EventProtocolError:
		return "", fmt.Errorf("%w: %s", domain.ErrSubscribeRejected, string(f.Data))
	default:
		return "", fmt.Errorf("unexpected handshake event %q", f.Event)
	}

	// The broadcaster double-encodes handshake data as a JSON string.
	var established struct {
		SocketID string `json:"socket_id"`
	}
	payload := f.Data
	var inner string
	if err := json.Unmarshal(f.Data, &inner); err == nil {
		payload = []byte(inner)
	}
	if err := json.Unmarshal(payload, &established); err != nil {
		return "", fmt.Errorf("parse socket id: %w", err)
	}
	if established.SocketID == "" {
		return "", fmt.Errorf("handshake carried no socket id")
	}
	return established.SocketID, nil
}
