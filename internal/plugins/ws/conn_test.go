package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"payesh/internal/config"
	"payesh/internal/core/domain"

	"github.com/gorilla/websocket"
)

type wireFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// fakeBroadcaster is a scripted Pusher-compatible endpoint.
type fakeBroadcaster struct {
	srv        *httptest.Server
	writeMu    sync.Mutex
	subscribes chan subscribePayload
	frames     chan wireFrame
	sendEvents chan wireFrame
}

func (b *fakeBroadcaster) writeFrame(conn *websocket.Conn, f wireFrame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(f)
}

func newFakeBroadcaster(t *testing.T, appKey string) *fakeBroadcaster {
	t.Helper()
	b := &fakeBroadcaster{
		subscribes: make(chan subscribePayload, 8),
		frames:     make(chan wireFrame, 8),
		sendEvents: make(chan wireFrame, 8),
	}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/"+appKey {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		handshake, _ := json.Marshal(`{"socket_id":"81.1","activity_timeout":120}`)
		if err := conn.WriteJSON(wireFrame{Event: domain.EventConnectionEstablished, Data: handshake}); err != nil {
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var f wireFrame
				if err := conn.ReadJSON(&f); err != nil {
					return
				}
				if f.Event == domain.EventSubscribe {
					var p subscribePayload
					_ = json.Unmarshal(f.Data, &p)
					b.subscribes <- p
					_ = b.writeFrame(conn, wireFrame{
						Event:   domain.EventSubscriptionSucceeded,
						Channel: p.Channel,
						Data:    json.RawMessage(`"{}"`),
					})
					continue
				}
				b.frames <- f
			}
		}()
		for {
			select {
			case <-done:
				return
			case f := <-b.sendEvents:
				if err := b.writeFrame(conn, f); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBroadcaster) config(t *testing.T, appKey, authEndpoint string) config.BroadcastConfig {
	t.Helper()
	u, err := url.Parse(b.srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	return config.BroadcastConfig{
		Driver:       "ws",
		Scheme:       "ws",
		Host:         host,
		Port:         port,
		AppKey:       appKey,
		AuthEndpoint: authEndpoint,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connect(t *testing.T, b *fakeBroadcaster, appKey, authEndpoint string) *Conn {
	t.Helper()
	transport := NewTransport(discardLogger(), b.config(t, appKey, authEndpoint))
	conn, err := transport.Connect(context.Background(), domain.Credential{Token: "tok"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c := conn.(*Conn)
	t.Cleanup(c.Close)
	return c
}

func TestConnect_HandshakeYieldsSocketID(t *testing.T) {
	b := newFakeBroadcaster(t, "testkey")
	c := connect(t, b, "testkey", "")
	if c.SocketID() != "81.1" {
		t.Errorf("SocketID = %q, want 81.1", c.SocketID())
	}
}

func TestSubscribe_PublicChannelDeliversBoundEvents(t *testing.T) {
	b := newFakeBroadcaster(t, "testkey")
	c := connect(t, b, "testkey", "")

	got := make(chan domain.Event, 1)
	c.Bind("App.User.42", "ImageApproved", func(ctx context.Context, ev domain.Event) {
		got <- ev
	})
	if err := c.Subscribe(context.Background(), "App.User.42"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case p := <-b.subscribes:
		if p.Channel != "App.User.42" {
			t.Fatalf("broadcaster saw channel %q", p.Channel)
		}
		if p.Auth != "" {
			t.Errorf("public channel should carry no auth, got %q", p.Auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster never received the subscribe frame")
	}

	b.sendEvents <- wireFrame{
		Event:   "ImageApproved",
		Channel: "App.User.42",
		Data:    json.RawMessage(`"{\"status\":\"approved\",\"message\":\"ok\"}"`),
	}
	select {
	case ev := <-got:
		if ev.Channel != "App.User.42" || ev.Name != "ImageApproved" {
			t.Errorf("delivered (%q, %q)", ev.Channel, ev.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bound handler never fired")
	}
}

func TestSubscribe_PrivateChannelFetchesAuthSignature(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("channel_name"); got != "private-user.42" {
			t.Errorf("channel_name = %q", got)
		}
		if got := r.PostForm.Get("socket_id"); got != "81.1" {
			t.Errorf("socket_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"auth":"testkey:signature"}`))
	}))
	defer authSrv.Close()

	b := newFakeBroadcaster(t, "testkey")
	c := connect(t, b, "testkey", authSrv.URL)

	if err := c.Subscribe(context.Background(), "private-user.42"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case p := <-b.subscribes:
		if p.Auth != "testkey:signature" {
			t.Errorf("auth = %q, want testkey:signature", p.Auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster never received the subscribe frame")
	}
}

func TestSubscribe_PrivateChannelAuthRejection(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer authSrv.Close()

	b := newFakeBroadcaster(t, "testkey")
	c := connect(t, b, "testkey", authSrv.URL)

	if err := c.Subscribe(context.Background(), "private-user.42"); err == nil {
		t.Fatal("expected auth rejection error")
	}
}

func TestLeave_SendsUnsubscribeAndDropsBindings(t *testing.T) {
	b := newFakeBroadcaster(t, "testkey")
	c := connect(t, b, "testkey", "")

	fired := make(chan struct{}, 1)
	c.Bind("App.User.42", "ImageApproved", func(ctx context.Context, ev domain.Event) {
		fired <- struct{}{}
	})
	if err := c.Subscribe(context.Background(), "App.User.42"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	<-b.subscribes

	c.Leave("App.User.42")
	select {
	case f := <-b.frames:
		if f.Event != domain.EventUnsubscribe {
			t.Errorf("broadcaster saw %q, want unsubscribe", f.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster never received the unsubscribe frame")
	}

	// Events arriving after leave find no bindings.
	b.sendEvents <- wireFrame{
		Event:   "ImageApproved",
		Channel: "App.User.42",
		Data:    json.RawMessage(`"{}"`),
	}
	select {
	case <-fired:
		t.Error("handler fired after Leave")
	case <-time.After(200 * time.Millisecond):
	}

	// Leaving again is a no-op.
	c.Leave("App.User.42")
}

func TestDispatch_RespondsToPing(t *testing.T) {
	b := newFakeBroadcaster(t, "testkey")
	connect(t, b, "testkey", "")

	b.sendEvents <- wireFrame{Event: domain.EventPing}
	select {
	case f := <-b.frames:
		if f.Event != domain.EventPong {
			t.Errorf("got %q, want pong", f.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestConnect_WrongAppKeyFails(t *testing.T) {
	b := newFakeBroadcaster(t, "rightkey")
	transport := NewTransport(discardLogger(), b.config(t, "wrongkey", ""))
	if _, err := transport.Connect(context.Background(), domain.Credential{Token: "tok"}); err == nil {
		t.Fatal("expected dial failure for unknown app key")
	}
}
