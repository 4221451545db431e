package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain keeps a server connection open until the client goes away.
func drain(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// confirm reads one logsSubscribe request and answers it with subID.
func confirm(t *testing.T, c *websocket.Conn, subID int64) (wsRequest, bool) {
	t.Helper()
	_, msg, err := c.ReadMessage()
	if err != nil {
		return wsRequest{}, false
	}
	var req wsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		t.Errorf("unmarshal request: %v", err)
		return wsRequest{}, false
	}
	if req.Method != "logsSubscribe" {
		t.Errorf("expected logsSubscribe, got %s", req.Method)
	}
	if err := c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: subID}); err != nil {
		t.Errorf("write response: %v", err)
		return req, false
	}
	return req, true
}

func notify(c *websocket.Conn, subID int64, sig string, slot int64) error {
	return c.WriteJSON(wsNotification{
		JSONRPC: "2.0",
		Method:  "logsNotification",
		Params: &wsNotificationParams{
			Subscription: subID,
			Result: wsNotificationResult{
				Context: &wsContext{Slot: slot},
				Value: wsLogsValue{
					Signature: sig,
					Logs:      []string{"Program log: Instruction: InitializeMint2"},
				},
			},
		},
	})
}

func TestWSClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_ConnectFailure(t *testing.T) {
	if _, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", nil); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWSClient_SubscribeLogs(t *testing.T) {
	params := make(chan []interface{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		req, ok := confirm(t, c, 12345)
		if !ok {
			return
		}
		params <- req.Params

		time.Sleep(50 * time.Millisecond)
		if err := notify(c, 12345, "testsig", 100); err != nil {
			t.Errorf("write notification: %v", err)
			return
		}
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(ctx, LogsFilter{Mentions: []string{PumpFunProgramID}})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	p := <-params
	if len(p) != 2 {
		t.Fatalf("expected 2 params, got %d", len(p))
	}
	filter, ok := p[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected mentions object, got %T", p[0])
	}
	mentions, _ := filter["mentions"].([]interface{})
	if len(mentions) != 1 || mentions[0] != PumpFunProgramID {
		t.Errorf("unexpected mentions %v", filter["mentions"])
	}
	opts, _ := p[1].(map[string]interface{})
	if opts["commitment"] != "confirmed" {
		t.Errorf("expected confirmed commitment, got %v", opts["commitment"])
	}

	select {
	case n := <-ch:
		if n.Signature != "testsig" {
			t.Errorf("expected testsig, got %s", n.Signature)
		}
		if len(n.Logs) != 1 {
			t.Errorf("expected 1 log, got %d", len(n.Logs))
		}
		if n.Slot != 100 {
			t.Errorf("expected slot 100, got %d", n.Slot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestLogsSubscribeParams_All(t *testing.T) {
	p := logsSubscribeParams(LogsFilter{Commitment: "finalized"})
	if p[0] != "all" {
		t.Errorf("expected all, got %v", p[0])
	}
	if c := p[1].(map[string]string)["commitment"]; c != "finalized" {
		t.Errorf("expected finalized, got %s", c)
	}
}

func TestWSClient_SubscribeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.SubscribeTimeout = 50 * time.Millisecond
	client, err := NewWSClient(context.Background(), wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	_, err = client.SubscribeLogs(context.Background(), LogsFilter{})
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected subscription timeout, got %v", err)
	}
}

func TestWSClient_ResubscribesAfterReconnect(t *testing.T) {
	var conns atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		n := conns.Add(1)
		subID := int64(n * 100)
		if _, ok := confirm(t, c, subID); !ok {
			return
		}
		if n == 1 {
			// Drop the first connection once the subscription is registered.
			time.Sleep(100 * time.Millisecond)
			return
		}
		if err := notify(c, subID, "after-reconnect", 7); err != nil {
			return
		}
		drain(c)
	}))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond
	client, err := NewWSClient(context.Background(), wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(context.Background(), LogsFilter{Mentions: []string{PumpFunProgramID}})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case n := <-ch:
		if n.Signature != "after-reconnect" {
			t.Errorf("expected after-reconnect, got %s", n.Signature)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for notification after reconnect")
	}
	if conns.Load() < 2 {
		t.Errorf("expected a second connection, got %d", conns.Load())
	}
}

func TestWSClient_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		if _, ok := confirm(t, c, 1); !ok {
			return
		}
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	ch, err := client.SubscribeLogs(ctx, LogsFilter{})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}
	if _, ok := <-ch; ok {
		t.Error("subscription channel should be closed")
	}

	// Double close should be safe
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	client.Close()

	_, err = client.SubscribeLogs(ctx, LogsFilter{})
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestWSClient_CustomConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	defer server.Close()

	config := &WSClientConfig{
		ReconnectDelay:    100 * time.Millisecond,
		MaxReconnectDelay: 1 * time.Second,
		PingInterval:      5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Second,
	}

	client, err := NewWSClient(context.Background(), wsURL(server), config)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.config.PingInterval != 5*time.Second {
		t.Errorf("expected PingInterval 5s, got %v", client.config.PingInterval)
	}
	if client.config.BufferSize != 1024 {
		t.Errorf("expected default BufferSize 1024, got %d", client.config.BufferSize)
	}
}

func newDetachedClient() *LogsClient {
	return &LogsClient{
		config:  DefaultWSConfig(),
		logger:  zerolog.Nop(),
		subs:    make(map[int64]*subscription),
		pending: make(map[uint64]*pendingSub),
		done:    make(chan struct{}),
	}
}

func notificationFrame(t *testing.T, subID int64, sig string) []byte {
	t.Helper()
	frame, err := json.Marshal(wsNotification{
		JSONRPC: "2.0",
		Method:  "logsNotification",
		Params: &wsNotificationParams{
			Subscription: subID,
			Result:       wsNotificationResult{Value: wsLogsValue{Signature: sig}},
		},
	})
	if err != nil {
		t.Fatalf("marshal notification: %v", err)
	}
	return frame
}

func TestWSClient_NotificationRightAfterConfirmation(t *testing.T) {
	c := newDetachedClient()
	sub := &subscription{ch: make(chan LogNotification, 1)}
	p := &pendingSub{sub: sub, confirm: make(chan int64, 1)}
	c.pending[7] = p

	// Both frames are handled before the subscriber goroutine runs.
	c.handleMessage([]byte(`{"jsonrpc":"2.0","id":7,"result":42}`))
	c.handleMessage(notificationFrame(t, 42, "first"))

	select {
	case n := <-sub.ch:
		assert.Equal(t, "first", n.Signature)
	default:
		t.Fatal("notification following the confirmation was dropped")
	}
	assert.Equal(t, int64(42), <-p.confirm)
	assert.Empty(t, c.pending)
}

func TestWSClient_ResubscribeReplacesStaleID(t *testing.T) {
	c := newDetachedClient()
	sub := &subscription{ch: make(chan LogNotification, 2)}
	c.subs[100] = sub
	c.pending[3] = &pendingSub{sub: sub, replaces: 100, confirm: make(chan int64, 1)}

	c.handleMessage([]byte(`{"jsonrpc":"2.0","id":3,"result":200}`))
	c.handleMessage(notificationFrame(t, 200, "fresh"))
	c.handleMessage(notificationFrame(t, 100, "stale"))

	require.Len(t, c.subs, 1)
	assert.Same(t, sub, c.subs[200])
	require.Len(t, sub.ch, 1)
	assert.Equal(t, "fresh", (<-sub.ch).Signature)
}

func TestWSClient_ConfirmationBeatsTimeout(t *testing.T) {
	c := newDetachedClient()
	p := &pendingSub{sub: &subscription{ch: make(chan LogNotification, 1)}, confirm: make(chan int64, 1)}
	c.pending[9] = p
	c.handleSubscribeResponse(&wsSubscribeResponse{ID: 9, Result: 5})

	subID, err := c.confirmed(p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), subID)
}
