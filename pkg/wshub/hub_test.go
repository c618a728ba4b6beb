package wshub

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"marketbeat/internal/market"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// go test -v --run TestHub_BroadcastsToSubscribers
func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	snap := market.Snapshot{Symbol: "AAPL", Price: 100.5, Macd: 0.1, Signal: 0.2, Hist: -0.1, Ts: 1700000000}
	require.NoError(t, hub.Publish(t.Context(), market.TopicSnapshot, snap))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeUpdate, msg.Type)
	assert.Equal(t, market.TopicSnapshot, msg.Topic)
	assert.Equal(t, snap, msg.Data["AAPL"])
}

// go test -v --run TestHub_ReplaysLatestOnConnect
func TestHub_ReplaysLatestOnConnect(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	snap := market.Snapshot{Symbol: "AAPL", Price: 99, Ts: 1700000001}
	require.NoError(t, hub.Publish(t.Context(), market.TopicSnapshot, snap))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, snap, msg.Data["AAPL"])
}

// go test -v --run TestHub_PublishAfterClose
func TestHub_PublishAfterClose(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Close())
	require.ErrorIs(t, hub.Publish(t.Context(), market.TopicSnapshot, market.Snapshot{Symbol: "AAPL"}), ErrHubClosed)
}

// go test -v --run TestClient_ReceivesAndStops
func TestClient_ReceivesAndStops(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	var mu sync.Mutex
	var got []Message
	client := NewClient(wsURL(server), nil)
	client.SetMessageHandler(func(m Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, client.Connect(ctx))

	done := make(chan struct{})
	go func() {
		client.Listen(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish(t.Context(), market.TopicSnapshot, market.Snapshot{Symbol: "AAPL", Price: 1, Ts: 1}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

// go test -v --run TestRetryDelay
func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, RetryDelay(0))
	assert.Equal(t, 2*time.Second, RetryDelay(1))
	assert.Equal(t, 16*time.Second, RetryDelay(4))
	assert.Equal(t, 30*time.Second, RetryDelay(5))
	assert.Equal(t, 30*time.Second, RetryDelay(40))
}
