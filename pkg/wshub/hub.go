package wshub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"marketbeat/internal/market"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// ErrHubClosed is returned by Publish after Close.
var ErrHubClosed = errors.New("websocket hub closed")

// Hub broadcasts snapshots to websocket subscribers. It implements market.Publisher.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	latest  map[string]market.Snapshot
	closed  bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*subscriber]struct{}),
		latest:  make(map[string]market.Snapshot),
	}
}

// Publish pushes snapshot to every connected subscriber.
// Subscribers whose buffer is full are dropped rather than blocking the caller.
func (h *Hub) Publish(_ context.Context, topic string, snapshot market.Snapshot) error {
	payload, err := json.Marshal(Message{
		Type:  MessageTypeUpdate,
		Topic: topic,
		Data:  map[string]market.Snapshot{snapshot.Symbol: snapshot},
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.latest[snapshot.Symbol] = snapshot

	for sub := range h.clients {
		select {
		case sub.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket subscriber", zap.String("remote", sub.conn.RemoteAddr().String()))
			h.removeLocked(sub)
		}
	}
	return nil
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the connection as a subscriber.
// The latest known snapshots are replayed immediately so a new subscriber is not blank until the next heartbeat.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[sub] = struct{}{}
	if len(h.latest) > 0 {
		data := make(map[string]market.Snapshot, len(h.latest))
		for k, v := range h.latest {
			data[k] = v
		}
		if payload, err := json.Marshal(Message{Type: MessageTypeUpdate, Topic: market.TopicSnapshot, Data: data}); err == nil {
			sub.send <- payload
		}
	}
	h.mu.Unlock()

	h.logger.Info("websocket subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(sub)
	h.readPump(sub)
}

// Close disconnects every subscriber. Later Publish calls fail with ErrHubClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.clients {
		h.removeLocked(sub)
	}
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	h.removeLocked(sub)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(sub *subscriber) {
	if _, ok := h.clients[sub]; !ok {
		return
	}
	delete(h.clients, sub)
	close(sub.send)
}

// readPump drains inbound frames so pongs and close frames are processed.
func (h *Hub) readPump(sub *subscriber) {
	defer func() {
		h.remove(sub)
		_ = sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket subscriber read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
