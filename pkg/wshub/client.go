package wshub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	initialRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Client subscribes to a hub and hands every decoded message to a handler,
// reconnecting with exponential delay until its context ends.
type Client struct {
	url     string
	mu      sync.Mutex
	conn    *websocket.Conn
	handler func(Message)
	logger  *zap.Logger
	dialer  *websocket.Dialer
}

// NewClient creates a new WebSocket client with the given URL and logger.
func NewClient(url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:    url,
		logger: logger,
		dialer: websocket.DefaultDialer,
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *Client) SetMessageHandler(h func(Message)) {
	c.handler = h
}

// Connect establishes the WebSocket connection. It does not start the listener.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Error("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("WebSocket connected", zap.String("url", c.url))
	return nil
}

// Listen reads until ctx is done, reconnecting after every read error.
func (c *Client) Listen(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		if ctx.Err() != nil {
			_ = c.Close()
			return
		}
		conn := c.current()
		if conn == nil {
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))
			_ = c.Close()
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Warn("failed to decode message", zap.Error(err))
			continue
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// Close closes the current connection, if any. Listen reconnects unless its context is done.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// reconnect retries Connect with delay 1s, 2s, 4s ... capped at 30s. It returns false once ctx is done.
func (c *Client) reconnect(ctx context.Context) bool {
	for retry := 0; ; retry++ {
		if retry > 0 {
			delay := RetryDelay(retry - 1)
			c.logger.Warn("Retrying reconnect...", zap.Int("retry", retry), zap.Duration("delay", delay))
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return false
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return false
		}
		if err := c.Connect(ctx); err == nil {
			return true
		}
	}
}

// RetryDelay returns the wait before reconnect attempt n (0-based).
func RetryDelay(n int) time.Duration {
	if n > 5 {
		return maxRetryDelay
	}
	d := initialRetryDelay << n
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
