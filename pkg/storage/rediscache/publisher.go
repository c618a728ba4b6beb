package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketbeat/internal/market"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of *redis.Client the publisher uses.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Publisher fans snapshots out over Redis pub/sub and keeps latest:<symbol> for late readers.
type Publisher struct {
	client Client
	ttl    time.Duration
}

// Options mirrors the redis section of the config.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewClient dials Redis with the given options.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewPublisher wraps client. A zero ttl keeps latest:<symbol> forever.
func NewPublisher(client Client, ttl time.Duration) *Publisher {
	return &Publisher{client: client, ttl: ttl}
}

// LatestKey is where the most recent snapshot for symbol is stored.
func LatestKey(symbol string) string {
	return fmt.Sprintf("latest:%s", symbol)
}

// Publish stores the snapshot under its latest key and publishes it on the topic channel.
func (p *Publisher) Publish(ctx context.Context, topic string, snapshot market.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := p.client.Set(ctx, LatestKey(snapshot.Symbol), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest snapshot: %w", err)
	}
	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
