package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"marketbeat/internal/market"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op    string
	key   string
	value []byte
	ttl   time.Duration
}

type fakeClient struct {
	calls   []call
	setErr  error
	pubErr  error
	pingErr error
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.calls = append(f.calls, call{op: "publish", key: channel, value: message.([]byte)})
	cmd := redis.NewIntCmd(ctx)
	if f.pubErr != nil {
		cmd.SetErr(f.pubErr)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.calls = append(f.calls, call{op: "set", key: key, value: value.([]byte), ttl: expiration})
	cmd := redis.NewStatusCmd(ctx)
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (f *fakeClient) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.pingErr != nil {
		cmd.SetErr(f.pingErr)
	}
	return cmd
}

// go test -v --run TestPublish_SetsLatestAndPublishes
func TestPublish_SetsLatestAndPublishes(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, 2*time.Minute)

	snap := market.Snapshot{Symbol: "AAPL", Price: 100.5, Ts: 1700000000}
	require.NoError(t, p.Publish(t.Context(), market.TopicSnapshot, snap))

	require.Len(t, client.calls, 2)
	assert.Equal(t, "set", client.calls[0].op)
	assert.Equal(t, "latest:AAPL", client.calls[0].key)
	assert.Equal(t, 2*time.Minute, client.calls[0].ttl)
	assert.Equal(t, "publish", client.calls[1].op)
	assert.Equal(t, market.TopicSnapshot, client.calls[1].key)

	var decoded market.Snapshot
	require.NoError(t, json.Unmarshal(client.calls[1].value, &decoded))
	assert.Equal(t, snap, decoded)
}

// go test -v --run TestPublish_Errors
func TestPublish_Errors(t *testing.T) {
	snap := market.Snapshot{Symbol: "AAPL"}

	down := errors.New("connection refused")
	client := &fakeClient{setErr: down}
	err := NewPublisher(client, 0).Publish(t.Context(), market.TopicSnapshot, snap)
	require.ErrorIs(t, err, down)
	assert.Len(t, client.calls, 1, "publish skipped when set fails")

	client = &fakeClient{pubErr: down}
	err = NewPublisher(client, 0).Publish(t.Context(), market.TopicSnapshot, snap)
	require.ErrorIs(t, err, down)
}

// go test -v --run TestPing
func TestPing(t *testing.T) {
	require.NoError(t, NewPublisher(&fakeClient{}, 0).Ping(t.Context()))
	require.Error(t, NewPublisher(&fakeClient{pingErr: errors.New("nope")}, 0).Ping(t.Context()))
}
