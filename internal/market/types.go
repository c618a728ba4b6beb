package market

import (
	"context"
	"errors"
	"time"
)

// TopicSnapshot is the broadcast topic for freshly fetched snapshots.
const TopicSnapshot = "market://snapshot"

// Snapshot is one point-in-time market reading for a symbol.
// Values are passed through from the provider as-is; Hist is not checked against Macd-Signal.
type Snapshot struct {
	Symbol string  `json:"symbol"` // Ticker symbol (e.g., "AAPL")
	Price  float64 `json:"price"`  // Last traded price
	Macd   float64 `json:"macd"`   // MACD line
	Signal float64 `json:"signal"` // MACD signal line
	Hist   float64 `json:"hist"`   // MACD histogram
	Ts     int64   `json:"ts"`     // Fetch time (seconds since epoch)
}

// Time returns the fetch time as a time.Time.
func (s Snapshot) Time() time.Time {
	return time.Unix(s.Ts, 0)
}

// Validate checks the fields a consumer cannot do without.
func (s Snapshot) Validate() error {
	if s.Symbol == "" {
		return errors.New("snapshot without symbol")
	}
	return nil
}

// Provider fetches a snapshot for a single symbol from an upstream source.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_market.go -source=types.go
type Provider interface {
	Fetch(ctx context.Context, symbol string) (Snapshot, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context, symbol string) (Snapshot, error)

func (f ProviderFunc) Fetch(ctx context.Context, symbol string) (Snapshot, error) {
	return f(ctx, symbol)
}

// Publisher is a fire-and-forget broadcast sink for snapshots.
type Publisher interface {
	Publish(ctx context.Context, topic string, snapshot Snapshot) error
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, snapshot Snapshot) error

func (f PublisherFunc) Publish(ctx context.Context, topic string, snapshot Snapshot) error {
	return f(ctx, topic, snapshot)
}
