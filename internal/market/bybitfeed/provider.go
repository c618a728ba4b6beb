package bybitfeed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"marketbeat/internal/market"
	"marketbeat/pkg/bybit"
)

// TickerClient is the slice of the Bybit REST client the provider needs.
type TickerClient interface {
	GetTicker(ctx context.Context, category, symbol string) (bybit.Ticker, error)
}

// Provider turns Bybit tickers into snapshots and classifies failures for the retry executor.
// Indicator fields are left at zero; Bybit's ticker carries none.
type Provider struct {
	client   TickerClient
	category string
	now      func() time.Time
}

func New(client TickerClient, category string) *Provider {
	if category == "" {
		category = string(bybit.CategorySpot)
	}
	return &Provider{client: client, category: category, now: time.Now}
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (market.Snapshot, error) {
	ticker, err := p.client.GetTicker(ctx, p.category, symbol)
	if err != nil {
		return market.Snapshot{}, classify(err)
	}

	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return market.Snapshot{}, market.UnknownError(fmt.Sprintf("parse lastPrice %q", ticker.LastPrice), err)
	}

	return market.Snapshot{
		Symbol: symbol,
		Price:  price,
		Ts:     p.now().Unix(),
	}, nil
}

// classify maps client errors onto the fetch error kinds.
func classify(err error) error {
	var apiErr *bybit.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsRateLimited():
			return market.RateLimitedError(apiErr.Error())
		case apiErr.IsServerError():
			return market.NetworkError("bybit server error", err)
		default:
			return market.UnknownError("bybit rejected request", err)
		}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return market.NetworkError("bybit unreachable", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return market.NetworkError("bybit timeout", err)
	}
	return market.UnknownError("bybit", err)
}
