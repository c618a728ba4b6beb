package mockfeed

import (
	"context"
	"math/rand/v2"
	"time"

	"marketbeat/internal/market"
)

// Provider returns synthetic snapshots without touching the network.
// NetworkFailureRate and RateLimitRate inject failures so the retry paths can be exercised locally.
type Provider struct {
	BasePrice          float64
	NetworkFailureRate float64 // probability in [0, 1]
	RateLimitRate      float64 // probability in [0, 1]

	rand *rand.Rand
	now  func() time.Time
}

// New returns a Provider around the reference base price of 100.
func New(seed uint64) *Provider {
	return &Provider{
		BasePrice: 100,
		rand:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:       time.Now,
	}
}

// Fetch is not safe for concurrent use; the heartbeat is its only caller.
func (p *Provider) Fetch(ctx context.Context, symbol string) (market.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return market.Snapshot{}, err
	}

	roll := p.rand.Float64()
	switch {
	case roll < p.RateLimitRate:
		return market.Snapshot{}, market.ErrRateLimited
	case roll < p.RateLimitRate+p.NetworkFailureRate:
		return market.Snapshot{}, market.NetworkError("simulated outage", nil)
	}

	return market.Snapshot{
		Symbol: symbol,
		Price:  p.BasePrice + p.between(-5, 5),
		Macd:   p.between(-2, 2),
		Signal: p.between(-2, 2),
		Hist:   p.between(-1, 1),
		Ts:     p.now().Unix(),
	}, nil
}

func (p *Provider) between(lo, hi float64) float64 {
	return lo + p.rand.Float64()*(hi-lo)
}
