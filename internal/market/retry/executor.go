package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"marketbeat/internal/market"

	"go.uber.org/zap"
)

// Config holds the retry tuning.
type Config struct {
	MaxAttempts       int           // Budget for failures that count against it (default: 3)
	BaseBackoff       time.Duration // First exponential wait; doubles per attempt (default: 2s)
	RateLimitCooldown time.Duration // Fixed wait after a rate-limit response (default: 60s)

	// MaxRateLimitCooldowns caps consecutive cooldowns in one Execute call.
	// Zero keeps retrying for as long as the upstream keeps rate limiting.
	MaxRateLimitCooldowns int
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseBackoff:       2 * time.Second,
		RateLimitCooldown: 60 * time.Second,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Jitter returns a random duration in [0, max].
type Jitter func(max time.Duration) time.Duration

// Executor wraps a Provider with failure classification and backoff.
type Executor struct {
	provider market.Provider
	cfg      Config
	policy   Policy
	sleep    Sleeper
	jitter   Jitter
	logger   *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithPolicy replaces the default decision table.
func WithPolicy(p Policy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// WithSleeper replaces the timer-based sleep.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) {
		e.sleep = s
	}
}

// WithJitter replaces the uniform random jitter.
func WithJitter(j Jitter) Option {
	return func(e *Executor) {
		e.jitter = j
	}
}

// New creates an Executor around provider.
func New(provider market.Provider, cfg Config, logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	e := &Executor{
		provider: provider,
		cfg:      cfg,
		policy:   DefaultPolicy(),
		sleep:    sleepContext,
		jitter:   uniformJitter,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute fetches a snapshot for symbol, retrying per the policy.
// It returns the last error once the attempt budget is spent, or ctx.Err() if ctx ends first.
func (e *Executor) Execute(ctx context.Context, symbol string) (market.Snapshot, error) {
	var attempt, cooldowns int

	for {
		if err := ctx.Err(); err != nil {
			return market.Snapshot{}, err
		}

		snapshot, err := e.provider.Fetch(ctx, symbol)
		if err == nil {
			return snapshot, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return market.Snapshot{}, ctxErr
		}

		d := e.policy.Decide(err)
		if d.CountsAgainstBudget {
			attempt++
			if attempt >= e.cfg.MaxAttempts {
				e.logger.Error("fetch failed, attempts exhausted",
					zap.String("symbol", symbol),
					zap.Int("attempt", attempt),
					zap.Stringer("kind", d.Kind),
					zap.Error(err),
				)
				return market.Snapshot{}, err
			}
		} else {
			cooldowns++
			if e.cfg.MaxRateLimitCooldowns > 0 && cooldowns > e.cfg.MaxRateLimitCooldowns {
				e.logger.Error("fetch failed, cooldowns exhausted",
					zap.String("symbol", symbol),
					zap.Int("cooldowns", cooldowns-1),
					zap.Stringer("kind", d.Kind),
					zap.Error(err),
				)
				return market.Snapshot{}, err
			}
		}

		wait := e.delay(d.Backoff, attempt)
		e.logger.Warn("fetch failed, backing off",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Stringer("kind", d.Kind),
			zap.Stringer("backoff", d.Backoff),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		if err := e.sleep(ctx, wait); err != nil {
			return market.Snapshot{}, err
		}
	}
}

// BackoffFor returns the exponential wait before jitter for a 1-based attempt.
func (e *Executor) BackoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// keep the shift well below overflow
	if attempt > 30 {
		attempt = 30
	}
	return e.cfg.BaseBackoff << (attempt - 1)
}

func (e *Executor) delay(b Backoff, attempt int) time.Duration {
	if b == BackoffCooldown {
		return e.cfg.RateLimitCooldown
	}
	base := e.BackoffFor(attempt)
	return base + e.jitter(base)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}
