package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketbeat/internal/market"

	"go.uber.org/zap"
)

// Executor produces a snapshot for a symbol, retrying internally.
type Executor interface {
	Execute(ctx context.Context, symbol string) (market.Snapshot, error)
}

// SnapshotWriter receives each successfully fetched snapshot.
type SnapshotWriter interface {
	Write(snapshot market.Snapshot)
}

// Config holds scheduler configuration.
type Config struct {
	Symbol   string        // Symbol fetched on every heartbeat
	Interval time.Duration // Pause between the end of one heartbeat and the start of the next (default: 10s)
}

// DefaultConfig returns the reference heartbeat.
func DefaultConfig() Config {
	return Config{
		Symbol:   "AAPL",
		Interval: 10 * time.Second,
	}
}

// Status describes the outcome of recent heartbeats.
type Status struct {
	Symbol              string    `json:"symbol"`
	Running             bool      `json:"running"`
	Fetching            bool      `json:"fetching"`
	Ticks               uint64    `json:"ticks"`
	LastAttemptAt       time.Time `json:"last_attempt_at,omitzero"`
	LastSuccessAt       time.Time `json:"last_success_at,omitzero"`
	LastError           string    `json:"last_error,omitempty"`
	LastErrorAt         time.Time `json:"last_error_at,omitzero"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Scheduler runs the fetch-and-publish cycle on a fixed interval for one symbol.
type Scheduler struct {
	cfg       Config
	exec      Executor
	store     SnapshotWriter
	publisher market.Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	status Status

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. publisher may be nil.
func New(cfg Config, exec Executor, store SnapshotWriter, publisher market.Publisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		exec:      exec,
		store:     store,
		publisher: publisher,
		logger:    logger.With(zap.String("symbol", cfg.Symbol)),
		now:       time.Now,
		status:    Status{Symbol: cfg.Symbol},
	}
}

// Start runs the heartbeat loop in the background until Stop is called or ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return errors.New("heartbeat already started")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Run(ctx)
	}()

	s.logger.Info("heartbeat started", zap.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop cancels the loop and waits for the in-flight heartbeat to unwind.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("heartbeat stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run beats immediately and then again Interval after each beat finishes.
// Beats never overlap. Run returns nil once ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setRunning(true)
	defer s.setRunning(false)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		_ = s.Tick(ctx)
		if ctx.Err() != nil {
			return nil
		}
		timer.Reset(s.cfg.Interval)
	}
}

// Tick performs one heartbeat and returns the terminal fetch error, if any.
// The store is only touched on success; publish errors are logged and dropped.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.beginTick()

	snapshot, err := s.exec.Execute(ctx, s.cfg.Symbol)
	if err != nil {
		if ctx.Err() != nil {
			s.endTick()
			return ctx.Err()
		}
		s.recordFailure(err)
		s.logger.Error("heartbeat failed", zap.Error(err))
		return err
	}

	s.store.Write(snapshot)
	s.recordSuccess()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, market.TopicSnapshot, snapshot); err != nil {
			s.logger.Warn("failed to publish snapshot", zap.String("topic", market.TopicSnapshot), zap.Error(err))
		}
	}
	return nil
}

// Status returns a copy of the current heartbeat status.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	s.status.Running = running
	s.mu.Unlock()
}

func (s *Scheduler) beginTick() {
	s.mu.Lock()
	s.status.Fetching = true
	s.status.Ticks++
	s.status.LastAttemptAt = s.now()
	s.mu.Unlock()
}

func (s *Scheduler) endTick() {
	s.mu.Lock()
	s.status.Fetching = false
	s.mu.Unlock()
}

func (s *Scheduler) recordSuccess() {
	s.mu.Lock()
	s.status.Fetching = false
	s.status.LastSuccessAt = s.now()
	s.status.ConsecutiveFailures = 0
	s.mu.Unlock()
}

func (s *Scheduler) recordFailure(err error) {
	s.mu.Lock()
	s.status.Fetching = false
	s.status.LastError = err.Error()
	s.status.LastErrorAt = s.now()
	s.status.ConsecutiveFailures++
	s.mu.Unlock()
}
