package query

import (
	"time"

	"marketbeat/internal/market"
	"marketbeat/internal/market/heartbeat"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Read() (market.Snapshot, bool)
}

// StatusSource reports how recent heartbeats went.
type StatusSource interface {
	Status() heartbeat.Status
}

// Result is the latest snapshot plus enough context to judge its staleness.
// Snapshot is nil until the first successful fetch.
type Result struct {
	Snapshot            *market.Snapshot `json:"snapshot"`
	AgeSeconds          *int64           `json:"age_seconds,omitempty"`
	LastSuccessAt       time.Time        `json:"last_success_at,omitzero"`
	LastError           string           `json:"last_error,omitempty"`
	LastErrorAt         time.Time        `json:"last_error_at,omitzero"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
}

// Service is a read-only accessor over the snapshot store. Safe for concurrent use.
type Service struct {
	store  SnapshotReader
	status StatusSource
	now    func() time.Time
}

// New creates a Service. status may be nil.
func New(store SnapshotReader, status StatusSource) *Service {
	return &Service{store: store, status: status, now: time.Now}
}

// GetLatest returns the most recent snapshot, or false before the first successful fetch.
func (s *Service) GetLatest() (market.Snapshot, bool) {
	return s.store.Read()
}

// Latest returns the snapshot together with heartbeat health.
func (s *Service) Latest() Result {
	var res Result
	if snap, ok := s.store.Read(); ok {
		res.Snapshot = &snap
		age := s.now().Unix() - snap.Ts
		if age < 0 {
			age = 0
		}
		res.AgeSeconds = &age
	}
	if s.status != nil {
		st := s.status.Status()
		res.LastSuccessAt = st.LastSuccessAt
		res.LastError = st.LastError
		res.LastErrorAt = st.LastErrorAt
		res.ConsecutiveFailures = st.ConsecutiveFailures
	}
	return res
}
