package memorystore

import (
	"sync"

	"marketbeat/internal/market"
)

// SnapshotStore is a single-slot holder for the latest snapshot.
// One writer (the heartbeat) replaces the value wholesale; any number of readers copy it out.
type SnapshotStore struct {
	mu     sync.RWMutex
	latest market.Snapshot
	ok     bool
	writes uint64
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Write replaces the held snapshot.
func (s *SnapshotStore) Write(snapshot market.Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.ok = true
	s.writes++
	s.mu.Unlock()
}

// Read returns a copy of the held snapshot, or false if nothing has been written yet.
func (s *SnapshotStore) Read() (market.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ok
}

// Writes returns how many times the slot has been replaced.
func (s *SnapshotStore) Writes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
