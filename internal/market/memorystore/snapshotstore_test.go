package memorystore

import (
	"sync"
	"testing"

	"marketbeat/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestSnapshotStore_EmptyUntilWritten
func TestSnapshotStore_EmptyUntilWritten(t *testing.T) {
	store := NewSnapshotStore()

	_, ok := store.Read()
	require.False(t, ok)

	snap := market.Snapshot{Symbol: "AAPL", Price: 99.1, Ts: 1700000000}
	store.Write(snap)

	got, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, snap, got)
	assert.EqualValues(t, 1, store.Writes())
}

// go test -v --run TestSnapshotStore_ReplacesWholesale
func TestSnapshotStore_ReplacesWholesale(t *testing.T) {
	store := NewSnapshotStore()
	store.Write(market.Snapshot{Symbol: "AAPL", Price: 1, Macd: 1, Signal: 1, Hist: 1, Ts: 1})
	store.Write(market.Snapshot{Symbol: "AAPL", Price: 2, Ts: 2})

	got, _ := store.Read()
	assert.Equal(t, market.Snapshot{Symbol: "AAPL", Price: 2, Ts: 2}, got)
}

// go test -v -race --run TestSnapshotStore_NoTornReads
func TestSnapshotStore_NoTornReads(t *testing.T) {
	store := NewSnapshotStore()

	// Every field of write i carries i, so a torn read shows mismatched fields.
	gen := func(i int) market.Snapshot {
		f := float64(i)
		return market.Snapshot{Symbol: "AAPL", Price: f, Macd: f, Signal: f, Hist: f, Ts: int64(i)}
	}

	const writes = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			store.Write(gen(i))
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last int64
			for i := 0; i < writes; i++ {
				got, ok := store.Read()
				if !ok {
					continue
				}
				if got != gen(int(got.Ts)) {
					t.Errorf("torn read: %+v", got)
					return
				}
				if got.Ts < last {
					t.Errorf("read went backwards: %d after %d", got.Ts, last)
					return
				}
				last = got.Ts
			}
		}()
	}

	wg.Wait()
	got, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, gen(writes), got)
}
