package postgres

import (
	"context"
	"errors"
	"time"

	"marketbeat/internal/market"
)

// SnapshotInserter is the write side of the archive.
type SnapshotInserter interface {
	InsertSnapshot(ctx context.Context, record *SnapshotRecord) error
}

// Archive is a Publisher that appends every published snapshot to Postgres.
// It is write-only; nothing reads it back into the live store.
type Archive struct {
	db      SnapshotInserter
	timeout time.Duration
}

func NewArchive(db SnapshotInserter, timeout time.Duration) *Archive {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Archive{db: db, timeout: timeout}
}

func (a *Archive) Publish(ctx context.Context, _ string, snapshot market.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := a.db.InsertSnapshot(ctx, ToSnapshotRecord(snapshot))
	if errors.Is(err, ErrDuplicateSnapshot) {
		return nil
	}
	return err
}
