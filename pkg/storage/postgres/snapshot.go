package postgres

import (
	"context"
	"errors"
	"time"

	"marketbeat/internal/market"

	"gorm.io/gorm/clause"
)

// ErrDuplicateSnapshot is returned when a snapshot with the same symbol and fetch time is already archived.
var ErrDuplicateSnapshot = errors.New("duplicate snapshot skipped")

func (p *PostgresClient) InsertSnapshot(ctx context.Context, record *SnapshotRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "fetched_at"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicateSnapshot
	}
	return nil
}

// LatestSnapshots returns up to limit archived snapshots for symbol, newest first.
func (p *PostgresClient) LatestSnapshots(ctx context.Context, symbol string, limit int) ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("fetched_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (p *PostgresClient) DeleteOldSnapshots(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("fetched_at < ?", before).
		Delete(&SnapshotRecord{}).Error
}

// ToSnapshotRecord converts a snapshot into a SnapshotRecord for DB insertion.
func ToSnapshotRecord(s market.Snapshot) *SnapshotRecord {
	return &SnapshotRecord{
		Symbol:    s.Symbol,
		FetchedAt: time.Unix(s.Ts, 0).UTC(),
		Price:     s.Price,
		Macd:      s.Macd,
		Signal:    s.Signal,
		Hist:      s.Hist,
	}
}

// ToSnapshot converts an archived record back into a snapshot.
func (r SnapshotRecord) ToSnapshot() market.Snapshot {
	return market.Snapshot{
		Symbol: r.Symbol,
		Price:  r.Price,
		Macd:   r.Macd,
		Signal: r.Signal,
		Hist:   r.Hist,
		Ts:     r.FetchedAt.Unix(),
	}
}
