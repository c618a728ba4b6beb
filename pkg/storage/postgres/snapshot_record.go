package postgres

import "time"

// SnapshotRecord is one archived heartbeat snapshot.
type SnapshotRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol    string    `gorm:"type:text;not null;index:idx_snapshot_symbol;index:idx_snapshot_symbol_fetched,unique"`
	FetchedAt time.Time `gorm:"not null;index:idx_snapshot_symbol_fetched,unique"`

	Price  float64 `gorm:"type:numeric;not null"`
	Macd   float64 `gorm:"type:numeric;not null"`
	Signal float64 `gorm:"type:numeric;not null"`
	Hist   float64 `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (SnapshotRecord) TableName() string {
	return "snapshot_record"
}
