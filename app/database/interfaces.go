package database

import (
	"context"

	"github.com/pulsewire/pulsewire/app/normalize"
)

// RecordRepository is the storage write contract consumed by the sink.
// Upserts are keyed by (source, external_id); the unique constraint on
// that pair is the final idempotence authority.
type RecordRepository interface {
	// UpsertRecord inserts the record, ignoring the write when the
	// identity already exists. Returns whether a new row was created.
	UpsertRecord(ctx context.Context, record *normalize.Record) (bool, error)

	GetRecord(ctx context.Context, source, externalID string) (*StoredRecord, error)
	RecentRecords(ctx context.Context, source string, limit int) ([]StoredRecord, error)
	CountBySource(ctx context.Context) (map[string]int, error)
}
