package database

import (
	"time"
)

// StoredRecord is one row of the records table, the single logical
// collection the read-side API queries. It is written only by the sink.
type StoredRecord struct {
	ID              string // Database UUID
	Source          string
	ExternalID      string
	Title           string
	Content         string
	URL             string
	Author          string
	Language        string
	Direction       string
	PublishedAt     time.Time
	CollectedAt     time.Time
	SegmentedTokens []string // empty for non-CJK records
	Romanization    string
	CreatedAt       time.Time
}
