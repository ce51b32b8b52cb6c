package normalize

import (
	"time"
)

// Language code used when detection fails or input is ambiguous.
const LanguageUnknown = "unknown"

// Text direction tags, used downstream for rendering only.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// ScriptMetadata carries additive CJK processing output. The original
// title and content are always preserved verbatim.
type ScriptMetadata struct {
	SegmentedTokens []string
	Romanization    string
}

// Record is the canonical shape every raw item is normalized into.
// (Source, ExternalID) is the natural key for deduplication and must be
// stable across repeated collection of the same content.
type Record struct {
	Source      string
	ExternalID  string
	Title       string
	Content     string
	URL         string
	Author      string
	Language    string // ISO 639-1 code or "unknown"
	Direction   string // "ltr" or "rtl"
	PublishedAt time.Time
	CollectedAt time.Time
	Script      *ScriptMetadata
}

// IdentityKey returns the cache key for this record's identity.
func (r *Record) IdentityKey() string {
	return r.Source + ":" + r.ExternalID
}

// NormalizationError marks an item that cannot be mapped to the
// canonical shape. The item is dropped and the run continues.
type NormalizationError struct {
	Reason string
}

func (e *NormalizationError) Error() string {
	return "normalization failed: " + e.Reason
}
