package normalize

import (
	"strings"
	"time"

	"github.com/pulsewire/pulsewire/app/collector"
)

// Normalizer maps raw items to canonical records. Pure transform, no
// I/O: identical input always yields an identical record (excluding
// CollectedAt, which is set to the invocation time passed by the run
// coordinator).
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Run produces exactly one record from one raw item, or fails with a
// NormalizationError (the caller drops the item and continues).
func (n *Normalizer) Run(source string, item collector.RawItem, collectedAt time.Time) (*Record, error) {
	title := strings.TrimSpace(item.Title)
	url := strings.TrimSpace(item.URL)

	if item.ExternalID == "" {
		return nil, &NormalizationError{Reason: "missing external id"}
	}
	if title == "" {
		return nil, &NormalizationError{Reason: "missing title"}
	}
	if url == "" {
		return nil, &NormalizationError{Reason: "missing url"}
	}

	lang := DetectLanguage(title + " " + item.Content)

	record := &Record{
		Source:      source,
		ExternalID:  item.ExternalID,
		Title:       item.Title,
		Content:     item.Content,
		URL:         url,
		Author:      item.Author,
		Language:    lang,
		Direction:   DirectionFor(lang),
		PublishedAt: normalizeTimestamp(item.PublishedAt, collectedAt),
		CollectedAt: collectedAt.UTC(),
		Script:      ScriptHandling(lang, item.Title, item.Content),
	}

	return record, nil
}

// normalizeTimestamp pins timestamps to UTC. Items without a usable
// published time inherit the collection time.
func normalizeTimestamp(published, collected time.Time) time.Time {
	if published.IsZero() {
		return collected.UTC()
	}
	return published.UTC()
}
