package collector

import (
	"context"
	"time"
)

// RawItem is one source-specific payload as fetched from the wire. It is
// owned by the collector until handed to the normalizer; collectors never
// touch storage directly.
type RawItem struct {
	ExternalID  string // source-scoped unique identity (native ID or URL)
	Title       string
	URL         string
	Content     string
	Author      string
	PublishedAt time.Time
	Extra       map[string]string // source-native metadata
}

// Collector is the per-source unit of work. Collect starts a fresh fetch
// and returns a lazy, finite, non-restartable stream of items. Partial
// upstream failure is reported through the stream's sub-failure list, not
// by failing the whole collection.
type Collector interface {
	Name() string
	Collect(ctx context.Context) *Stream
}

// Factory constructs a collector instance. The registry holds one factory
// per source name, bound to that source's configuration.
type Factory func() (Collector, error)
