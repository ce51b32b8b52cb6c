package config

// Source kinds understood by the collector registry.
const (
	KindReddit     = "reddit"
	KindHackerNews = "hackernews"
	KindGoogleNews = "googlenews"
	KindRSS        = "rss"
)

// Source is one source definition loaded from a YAML file in the
// sources directory. Name is derived from the filename.
type Source struct {
	Name     string         // Derived from filename (without .yml extension)
	Kind     string         `yaml:"kind"`
	Settings SourceSettings `yaml:"settings"`
	Params   SourceParams   `yaml:"params"`
}

type SourceSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Cadence  string `yaml:"cadence"`   // cron expression or "@every <duration>"
	MaxItems int    `yaml:"max_items"` // per-run item cap
	Timeout  int    `yaml:"timeout"`   // seconds
}

// SourceParams carries kind-specific parameters. Only the fields relevant
// to the declared kind are consulted.
type SourceParams struct {
	Subreddits []string `yaml:"subreddits"` // reddit
	Listing    string   `yaml:"listing"`    // reddit: hot, new, top
	FeedURLs   []string `yaml:"feed_urls"`  // rss
	Topics     []string `yaml:"topics"`     // googlenews
	Edition    string   `yaml:"edition"`    // googlenews: e.g. "US:en"
}
