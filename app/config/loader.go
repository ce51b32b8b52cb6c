package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

var cadenceParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCadence validates and parses a cadence expression. Both standard
// five-field cron expressions and "@every <duration>" descriptors are
// accepted.
func ParseCadence(expr string) (cron.Schedule, error) {
	return cadenceParser.Parse(expr)
}

// Loader handles loading and validation of source configurations.
type Loader struct {
	sourcesDir string
}

func NewLoader(sourcesDir string) *Loader {
	return &Loader{sourcesDir: sourcesDir}
}

// LoadAll loads all YAML source definitions from the sources directory.
// Results are keyed by source name; the slice preserves filename order so
// registry bootstrap is deterministic.
func (l *Loader) LoadAll() ([]*Source, error) {
	if _, err := os.Stat(l.sourcesDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	seen := make(map[string]bool)
	sources := make([]*Source, 0, len(files))
	for _, file := range files {
		source, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(source); err != nil {
			return nil, fmt.Errorf("invalid source %s: %w", file, err)
		}

		if seen[source.Name] {
			return nil, fmt.Errorf("duplicate source name %q from %s", source.Name, file)
		}
		seen[source.Name] = true

		sources = append(sources, source)
		slog.Debug("Loaded source configuration", "file", file, "source", source.Name, "kind", source.Kind)
	}

	return sources, nil
}

func (l *Loader) loadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	source.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")

	l.setDefaults(&source)

	return &source, nil
}

func (l *Loader) setDefaults(source *Source) {
	if source.Settings.Cadence == "" {
		source.Settings.Cadence = "@every 15m"
	}
	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = 50
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 30 // seconds
	}
	if source.Kind == KindReddit && source.Params.Listing == "" {
		source.Params.Listing = "new"
	}
}

func (l *Loader) validate(source *Source) error {
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}

	switch source.Kind {
	case KindReddit:
		if len(source.Params.Subreddits) == 0 {
			return fmt.Errorf("reddit source requires at least one subreddit")
		}
	case KindHackerNews:
		// No required params
	case KindGoogleNews:
		if len(source.Params.Topics) == 0 {
			return fmt.Errorf("googlenews source requires at least one topic")
		}
	case KindRSS:
		if len(source.Params.FeedURLs) == 0 {
			return fmt.Errorf("rss source requires at least one feed URL")
		}
	default:
		return fmt.Errorf("unknown source kind: %q", source.Kind)
	}

	if _, err := ParseCadence(source.Settings.Cadence); err != nil {
		return fmt.Errorf("invalid cadence %q: %w", source.Settings.Cadence, err)
	}
	if source.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}
	if source.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	return nil
}
