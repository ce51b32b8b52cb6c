package collector

import (
	"fmt"
	"net/http"

	"github.com/pulsewire/pulsewire/app/config"
)

// FromConfig constructs the collector variant declared by a source
// configuration.
func FromConfig(src *config.Source, client *http.Client, userAgent string) (Collector, error) {
	switch src.Kind {
	case config.KindReddit:
		return NewReddit(src, client, userAgent), nil
	case config.KindHackerNews:
		return NewHackerNews(src, client, userAgent), nil
	case config.KindGoogleNews:
		return NewGoogleNews(src, client, userAgent), nil
	case config.KindRSS:
		return NewRSS(src, client, userAgent), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", src.Kind)
	}
}
