package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pulsewire/pulsewire/app/config"
)

// GoogleNews collects headlines from Google News topic search feeds.
// Each topic is an independent sub-fetch.
type GoogleNews struct {
	name      string
	client    *http.Client
	topics    []string
	edition   string
	maxItems  int
	userAgent string
	parser    *gofeed.Parser
}

func NewGoogleNews(src *config.Source, client *http.Client, userAgent string) *GoogleNews {
	edition := src.Params.Edition
	if edition == "" {
		edition = "US:en"
	}
	return &GoogleNews{
		name:      src.Name,
		client:    client,
		topics:    src.Params.Topics,
		edition:   edition,
		maxItems:  src.Settings.MaxItems,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
	}
}

func (g *GoogleNews) Name() string { return g.name }

func (g *GoogleNews) Collect(ctx context.Context) *Stream {
	s := NewStream(16)

	urls := make([]string, 0, len(g.topics))
	for _, topic := range g.topics {
		urls = append(urls, g.topicFeedURL(topic))
	}

	go func() {
		collectFeeds(ctx, s, g.client, g.parser, urls, g.maxItems, g.userAgent)
	}()

	return s
}

// topicFeedURL builds a Google News RSS search URL for one topic in the
// configured edition ("<country>:<lang>", e.g. "US:en" or "DE:de").
func (g *GoogleNews) topicFeedURL(topic string) string {
	country, lang, found := strings.Cut(g.edition, ":")
	if !found {
		country, lang = "US", "en"
	}

	q := url.Values{}
	q.Set("q", topic)
	q.Set("hl", lang)
	q.Set("gl", country)
	q.Set("ceid", fmt.Sprintf("%s:%s", country, lang))

	return "https://news.google.com/rss/search?" + q.Encode()
}
