package collector

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pulsewire/pulsewire/app/config"
)

// RSS collects items from one or more RSS/Atom feed URLs for a single
// outlet. Each URL is an independent sub-fetch.
type RSS struct {
	name      string
	client    *http.Client
	feedURLs  []string
	maxItems  int
	userAgent string
	parser    *gofeed.Parser
}

func NewRSS(src *config.Source, client *http.Client, userAgent string) *RSS {
	return &RSS{
		name:      src.Name,
		client:    client,
		feedURLs:  src.Params.FeedURLs,
		maxItems:  src.Settings.MaxItems,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
	}
}

func (r *RSS) Name() string { return r.name }

func (r *RSS) Collect(ctx context.Context) *Stream {
	s := NewStream(16)

	go func() {
		collectFeeds(ctx, s, r.client, r.parser, r.feedURLs, r.maxItems, r.userAgent)
	}()

	return s
}

// collectFeeds drains a set of feed URLs into the stream, recording one
// sub-failure per broken feed and closing with a terminal error only
// when every feed failed. Shared by the RSS and Google News collectors.
func collectFeeds(ctx context.Context, s *Stream, client *http.Client, parser *gofeed.Parser, urls []string, maxItems int, userAgent string) {
	emitted := 0
	failed := 0
	var firstErr error

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}
		if emitted >= maxItems {
			break
		}

		n, err := collectFeed(ctx, s, client, parser, url, maxItems-emitted, userAgent)
		emitted += n
		if err != nil {
			s.Fail(url, err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if failed == len(urls) && failed > 0 {
		s.Close(firstErr)
		return
	}
	s.Close(nil)
}

func collectFeed(ctx context.Context, s *Stream, client *http.Client, parser *gofeed.Parser, url string, limit int, userAgent string) (int, error) {
	data, err := fetch(ctx, client, url, userAgent)
	if err != nil {
		return 0, err
	}

	feed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceParse, err)
	}

	emitted := 0
	for _, entry := range feed.Items {
		if emitted >= limit {
			break
		}

		item, ok := feedItemToRaw(entry)
		if !ok {
			continue
		}
		if !s.Emit(ctx, item) {
			return emitted, ctx.Err()
		}
		emitted++
	}

	return emitted, nil
}

func feedItemToRaw(entry *gofeed.Item) (RawItem, bool) {
	externalID := cmp.Or(entry.GUID, entry.Link)
	if externalID == "" {
		return RawItem{}, false
	}

	item := RawItem{
		ExternalID: externalID,
		Title:      entry.Title,
		URL:        entry.Link,
		Content:    cmp.Or(entry.Content, entry.Description),
	}

	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		item.PublishedAt = entry.UpdatedParsed.UTC()
	}

	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		item.Author = entry.Authors[0].Name
	}

	if len(entry.Categories) > 0 {
		item.Extra = map[string]string{
			"categories": strings.Join(entry.Categories, ","),
		}
	}

	return item, true
}
