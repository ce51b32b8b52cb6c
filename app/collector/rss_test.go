package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulsewire/pulsewire/app/config"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>First article</title>
      <link>https://example.com/1</link>
      <guid>https://example.com/1</guid>
      <description>Body one</description>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second article</title>
      <link>https://example.com/2</link>
      <guid>https://example.com/2</guid>
      <description>Body two</description>
      <pubDate>Mon, 02 Mar 2026 11:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Third article</title>
      <link>https://example.com/3</link>
      <guid>https://example.com/3</guid>
      <description>Body three</description>
    </item>
  </channel>
</rss>`

func rssSource(name string, maxItems int, urls ...string) *config.Source {
	return &config.Source{
		Name: name,
		Kind: config.KindRSS,
		Settings: config.SourceSettings{
			Enabled:  true,
			Cadence:  "@every 15m",
			MaxItems: maxItems,
			Timeout:  30,
		},
		Params: config.SourceParams{FeedURLs: urls},
	}
}

func drainStream(t *testing.T, s *Stream) []RawItem {
	t.Helper()
	var items []RawItem
	for {
		item, ok := s.Next(context.Background())
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

func TestRSSCollectsFeedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "pulsewire-test/1.0" {
			t.Errorf("Expected configured user agent, got %q", got)
		}
		fmt.Fprint(w, testFeedXML)
	}))
	defer server.Close()

	rss := NewRSS(rssSource("feed", 50, server.URL), server.Client(), "pulsewire-test/1.0")
	stream := rss.Collect(context.Background())
	items := drainStream(t, stream)

	if stream.Err() != nil {
		t.Fatalf("Expected no terminal error, got %v", stream.Err())
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].ExternalID != "https://example.com/1" {
		t.Errorf("Expected guid as external id, got %q", items[0].ExternalID)
	}
	if items[0].Title != "First article" {
		t.Errorf("Expected title 'First article', got %q", items[0].Title)
	}
	if items[0].PublishedAt.IsZero() {
		t.Error("Expected a parsed publish time")
	}
	// Third item has no pubDate; the normalizer fills it in later.
	if !items[2].PublishedAt.IsZero() {
		t.Errorf("Expected zero publish time for undated item, got %v", items[2].PublishedAt)
	}
}

func TestRSSHonorsMaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeedXML)
	}))
	defer server.Close()

	rss := NewRSS(rssSource("feed", 2, server.URL), server.Client(), "ua")
	items := drainStream(t, rss.Collect(context.Background()))

	if len(items) != 2 {
		t.Errorf("Expected max_items to cap at 2, got %d", len(items))
	}
}

func TestRSSBrokenFeedIsSubFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeedXML)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	rss := NewRSS(rssSource("feed", 50, bad.URL, good.URL), http.DefaultClient, "ua")
	stream := rss.Collect(context.Background())
	items := drainStream(t, stream)

	if stream.Err() != nil {
		t.Fatalf("Expected no terminal error when one feed survives, got %v", stream.Err())
	}
	if len(items) != 3 {
		t.Errorf("Expected 3 items from the healthy feed, got %d", len(items))
	}

	failures := stream.SubFailures()
	if len(failures) != 1 {
		t.Fatalf("Expected 1 sub-failure, got %d", len(failures))
	}
	if failures[0].Part != bad.URL {
		t.Errorf("Expected sub-failure for %q, got %q", bad.URL, failures[0].Part)
	}
	if !errors.Is(failures[0].Err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", failures[0].Err)
	}
}

func TestRSSAllFeedsDownIsTerminal(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	rss := NewRSS(rssSource("feed", 50, bad.URL), bad.Client(), "ua")
	stream := rss.Collect(context.Background())
	items := drainStream(t, stream)

	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
	if !errors.Is(stream.Err(), ErrSourceUnavailable) {
		t.Errorf("Expected terminal ErrSourceUnavailable, got %v", stream.Err())
	}
}

func TestRSSUnparsableFeedIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed")
	}))
	defer server.Close()

	rss := NewRSS(rssSource("feed", 50, server.URL), server.Client(), "ua")
	stream := rss.Collect(context.Background())
	drainStream(t, stream)

	if !errors.Is(stream.Err(), ErrSourceParse) {
		t.Errorf("Expected terminal ErrSourceParse, got %v", stream.Err())
	}
}

func TestFromConfigKinds(t *testing.T) {
	tests := []struct {
		kind string
		src  *config.Source
	}{
		{config.KindReddit, &config.Source{Kind: config.KindReddit, Params: config.SourceParams{Subreddits: []string{"golang"}, Listing: "new"}}},
		{config.KindHackerNews, &config.Source{Kind: config.KindHackerNews}},
		{config.KindGoogleNews, &config.Source{Kind: config.KindGoogleNews, Params: config.SourceParams{Topics: []string{"ai"}}}},
		{config.KindRSS, &config.Source{Kind: config.KindRSS, Params: config.SourceParams{FeedURLs: []string{"https://example.com/feed"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			col, err := FromConfig(tt.src, http.DefaultClient, "ua")
			if err != nil {
				t.Fatalf("FromConfig() error = %v", err)
			}
			if col == nil {
				t.Fatal("Expected a collector")
			}
		})
	}

	if _, err := FromConfig(&config.Source{Kind: "carrier-pigeon"}, http.DefaultClient, "ua"); err == nil {
		t.Error("Expected error for unsupported kind")
	}
}
