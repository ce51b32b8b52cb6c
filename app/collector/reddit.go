package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/pulsewire/pulsewire/app/config"
)

// Reddit collects posts from one or more subreddit listings via the
// public JSON endpoints. A subreddit that fails to fetch is recorded as
// a sub-failure; the collection only fails outright when every subreddit
// is down.
type Reddit struct {
	name       string
	client     *http.Client
	subreddits []string
	listing    string
	maxItems   int
	userAgent  string
}

func NewReddit(src *config.Source, client *http.Client, userAgent string) *Reddit {
	return &Reddit{
		name:       src.Name,
		client:     client,
		subreddits: src.Params.Subreddits,
		listing:    src.Params.Listing,
		maxItems:   src.Settings.MaxItems,
		userAgent:  userAgent,
	}
}

func (r *Reddit) Name() string { return r.name }

func (r *Reddit) Collect(ctx context.Context) *Stream {
	s := NewStream(16)

	go func() {
		emitted := 0
		failed := 0
		var firstErr error

		for _, sub := range r.subreddits {
			if ctx.Err() != nil {
				break
			}
			if emitted >= r.maxItems {
				break
			}

			n, err := r.collectSubreddit(ctx, s, sub, r.maxItems-emitted)
			emitted += n
			if err != nil {
				s.Fail("r/"+sub, err)
				failed++
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if failed == len(r.subreddits) && failed > 0 {
			s.Close(firstErr)
			return
		}
		s.Close(nil)
	}()

	return s
}

func (r *Reddit) collectSubreddit(ctx context.Context, s *Stream, sub string, limit int) (int, error) {
	url := fmt.Sprintf("https://www.reddit.com/r/%s/%s.json?limit=%d&raw_json=1", sub, r.listing, limit)
	data, err := fetch(ctx, r.client, url, r.userAgent)
	if err != nil {
		return 0, err
	}

	var listing redditListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceParse, err)
	}

	emitted := 0
	for _, child := range listing.Data.Children {
		if emitted >= limit {
			break
		}
		post := child.Data
		if post.Name == "" || post.Title == "" {
			continue
		}

		link := post.URL
		if link == "" {
			link = "https://www.reddit.com" + post.Permalink
		}

		item := RawItem{
			ExternalID:  post.Name, // fullname, e.g. t3_abc123
			Title:       html.UnescapeString(post.Title),
			URL:         link,
			Content:     post.Selftext,
			Author:      post.Author,
			PublishedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
			Extra: map[string]string{
				"subreddit": post.Subreddit,
				"score":     fmt.Sprintf("%d", post.Score),
				"permalink": "https://www.reddit.com" + post.Permalink,
			},
		}

		if !s.Emit(ctx, item) {
			return emitted, ctx.Err()
		}
		emitted++
	}

	return emitted, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}
