package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pulsewire/pulsewire/app/config"
)

const hnBaseURL = "https://hacker-news.firebaseio.com/v0"

// storyFetchConcurrency bounds parallel item requests against the
// Firebase API.
const storyFetchConcurrency = 5

// HackerNews collects top stories from the Hacker News Firebase API.
// Individual story fetch failures are sub-failures; only a failed story
// list takes the whole collection down.
type HackerNews struct {
	name      string
	client    *http.Client
	maxItems  int
	userAgent string
}

func NewHackerNews(src *config.Source, client *http.Client, userAgent string) *HackerNews {
	return &HackerNews{
		name:      src.Name,
		client:    client,
		maxItems:  src.Settings.MaxItems,
		userAgent: userAgent,
	}
}

func (h *HackerNews) Name() string { return h.name }

func (h *HackerNews) Collect(ctx context.Context) *Stream {
	s := NewStream(16)

	go func() {
		ids, err := h.fetchTopStoryIDs(ctx)
		if err != nil {
			s.Close(err)
			return
		}

		if len(ids) > h.maxItems {
			ids = ids[:h.maxItems]
		}

		sem := make(chan struct{}, storyFetchConcurrency)
		var wg sync.WaitGroup

		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}

			wg.Add(1)
			go func(storyID int) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()

				item, err := h.fetchStory(ctx, storyID)
				if err != nil {
					s.Fail(fmt.Sprintf("story/%d", storyID), err)
					return
				}
				s.Emit(ctx, item)
			}(id)
		}

		wg.Wait()
		s.Close(nil)
	}()

	return s
}

func (h *HackerNews) fetchTopStoryIDs(ctx context.Context) ([]int, error) {
	data, err := fetch(ctx, h.client, hnBaseURL+"/topstories.json", h.userAgent)
	if err != nil {
		return nil, err
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceParse, err)
	}
	return ids, nil
}

type hnStory struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Text  string `json:"text"`
	Type  string `json:"type"`
	Score int    `json:"score"`
}

func (h *HackerNews) fetchStory(ctx context.Context, id int) (RawItem, error) {
	data, err := fetch(ctx, h.client, fmt.Sprintf("%s/item/%d.json", hnBaseURL, id), h.userAgent)
	if err != nil {
		return RawItem{}, err
	}

	var story hnStory
	if err := json.Unmarshal(data, &story); err != nil {
		return RawItem{}, fmt.Errorf("%w: %v", ErrSourceParse, err)
	}
	if story.ID == 0 || story.Title == "" {
		return RawItem{}, fmt.Errorf("%w: story %d missing id or title", ErrSourceParse, id)
	}

	link := story.URL
	if link == "" {
		link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
	}

	return RawItem{
		ExternalID:  fmt.Sprintf("%d", story.ID),
		Title:       story.Title,
		URL:         link,
		Content:     story.Text,
		Author:      story.By,
		PublishedAt: time.Unix(story.Time, 0).UTC(),
		Extra: map[string]string{
			"type":  story.Type,
			"score": fmt.Sprintf("%d", story.Score),
		},
	}, nil
}
