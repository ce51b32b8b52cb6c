package collector

import (
	"context"
	"sync"
)

// SubFailure records the failure of one sub-fetch (a subreddit, a feed
// URL, a story) within an otherwise live collection.
type SubFailure struct {
	Part string
	Err  error
}

// Stream is a lazy, finite, non-restartable sequence of raw items. The
// producing collector emits items from its own goroutine and closes the
// stream when the fetch ends; the consumer drains with Next and then
// inspects Err and SubFailures. This lets the run coordinator start
// normalizing and writing before the whole fetch completes.
type Stream struct {
	items chan RawItem

	mu          sync.Mutex
	subFailures []SubFailure
	err         error
}

func NewStream(buffer int) *Stream {
	return &Stream{items: make(chan RawItem, buffer)}
}

// Emit delivers one item to the consumer. Returns false when the context
// is cancelled, at which point the producer must stop fetching.
func (s *Stream) Emit(ctx context.Context, item RawItem) bool {
	select {
	case s.items <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

// Fail records a sub-fetch failure without ending the stream.
func (s *Stream) Fail(part string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subFailures = append(s.subFailures, SubFailure{Part: part, Err: err})
}

// Close ends the stream. A non-nil err marks the whole collection as
// failed (auth failure, all sub-fetches down). Must be called exactly
// once, by the producer.
func (s *Stream) Close(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.items)
}

// Next returns the next item. ok is false once the stream is exhausted
// or the context is cancelled.
func (s *Stream) Next(ctx context.Context) (item RawItem, ok bool) {
	select {
	case item, ok = <-s.items:
		return item, ok
	case <-ctx.Done():
		return RawItem{}, false
	}
}

// Err reports the terminal collection error, if any. Valid after the
// stream is exhausted.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SubFailures returns the recorded sub-fetch failures.
func (s *Stream) SubFailures() []SubFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SubFailure, len(s.subFailures))
	copy(out, s.subFailures)
	return out
}
