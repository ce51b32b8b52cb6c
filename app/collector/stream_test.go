package collector

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestResponse(status int, retryAfter string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
	if retryAfter != "" {
		resp.Header.Set("Retry-After", retryAfter)
	}
	return resp
}

func TestStream_EmitAndDrain(t *testing.T) {
	s := NewStream(4)
	ctx := context.Background()

	go func() {
		for i := 0; i < 3; i++ {
			s.Emit(ctx, RawItem{ExternalID: string(rune('a' + i))})
		}
		s.Close(nil)
	}()

	var got []RawItem
	for {
		item, ok := s.Next(ctx)
		if !ok {
			break
		}
		got = append(got, item)
	}

	if len(got) != 3 {
		t.Errorf("Expected 3 items, got %d", len(got))
	}
	if s.Err() != nil {
		t.Errorf("Expected no terminal error, got %v", s.Err())
	}
}

func TestStream_SubFailuresDoNotEndStream(t *testing.T) {
	s := NewStream(4)
	ctx := context.Background()

	go func() {
		s.Emit(ctx, RawItem{ExternalID: "1"})
		s.Fail("r/golang", ErrSourceUnavailable)
		s.Emit(ctx, RawItem{ExternalID: "2"})
		s.Close(nil)
	}()

	count := 0
	for {
		if _, ok := s.Next(ctx); !ok {
			break
		}
		count++
	}

	if count != 2 {
		t.Errorf("Expected 2 items despite sub-failure, got %d", count)
	}

	failures := s.SubFailures()
	if len(failures) != 1 {
		t.Fatalf("Expected 1 sub-failure, got %d", len(failures))
	}
	if failures[0].Part != "r/golang" {
		t.Errorf("Expected sub-failure part r/golang, got %q", failures[0].Part)
	}
}

func TestStream_TerminalError(t *testing.T) {
	s := NewStream(1)
	s.Close(ErrSourceAuth)

	if _, ok := s.Next(context.Background()); ok {
		t.Error("Expected exhausted stream")
	}
	if !errors.Is(s.Err(), ErrSourceAuth) {
		t.Errorf("Expected ErrSourceAuth, got %v", s.Err())
	}
}

func TestStream_NextRespectsContextCancellation(t *testing.T) {
	s := NewStream(0) // unbuffered, nothing will arrive

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := s.Next(ctx)
	if ok {
		t.Error("Expected Next to return not-ok on cancellation")
	}
	if time.Since(start) > time.Second {
		t.Error("Next did not return promptly after cancellation")
	}
}

func TestStream_EmitRespectsContextCancellation(t *testing.T) {
	s := NewStream(0) // unbuffered, no consumer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if s.Emit(ctx, RawItem{ExternalID: "x"}) {
		t.Error("Expected Emit to fail on cancelled context")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status     int
		retryAfter string
		check      func(error) bool
		name       string
	}{
		{200, "", func(err error) bool { return err == nil }, "ok"},
		{401, "", func(err error) bool { return errors.Is(err, ErrSourceAuth) }, "auth"},
		{403, "", func(err error) bool { return errors.Is(err, ErrSourceAuth) }, "forbidden"},
		{500, "", func(err error) bool { return errors.Is(err, ErrSourceUnavailable) }, "server error"},
		{404, "", func(err error) bool { return errors.Is(err, ErrSourceUnavailable) }, "not found"},
		{429, "120", func(err error) bool {
			var rl *RateLimitError
			return errors.As(err, &rl) && rl.RetryAfter == 2*time.Minute
		}, "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newTestResponse(tt.status, tt.retryAfter)
			if err := ClassifyStatus(resp); !tt.check(err) {
				t.Errorf("Status %d: unexpected classification %v", tt.status, err)
			}
		})
	}
}
