package collector

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrSourceUnavailable indicates a network failure or upstream 5xx.
	// Retryable via the next scheduled tick.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceAuth indicates rejected credentials. Not retryable until
	// the source is reconfigured.
	ErrSourceAuth = errors.New("source authentication failed")

	// ErrSourceParse indicates a malformed upstream payload. Logged and
	// skipped at the item level, never fatal to the run.
	ErrSourceParse = errors.New("source payload malformed")

	// Registry errors.
	ErrDuplicateSource = errors.New("source already registered")
	ErrUnknownSource   = errors.New("unknown source")
)

// RateLimitError is returned when the upstream throttles us. RetryAfter
// carries the upstream hint; the scheduler may defer the next trigger
// beyond the normal cadence when the hint exceeds the remaining wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("source rate limited (retry after %s)", e.RetryAfter)
}

// ClassifyStatus maps an HTTP response status to the collector error
// taxonomy. Returns nil for 2xx.
func ClassifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrSourceAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
