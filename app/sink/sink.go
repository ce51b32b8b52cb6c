// Package sink is the idempotent persistence boundary: it deduplicates
// against recently seen identities, writes to durable storage, and
// updates the identity cache.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pulsewire/pulsewire/app/cache"
	"github.com/pulsewire/pulsewire/app/database"
	"github.com/pulsewire/pulsewire/app/normalize"
)

// WriteResult is the outcome of one sink write.
type WriteResult int

const (
	Ack WriteResult = iota
	Duplicate
	Failure
)

func (r WriteResult) String() string {
	switch r {
	case Ack:
		return "ack"
	case Duplicate:
		return "duplicate"
	default:
		return "failure"
	}
}

// ErrStorageUnavailable is surfaced after the bounded retry budget for a
// durable write is exhausted. The run coordinator counts the item as
// dropped; the run itself continues.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxElapsed      = 3 * time.Second
)

// Sink is safe to call concurrently from multiple simultaneous runs;
// the repository's connection pool and the cache carry the shared state.
type Sink struct {
	repo     database.RecordRepository
	cache    cache.IdentityCache
	cacheTTL time.Duration
}

func New(repo database.RecordRepository, idCache cache.IdentityCache, cacheTTL time.Duration) *Sink {
	return &Sink{
		repo:     repo,
		cache:    idCache,
		cacheTTL: cacheTTL,
	}
}

// Write persists one record. The cache short-circuits recently seen
// identities; the durable upsert keyed by (source, external_id) is the
// final idempotence authority because the cache is TTL-bound and best
// effort.
func (s *Sink) Write(ctx context.Context, record *normalize.Record) (WriteResult, error) {
	key := record.IdentityKey()

	seen, err := s.cache.Seen(ctx, key)
	if err != nil {
		// Cache trouble never blocks a write; the upsert dedups anyway.
		slog.Warn("Identity cache lookup failed", "key", key, "error", err)
	} else if seen {
		return Duplicate, nil
	}

	inserted, err := s.upsertWithRetry(ctx, record)
	if err != nil {
		return Failure, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.cache.MarkSeen(ctx, key, s.cacheTTL); err != nil {
		slog.Warn("Identity cache update failed", "key", key, "error", err)
	}

	if !inserted {
		return Duplicate, nil
	}
	return Ack, nil
}

// upsertWithRetry retries transient storage failures with bounded
// exponential backoff within the same call, per the write contract.
func (s *Sink) upsertWithRetry(ctx context.Context, record *normalize.Record) (bool, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxElapsedTime = retryMaxElapsed

	var inserted bool
	operation := func() error {
		var err error
		inserted, err = s.repo.UpsertRecord(ctx, record)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return false, err
	}
	return inserted, nil
}
