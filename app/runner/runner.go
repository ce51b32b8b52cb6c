// Package runner executes one scheduled collection trigger end to end:
// resolve the collector, invoke it under a bounded timeout, stream raw
// items through the normalizer, and hand records to the sink. A single
// source's total failure never propagates beyond its own run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulsewire/pulsewire/app/collector"
	"github.com/pulsewire/pulsewire/app/metrics"
	"github.com/pulsewire/pulsewire/app/normalize"
	"github.com/pulsewire/pulsewire/app/sink"
)

// Outcome classifies a finished collection run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// ErrCollectionTimeout marks a collector invocation that exceeded its
// per-source timeout. Retryable via the next scheduled tick.
var ErrCollectionTimeout = errors.New("collection timed out")

// CollectionRun summarizes one execution of a collector. Retained only
// as an in-memory/metrics record.
type CollectionRun struct {
	RunID          string
	Source         string
	StartedAt      time.Time
	FinishedAt     time.Time
	Outcome        Outcome
	ItemsCollected int
	ItemsDropped   int
	Duplicates     int
	SubFailures    int
	FailureReason  string
	RetryAfter     time.Duration // rate-limit hint for the scheduler, 0 if none
}

// Sinker is the persistence boundary the coordinator writes through.
type Sinker interface {
	Write(ctx context.Context, record *normalize.Record) (sink.WriteResult, error)
}

type Coordinator struct {
	registry       *collector.Registry
	normalizer     *normalize.Normalizer
	sink           Sinker
	metrics        *metrics.Metrics
	timeouts       map[string]time.Duration
	defaultTimeout time.Duration
}

func NewCoordinator(registry *collector.Registry, normalizer *normalize.Normalizer,
	s Sinker, m *metrics.Metrics, timeouts map[string]time.Duration,
	defaultTimeout time.Duration) *Coordinator {
	return &Coordinator{
		registry:       registry,
		normalizer:     normalizer,
		sink:           s,
		metrics:        m,
		timeouts:       timeouts,
		defaultTimeout: defaultTimeout,
	}
}

// Execute runs one triggered entry to completion. All failures are
// caught, classified, and reflected only in the returned run record and
// metrics; this method never panics outward and never returns an error.
func (c *Coordinator) Execute(ctx context.Context, source string) *CollectionRun {
	run := &CollectionRun{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		run.FinishedAt = time.Now().UTC()
		c.emit(run)
	}()

	col, err := c.registry.Resolve(source)
	if err != nil {
		run.Outcome = OutcomeFailed
		run.FailureReason = err.Error()
		return run
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeoutFor(source))
	defer cancel()

	stream := col.Collect(runCtx)
	c.drain(runCtx, run, stream)

	c.classify(ctx, runCtx, run, stream)
	return run
}

func (c *Coordinator) timeoutFor(source string) time.Duration {
	if d, ok := c.timeouts[source]; ok && d > 0 {
		return d
	}
	return c.defaultTimeout
}

// drain consumes the stream item by item, normalizing and writing as
// items arrive so peak memory stays bounded by the stream buffer.
func (c *Coordinator) drain(ctx context.Context, run *CollectionRun, stream *collector.Stream) {
	for {
		item, ok := stream.Next(ctx)
		if !ok {
			return
		}

		record, err := c.normalizer.Run(run.Source, item, run.StartedAt)
		if err != nil {
			run.ItemsDropped++
			slog.Warn("Item dropped by normalizer",
				"source", run.Source, "run_id", run.RunID,
				"external_id", item.ExternalID, "error", err)
			continue
		}

		result, err := c.sink.Write(ctx, record)
		switch result {
		case sink.Ack:
			run.ItemsCollected++
		case sink.Duplicate:
			run.Duplicates++
		case sink.Failure:
			run.ItemsDropped++
			slog.Error("Item dropped by sink",
				"source", run.Source, "run_id", run.RunID,
				"external_id", record.ExternalID, "error", err)
		}
	}
}

// classify settles the run outcome from the stream's terminal state,
// the context, and the sub-failure list.
func (c *Coordinator) classify(parent, runCtx context.Context, run *CollectionRun, stream *collector.Stream) {
	subFailures := stream.SubFailures()
	run.SubFailures = len(subFailures)
	for _, sub := range subFailures {
		slog.Warn("Sub-fetch failed",
			"source", run.Source, "run_id", run.RunID,
			"part", sub.Part, "error", sub.Err)
	}
	run.RetryAfter = maxRetryAfter(stream.Err(), subFailures)

	switch {
	case parent.Err() != nil:
		run.Outcome = OutcomeFailed
		run.FailureReason = "cancelled"
	case runCtx.Err() == context.DeadlineExceeded:
		run.Outcome = OutcomeFailed
		run.FailureReason = ErrCollectionTimeout.Error()
	case stream.Err() != nil:
		run.Outcome = OutcomeFailed
		run.FailureReason = failureReason(stream.Err())
	case run.SubFailures > 0:
		run.Outcome = OutcomePartial
	default:
		run.Outcome = OutcomeSuccess
	}
}

func failureReason(err error) string {
	var rateLimit *collector.RateLimitError
	switch {
	case errors.Is(err, collector.ErrSourceAuth):
		return "auth"
	case errors.As(err, &rateLimit):
		return "rate_limited"
	case errors.Is(err, collector.ErrSourceUnavailable):
		return "unavailable"
	case errors.Is(err, collector.ErrSourceParse):
		return "parse"
	default:
		return err.Error()
	}
}

// maxRetryAfter extracts the largest upstream retry hint seen anywhere
// in the run.
func maxRetryAfter(terminal error, subFailures []collector.SubFailure) time.Duration {
	var hint time.Duration
	consider := func(err error) {
		var rateLimit *collector.RateLimitError
		if errors.As(err, &rateLimit) && rateLimit.RetryAfter > hint {
			hint = rateLimit.RetryAfter
		}
	}

	if terminal != nil {
		consider(terminal)
	}
	for _, sub := range subFailures {
		consider(sub.Err)
	}
	return hint
}

func (c *Coordinator) emit(run *CollectionRun) {
	duration := run.FinishedAt.Sub(run.StartedAt)

	c.metrics.RunsTotal.WithLabelValues(run.Source, string(run.Outcome)).Inc()
	c.metrics.ItemsCollected.WithLabelValues(run.Source).Add(float64(run.ItemsCollected))
	c.metrics.ItemsDropped.WithLabelValues(run.Source).Add(float64(run.ItemsDropped))
	c.metrics.DuplicateWrites.WithLabelValues(run.Source).Add(float64(run.Duplicates))
	c.metrics.RunDuration.WithLabelValues(run.Source).Observe(duration.Seconds())
	if run.Outcome != OutcomeFailed {
		c.metrics.LastSuccess.WithLabelValues(run.Source).Set(float64(run.FinishedAt.Unix()))
	}

	attrs := []any{
		"source", run.Source,
		"run_id", run.RunID,
		"outcome", string(run.Outcome),
		"collected", run.ItemsCollected,
		"dropped", run.ItemsDropped,
		"duplicates", run.Duplicates,
		"sub_failures", run.SubFailures,
		"duration", duration,
	}

	if run.Outcome == OutcomeFailed {
		attrs = append(attrs, "reason", run.FailureReason)
		slog.Error("Collection run failed", attrs...)
		return
	}
	slog.Info("Collection run completed", attrs...)
}

// String implements fmt.Stringer for debug logging.
func (r *CollectionRun) String() string {
	return fmt.Sprintf("%s/%s outcome=%s collected=%d", r.Source, r.RunID, r.Outcome, r.ItemsCollected)
}
