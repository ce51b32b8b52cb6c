// Package scheduler drives independent timers per schedule entry. Each
// firing launches its run as its own goroutine, so sources collect in
// parallel while a single source never runs two overlapping
// invocations.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsewire/pulsewire/app/config"
	"github.com/pulsewire/pulsewire/app/metrics"
	"github.com/pulsewire/pulsewire/app/runner"
)

// Executor runs one triggered collection. Satisfied by
// runner.Coordinator.
type Executor interface {
	Execute(ctx context.Context, source string) *runner.CollectionRun
}

type Scheduler struct {
	executor Executor
	metrics  *metrics.Metrics
	grace    time.Duration

	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string

	loopCtx    context.Context
	loopCancel context.CancelFunc
	runCtx     context.Context
	runCancel  context.CancelFunc
	wg         sync.WaitGroup
	started    bool
}

func New(executor Executor, m *metrics.Metrics, grace time.Duration) *Scheduler {
	loopCtx, loopCancel := context.WithCancel(context.Background())
	runCtx, runCancel := context.WithCancel(context.Background())

	return &Scheduler{
		executor:   executor,
		metrics:    m,
		grace:      grace,
		entries:    make(map[string]*Entry),
		loopCtx:    loopCtx,
		loopCancel: loopCancel,
		runCtx:     runCtx,
		runCancel:  runCancel,
	}
}

// AddEntry registers a schedule entry. Must be called before Start;
// entries are never removed, only disabled.
func (s *Scheduler) AddEntry(source, cadence string, enabled bool) error {
	schedule, err := config.ParseCadence(cadence)
	if err != nil {
		return fmt.Errorf("invalid cadence for %q: %w", source, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("cannot add entry %q: scheduler already started", source)
	}
	if _, exists := s.entries[source]; exists {
		return fmt.Errorf("duplicate schedule entry: %q", source)
	}

	entry := &Entry{Source: source, Cadence: cadence, schedule: schedule, enabled: enabled}

	s.entries[source] = entry
	s.order = append(s.order, source)
	return nil
}

// Start launches one timer loop per entry. Each enabled entry fires
// once immediately, then follows its cadence.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	entries := make([]*Entry, 0, len(s.order))
	for _, name := range s.order {
		entries = append(entries, s.entries[name])
	}
	s.mu.Unlock()

	slog.Info("Scheduler starting", "entries", len(entries))

	for _, entry := range entries {
		s.wg.Add(1)
		go s.entryLoop(entry)
	}
}

func (s *Scheduler) entryLoop(entry *Entry) {
	defer s.wg.Done()

	// Immediate first fire so a fresh process does not sit out a whole
	// cadence interval.
	s.trigger(entry)

	for {
		next := entry.nextFire(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.loopCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.trigger(entry)
		}
	}
}

// trigger attempts Idle -> Triggered -> Running for one entry and, on
// success, launches the run. Overlapping triggers are skipped, not
// queued: a slow source self-throttles. A pending rate-limit deferral
// refuses the trigger too, including timers armed before the run that
// produced the deferral finished.
func (s *Scheduler) trigger(entry *Entry) bool {
	switch entry.tryAcquire(time.Now()) {
	case refusedDisabled:
		slog.Debug("Source disabled, skipping trigger", "source", entry.Source)
		return false
	case refusedInFlight:
		slog.Warn("Previous run still in flight, skipping trigger", "source", entry.Source)
		s.metrics.RunsSkipped.WithLabelValues(entry.Source).Inc()
		return false
	case refusedDeferred:
		slog.Debug("Trigger deferred by rate-limit hint", "source", entry.Source)
		return false
	}

	entry.markRunning()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		run := s.executor.Execute(s.runCtx, entry.Source)
		entry.release(run.RetryAfter, time.Now())

		if run.RetryAfter > 0 {
			slog.Info("Next trigger deferred by rate-limit hint",
				"source", entry.Source, "retry_after", run.RetryAfter)
		}
	}()
	return true
}

// RunNow bypasses the next-tick wait for one source. The no-overlap
// rule still applies; returns false when a run is already in flight,
// the entry is disabled, or an upstream rate limit defers the source.
func (s *Scheduler) RunNow(source string) (bool, error) {
	s.mu.RLock()
	entry, exists := s.entries[source]
	s.mu.RUnlock()

	if !exists {
		return false, fmt.Errorf("unknown schedule entry: %q", source)
	}
	return s.trigger(entry), nil
}

// SetEnabled toggles a schedule entry. Disabling never interrupts an
// in-flight run.
func (s *Scheduler) SetEnabled(source string, enabled bool) error {
	s.mu.RLock()
	entry, exists := s.entries[source]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("unknown schedule entry: %q", source)
	}

	entry.setEnabled(enabled)
	slog.Info("Schedule entry toggled", "source", source, "enabled", enabled)
	return nil
}

// Snapshot returns entry statuses in registration order.
func (s *Scheduler) Snapshot() []EntryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	statuses := make([]EntryStatus, 0, len(s.order))
	for _, name := range s.order {
		entry := s.entries[name]
		statuses = append(statuses, EntryStatus{
			Source:   entry.Source,
			Cadence:  entry.Cadence,
			State:    entry.currentState().String(),
			NextFire: entry.nextFire(now),
		})
	}
	return statuses
}

// Stop halts all entry timers immediately, then gives in-flight runs a
// bounded grace period to finish before cancelling their contexts.
func (s *Scheduler) Stop() {
	slog.Info("Scheduler stopping", "grace", s.grace)
	s.loopCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.grace):
		slog.Warn("Grace period elapsed, cancelling in-flight runs")
		s.runCancel()
		<-done
	}

	s.runCancel()
	slog.Info("Scheduler stopped")
}
