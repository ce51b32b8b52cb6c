package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// entryState is the run lifecycle of an entry: Idle -> Triggered ->
// Running -> Idle in a loop. stateDisabled only ever appears in status
// views; enablement is tracked separately from the run lifecycle so a
// disable/enable toggle mid-run cannot produce a second concurrent run.
type entryState int

const (
	stateIdle entryState = iota
	stateTriggered
	stateRunning
	stateDisabled
)

func (s entryState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateTriggered:
		return "triggered"
	case stateRunning:
		return "running"
	default:
		return "disabled"
	}
}

// acquireResult says whether a trigger started a run, and if not, why.
type acquireResult int

const (
	acquired acquireResult = iota
	refusedDisabled
	refusedInFlight
	refusedDeferred
)

// Entry is one (source, cadence) schedule entry. Created at bootstrap,
// lives for the process lifetime; never deleted, only disabled. All
// state transitions happen under the entry's own lock so the no-overlap
// rule is enforced per source without any global lock.
type Entry struct {
	Source  string
	Cadence string

	schedule cron.Schedule

	mu         sync.Mutex
	run        entryState
	enabled    bool
	deferUntil time.Time // rate-limit deferral for the next fire
}

// nextFire computes the next trigger time, honoring any rate-limit
// deferral that extends past the regular cadence tick.
func (e *Entry) nextFire(now time.Time) time.Time {
	next := e.schedule.Next(now)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deferUntil.After(next) {
		next = e.deferUntil
	}
	return next
}

// tryAcquire moves Idle -> Triggered. Refuses while the entry is
// disabled, a run is still in flight (the trigger is skipped, not
// queued), or a rate-limit deferral is pending. The deferral check
// here covers timers armed before the deferral was known.
func (e *Entry) tryAcquire(now time.Time) acquireResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !e.enabled:
		return refusedDisabled
	case e.run != stateIdle:
		return refusedInFlight
	case now.Before(e.deferUntil):
		return refusedDeferred
	}

	e.run = stateTriggered
	return acquired
}

func (e *Entry) markRunning() {
	e.mu.Lock()
	e.run = stateRunning
	e.mu.Unlock()
}

// release moves Running -> Idle and records any rate-limit deferral
// for the next fire.
func (e *Entry) release(retryAfter time.Duration, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if retryAfter > 0 {
		e.deferUntil = now.Add(retryAfter)
	}
	e.run = stateIdle
}

// setEnabled flips enablement only. An in-flight run keeps the entry
// acquired until release, so neither disabling nor re-enabling mid-run
// interrupts the run or lets a second one start.
func (e *Entry) setEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
}

func (e *Entry) currentState() entryState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return stateDisabled
	}
	return e.run
}

// EntryStatus is a point-in-time view for the stats surface.
type EntryStatus struct {
	Source   string    `json:"source"`
	Cadence  string    `json:"cadence"`
	State    string    `json:"state"`
	NextFire time.Time `json:"next_fire"`
}
