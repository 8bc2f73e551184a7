package sync

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the autosave debounce window.
const DefaultQuietPeriod = 2 * time.Second

// Autosaver coalesces rapid local mutations into a single deferred save.
// Each Touch resets the quiet-period timer; when it expires the flush
// callback fires once with whatever state is current by then. An optional
// MaxDeferral ceiling forces a flush even under continuous typing.
type Autosaver struct {
	quiet       time.Duration
	maxDeferral time.Duration
	flush       func()

	mu       sync.Mutex
	timer    *time.Timer
	firstDue time.Time
	stopped  bool
}

// NewAutosaver creates a scheduler that calls flush after quiet inactivity.
// maxDeferral of zero disables the deferral ceiling, matching the original
// behavior of a single unbounded quiet period.
func NewAutosaver(quiet, maxDeferral time.Duration, flush func()) *Autosaver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Autosaver{quiet: quiet, maxDeferral: maxDeferral, flush: flush}
}

// Touch records a local change, starting or resetting the quiet timer.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	now := time.Now()
	if a.timer == nil {
		a.firstDue = now
	}

	delay := a.quiet
	if a.maxDeferral > 0 {
		// Never defer past firstDue+maxDeferral, however fast edits arrive.
		if remaining := a.maxDeferral - now.Sub(a.firstDue); remaining < delay {
			delay = remaining
			if delay < 0 {
				delay = 0
			}
		}
	}

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(delay, a.fire)
}

// Cancel drops any pending flush, e.g. because a manual save ran first.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Pending reports whether a flush is currently scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Stop cancels any pending flush and refuses further Touches.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if a.stopped || a.timer == nil {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	a.flush()
}
