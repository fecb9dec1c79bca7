// Package debounce delays effect application until input has been quiescent
// for a fixed window, collapsing rapid repeated triggers into one.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules at most one pending function. Triggering while a call
// is pending discards it and restarts the window, so only the last trigger
// within a burst fires.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Debouncer with the given quiescence window.
func New(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the window elapses with no further
// triggers. Any previously pending fn is discarded.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Cancel discards the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
