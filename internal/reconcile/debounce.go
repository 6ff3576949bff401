package reconcile

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled function.
type Task struct {
	timer *time.Timer
}

// Cancel stops the task if it has not fired yet and reports whether it was
// still pending. A fired task runs to completion; there is no interruption.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	return t.timer.Stop()
}

// Schedule runs fn after delay unless the returned handle is cancelled
// first.
func Schedule(delay time.Duration, fn func()) *Task {
	return &Task{timer: time.AfterFunc(delay, fn)}
}

// Debouncer coalesces rapid triggers into a single delayed call: each
// Trigger cancels the pending task (if any) and schedules a new one, so fn
// runs only after a quiet period of the configured delay. Once a task has
// fired it is allowed to complete; closing the owner does not chase an
// in-flight save.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending *Task
}

// DefaultSaveDelay mirrors the editor's auto-save quiet period.
const DefaultSaveDelay = 2 * time.Second

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending.Cancel()
	d.pending = Schedule(d.delay, fn)
}

// Flush cancels any pending call and runs fn immediately. Used when the
// editor closes and buffered changes must not be lost.
func (d *Debouncer) Flush(fn func()) {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	if pending.Cancel() {
		fn()
	}
}

// Stop cancels any pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending.Cancel()
	d.pending = nil
}
