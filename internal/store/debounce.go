package store

import (
	"sync"
	"time"
)

// debouncer runs fn once, delay after the most recent Trigger.
type debouncer struct {
	mutex sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Trigger (re)arms the timer.
func (d *debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Cancel disarms a pending timer. It reports whether a run was pending.
func (d *debouncer) Cancel() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer == nil {
		return false
	}
	pending := d.timer.Stop()
	d.timer = nil
	return pending
}
