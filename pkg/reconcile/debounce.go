package reconcile

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultResizeDebounce is how long a container width has to stay unchanged
// before a new pass starts.
const DefaultResizeDebounce = 300 * time.Millisecond

// Debouncer coalesces bursts of triggers into one call after a quiet
// period. It is safe for concurrent use.
type Debouncer struct {
	clock clock.WithDelayedExecution
	delay time.Duration

	mu    sync.Mutex
	timer clock.Timer
	seq   uint64
}

// NewDebouncer creates a debouncer. A nil clock uses the real clock and a
// non-positive delay uses [DefaultResizeDebounce].
func NewDebouncer(clk clock.WithDelayedExecution, delay time.Duration) *Debouncer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if delay <= 0 {
		delay = DefaultResizeDebounce
	}
	return &Debouncer{clock: clk, delay: delay}
}

// Trigger schedules fn to run after the quiet period, replacing any call
// that is still pending. fn runs on its own goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			go fn()
		}
	})
}

// Stop cancels the pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
