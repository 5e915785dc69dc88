// Package debounce delays a rapidly changing value until it has stayed
// unchanged for a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWait is the quiet period applied to search input.
const DefaultWait = 500 * time.Millisecond

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the clock used for timers. Tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Debouncer emits the latest value passed to Set once no further Set call
// has happened for the wait period. Emissions run on the timer goroutine.
type Debouncer[T any] struct {
	clock clockwork.Clock
	wait  time.Duration
	emit  func(T)

	mu         sync.Mutex
	timer      clockwork.Timer
	pending    T
	hasPending bool
	seq        uint64
	stopped    bool
}

// New creates a Debouncer that calls emit with settled values.
func New[T any](wait time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		clock: o.clock,
		wait:  wait,
		emit:  emit,
	}
}

// Set records a new value and restarts the quiet period.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.wait <= 0 {
		d.mu.Unlock()
		d.emit(v)
		return
	}

	d.pending = v
	d.hasPending = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.wait, func() {
		d.fire(seq)
	})
	d.mu.Unlock()
}

// fire emits the pending value if no Set happened after the timer was armed.
// A timer that already fired when Stop was called carries an old seq.
func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || !d.hasPending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.hasPending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}

// Flush emits the pending value now, if any. It reports whether a value was
// emitted.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.hasPending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.pending
	d.hasPending = false
	d.seq++
	d.mu.Unlock()

	d.emit(v)
	return true
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

// Stop cancels any pending emission. Later Set calls are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.hasPending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
