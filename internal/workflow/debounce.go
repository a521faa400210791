package workflow

import (
	"context"
	"sync"
	"time"
)

// Debouncer delays work until triggers stop arriving. Each new trigger cancels the
// pending run and the context of any run already in flight.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, superseding earlier work.
func (d *Debouncer) Trigger(parent context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.cancelLocked()

	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		defer cancel()
		fn(ctx)
	})
}

// Preempt supersedes pending and in-flight work and returns a context for work the
// caller runs right away. The caller must call the returned cancel func.
func (d *Debouncer) Preempt(parent context.Context) (context.Context, context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()

	ctx, cancel := context.WithCancel(parent)
	if d.stopped {
		cancel()
		return ctx, cancel
	}
	d.cancel = cancel
	return ctx, cancel
}

// Cancel drops pending work and cancels work in flight.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels everything and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
