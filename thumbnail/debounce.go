package thumbnail

import (
	"sync"
	"time"
)

// Debouncer collects items and flushes them as one batch once no new item arrived for the delay.
type Debouncer[T any] struct {
	delay time.Duration
	flush func([]T)

	mu      sync.Mutex
	pending []T
	timer   *time.Timer
}

// NewDebouncer creates a debouncer. flush runs on a timer goroutine.
func NewDebouncer[T any](delay time.Duration, flush func([]T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, flush: flush}
}

// Add queues items and restarts the delay.
func (d *Debouncer[T]) Add(items ...T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, items...)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.Flush)
}

// Flush delivers the pending batch now.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if len(batch) > 0 {
		d.flush(batch)
	}
}

// Stop discards pending items.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
