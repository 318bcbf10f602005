package session

import (
	"context"

	"github.com/vidra-player/vidra/engine"
)

// Command is a unit of work executed on the runner goroutine.
type Command func(*Coordinator)

// Runner owns a Coordinator and serializes everything that touches it:
// engine events and commands submitted by the UI go through one queue.
type Runner struct {
	c     *Coordinator
	queue chan Command
	done  chan struct{}
}

// DefaultQueueSize bounds the inbound queue. Engine events block when it is full.
const DefaultQueueSize = 1024

// NewRunner binds c to a new runner. Engine events received by c are queued from now on.
func NewRunner(c *Coordinator, size int) *Runner {
	if size <= 0 {
		size = DefaultQueueSize
	}

	r := &Runner{
		c:     c,
		queue: make(chan Command, size),
		done:  make(chan struct{}),
	}

	c.inbox = func(e engine.Event) {
		r.Submit(func(c *Coordinator) { c.Dispatch(e) })
	}
	return r
}

// Run drains the queue until ctx is cancelled, then shuts the engine down.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer r.c.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.queue:
			cmd(r.c)
		}
	}
}

// Submit queues cmd. It reports false when the runner has stopped.
func (r *Runner) Submit(cmd Command) bool {
	select {
	case <-r.done:
		return false
	default:
	}

	select {
	case <-r.done:
		return false
	case r.queue <- cmd:
		return true
	}
}

// Do runs cmd and waits until it completes.
func (r *Runner) Do(ctx context.Context, cmd Command) bool {
	finished := make(chan struct{})
	ok := r.Submit(func(c *Coordinator) {
		defer close(finished)
		cmd(c)
	})
	if !ok {
		return false
	}

	select {
	case <-finished:
		return true
	case <-r.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
