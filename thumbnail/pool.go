package thumbnail

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidra-player/vidra/log"
)

// FetchFunc resolves one row.
type FetchFunc func(ctx context.Context, fileID string, slot Slot) Result

// Handle identifies a dispatched job.
type Handle uuid.UUID

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Pool runs one goroutine per job and tracks every job by its handle.
// Results of cancelled jobs are dropped.
type Pool struct {
	fetch   FetchFunc
	results chan Result

	mu   sync.Mutex
	jobs map[Handle]context.CancelFunc
	wg   sync.WaitGroup
}

// NewPool creates a pool delivering results on a channel with the given buffer.
func NewPool(fetch FetchFunc, buffer int) *Pool {
	return &Pool{
		fetch:   fetch,
		results: make(chan Result, buffer),
		jobs:    make(map[Handle]context.CancelFunc),
	}
}

// Results delivers completed jobs.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Dispatch starts a job for fileID. slot is passed through to the result unchanged.
func (p *Pool) Dispatch(fileID string, slot Slot) Handle {
	h := Handle(uuid.New())
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.jobs[h] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.forget(h)

		result := p.fetch(ctx, fileID, slot)
		if ctx.Err() != nil {
			log.Debugf("thumbnail job %s for %s cancelled", h, fileID)
			return
		}

		select {
		case p.results <- result:
		case <-ctx.Done():
		}
	}()

	return h
}

func (p *Pool) forget(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cancel, ok := p.jobs[h]; ok {
		cancel()
		delete(p.jobs, h)
	}
}

// Cancel asks a job to stop. Unknown or finished handles are ignored.
func (p *Pool) Cancel(h Handle) {
	p.mu.Lock()
	cancel, ok := p.jobs[h]
	p.mu.Unlock()

	if ok {
		cancel()
	}
}

// Len is the number of jobs still running.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// CancelAll cancels every job and waits up to grace for them to finish.
// It reports whether all jobs finished in time; the rest are abandoned.
func (p *Pool) CancelAll(grace time.Duration) bool {
	p.mu.Lock()
	for _, cancel := range p.jobs {
		cancel()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		log.Warnf("%d thumbnail jobs did not stop within %s", p.Len(), grace)
		return false
	}
}
