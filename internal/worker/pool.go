package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("worker queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Job is one unit of asynchronous work. Jobs receive a context that is
// cancelled when the pool stops; jobs that must finish what they started are
// expected to detach from it for their critical section.
type Job func(ctx context.Context)

// Pool runs queued jobs on a fixed set of worker goroutines. It stands in for
// an external queue/worker system: delivery is at least once from the point
// of view of the jobs, which are written to be idempotent.
type Pool struct {
	jobs    chan Job
	workers int
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	// mu orders Submit sends against the channel close in Stop.
	mu      sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewPool(queueSize, workers int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
	}
}

// Start launches the worker goroutines. Calling Start more than once is a
// no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel

		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(ctx)
		}
	})
}

// Submit queues a job without blocking. A full queue returns ErrQueueFull so
// the caller can surface a retryable failure instead of stalling; a stopped
// pool returns ErrPoolStopped instead of panicking on the closed channel.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued jobs and waits for in-flight ones to finish. Submit
// calls racing with Stop either land before the close or see the stopped
// flag; the write lock waits out any send in flight.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.jobs)
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
	})
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.execute(ctx, job)
	}
}

func (p *Pool) execute(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("worker job panicked", zap.Any("panic", r))
		}
	}()

	job(ctx)
}
