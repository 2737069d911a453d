package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler submits a recurring job to a pool on a fixed interval, mimicking
// the cron-style triggers that drive replenishment and cleanup.
type Scheduler struct {
	pool *Pool

	mu      sync.Mutex
	stops   []chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

func NewScheduler(pool *Pool) *Scheduler {
	return &Scheduler{
		pool: pool,
	}
}

// Every submits job to the pool each time interval elapses. A full queue only
// skips that tick; the next tick tries again.
func (s *Scheduler) Every(name string, interval time.Duration, job func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	stop := make(chan struct{})
	s.stops = append(s.stops, stop)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				err := s.pool.Submit(func(ctx context.Context) {
					if err := job(ctx); err != nil {
						zap.L().Error("scheduled job failed", zap.String("job", name), zap.Error(err))
					}
				})
				if err != nil {
					zap.L().Warn("scheduled job skipped, queue full", zap.String("job", name))
				}
			}
		}
	}()
}

// Stop halts all tickers. Jobs already queued still run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	stops := s.stops
	s.mu.Unlock()

	for _, stop := range stops {
		close(stop)
	}
	s.wg.Wait()
}
