package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchpool/ticket-api/internal/service"
)

func TestPool_SubmitAndRun(t *testing.T) {
	pool := NewPool(16, 4)
	pool.Start()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := pool.Submit(func(context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
		require.NoError(t, err)
	}

	wg.Wait()
	pool.Stop()

	assert.Equal(t, int32(10), ran.Load())
}

func TestPool_SubmitFullQueue(t *testing.T) {
	// A single worker blocked on release keeps the queue occupied.
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	// The worker is busy, so this one sits in the queue.
	require.NoError(t, pool.Submit(func(context.Context) {}))

	err := pool.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
}

func TestPool_StopDrainsQueuedJobs(t *testing.T) {
	pool := NewPool(32, 2)
	pool.Start()

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(func(context.Context) {
			ran.Add(1)
		}))
	}

	pool.Stop()

	assert.Equal(t, int32(20), ran.Load(), "queued jobs must finish before Stop returns")
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(4, 1)
	pool.Start()
	pool.Stop()

	err := pool.Submit(func(context.Context) {})

	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestFulfillmentQueue_EnqueueAfterStop(t *testing.T) {
	pool := NewPool(4, 1)
	pool.Start()
	pool.Stop()

	queue := NewFulfillmentQueue(pool, &recordingFulfiller{})
	err := queue.EnqueueFulfillment(1)

	assert.ErrorIs(t, err, service.ErrQueueFull)
}

func TestPool_RecoversFromPanic(t *testing.T) {
	pool := NewPool(4, 1)
	pool.Start()

	require.NoError(t, pool.Submit(func(context.Context) {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}

	pool.Stop()
}

type recordingFulfiller struct {
	mu  sync.Mutex
	ids []uint
}

func (f *recordingFulfiller) Fulfill(_ context.Context, purchaseID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, purchaseID)
}

func TestFulfillmentQueue_Enqueue(t *testing.T) {
	pool := NewPool(4, 1)
	pool.Start()

	fulfiller := &recordingFulfiller{}
	queue := NewFulfillmentQueue(pool, fulfiller)

	require.NoError(t, queue.EnqueueFulfillment(42))
	pool.Stop()

	assert.Equal(t, []uint{42}, fulfiller.ids)
}

func TestFulfillmentQueue_QueueFull(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, pool.Submit(func(context.Context) {}))

	queue := NewFulfillmentQueue(pool, &recordingFulfiller{})
	err := queue.EnqueueFulfillment(1)

	assert.ErrorIs(t, err, service.ErrQueueFull,
		"callers see the service sentinel, not the pool's")

	close(release)
}

func TestScheduler_Every(t *testing.T) {
	pool := NewPool(16, 2)
	pool.Start()

	scheduler := NewScheduler(pool)

	var ticks atomic.Int32
	scheduler.Every("test", 10*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	scheduler.Stop()
	pool.Stop()

	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load(), "no ticks may fire after Stop")
}
