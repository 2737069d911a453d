package worker

import (
	"context"
	"errors"

	"github.com/scratchpool/ticket-api/internal/service"
)

// Fulfiller processes one purchase to a terminal state.
type Fulfiller interface {
	Fulfill(ctx context.Context, purchaseID uint)
}

// FulfillmentQueue adapts the pool to the purchase service's JobQueue
// contract.
type FulfillmentQueue struct {
	pool *Pool
	svc  Fulfiller
}

func NewFulfillmentQueue(pool *Pool, svc Fulfiller) *FulfillmentQueue {
	return &FulfillmentQueue{
		pool: pool,
		svc:  svc,
	}
}

func (q *FulfillmentQueue) EnqueueFulfillment(purchaseID uint) error {
	err := q.pool.Submit(func(ctx context.Context) {
		q.svc.Fulfill(ctx, purchaseID)
	})
	if err != nil {
		// A stopping pool looks the same to the caller as a saturated one:
		// try again later.
		if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrPoolStopped) {
			return service.ErrQueueFull
		}

		return err
	}

	return nil
}
