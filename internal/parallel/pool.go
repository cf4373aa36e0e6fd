// Package parallel runs independent solver jobs on a bounded number of
// goroutines.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolShutdown is returned when submitting to a pool that has been waited on.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool runs submitted tasks with at most maxWorkers in flight. The
// first task error cancels the pool context; later tasks see a cancelled
// context and Wait returns that first error.
type WorkerPool struct {
	maxWorkers int
	group      *errgroup.Group
	ctx        context.Context

	mu     sync.Mutex
	closed bool
}

// NewWorkerPool creates a pool bound to ctx. A non-positive maxWorkers
// defaults to the number of CPUs.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	return &WorkerPool{maxWorkers: maxWorkers, group: g, ctx: gctx}
}

// MaxWorkers returns the concurrency limit.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Submit schedules task, blocking while maxWorkers tasks are running.
func (wp *WorkerPool) Submit(task func(ctx context.Context) error) error {
	wp.mu.Lock()
	closed := wp.closed
	wp.mu.Unlock()
	if closed {
		return ErrPoolShutdown
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	wp.group.Go(func() error { return task(wp.ctx) })
	return nil
}

// Wait blocks until every submitted task has returned and closes the pool.
func (wp *WorkerPool) Wait() error {
	wp.mu.Lock()
	wp.closed = true
	wp.mu.Unlock()
	return wp.group.Wait()
}

// Map applies fn to every item with at most workers calls in flight and
// returns the results in input order. Errors returned by fn stop the
// remaining items from starting; the first one is returned.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	pool := NewWorkerPool(ctx, workers)
	for i, item := range items {
		err := pool.Submit(func(ctx context.Context) error {
			r, err := fn(ctx, i, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
		if err != nil {
			break
		}
	}
	if err := pool.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
