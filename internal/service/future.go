package service

import (
	"context"
	"sync"
)

// Future delivers the result of an asynchronous unit of work. The caller may
// wait for the business result while detached work (such as audit writes)
// proceeds on its own.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the unit of work completes or ctx is done. Cancelling
// ctx abandons the wait, not the work.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WorkerPool bounds how many submitted units of work may execute at once.
// It is independent of the connection pool: a unit of work additionally
// blocks inside the data layer when all connections are checked out.
type WorkerPool struct {
	slots chan struct{}
	wg    sync.WaitGroup
}

// NewWorkerPool creates a pool allowing size concurrent units of work.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 5
	}
	return &WorkerPool{slots: make(chan struct{}, size)}
}

// Wait blocks until all submitted work has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// submit schedules fn on the pool and returns a future for its result.
func submit[T any](p *WorkerPool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.slots <- struct{}{}
		defer func() { <-p.slots }()

		f.val, f.err = fn()
		close(f.done)
	}()

	return f
}
