/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"context"
	"sync"

	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/datastore"
	"github.com/suparena/tableops/ops"
)

// Async runs every submitted operation on its own goroutine.
type Async struct {
	x *executor
}

// NewAsync creates a future-based interpreter. Batch chunks fan out up to
// the configured limit.
func NewAsync(client datastore.Client, opts ...Option) *Async {
	s := newSettings(opts)
	return &Async{x: newExecutor(client, batch.Bounded{Limit: s.fanOut}, s)}
}

// Future is the pending result of a submitted operation.
type Future[T any] struct {
	done chan struct{}

	mu        sync.Mutex
	value     T
	err       error
	callbacks []func(T, error)
}

// Submit starts op and returns immediately. Cancelling ctx cancels the
// operation.
func Submit[T any](ctx context.Context, a *Async, op ops.Operation[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := execute(ctx, a.x, op)
		f.complete(v, err)
	}()
	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result. If ctx ends first, Await returns ctx.Err()
// while the operation keeps running under its own context.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers fn to receive the result. fn runs on the goroutine
// that completes the future, or immediately if it has already completed.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		v, err := f.value, f.err
		f.mu.Unlock()
		fn(v, err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}
