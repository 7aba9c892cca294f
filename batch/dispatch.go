/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Dispatcher runs fn for every index in [0, n) and returns once all calls
// have finished or one has failed.
type Dispatcher interface {
	Dispatch(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Sequential runs the calls one after another in index order.
type Sequential struct{}

// Dispatch implements Dispatcher.
func (Sequential) Dispatch(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Bounded runs at most Limit calls concurrently. The first error cancels the
// context passed to the remaining calls.
type Bounded struct {
	Limit int
}

// Dispatch implements Dispatcher.
func (b Bounded) Dispatch(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.Limit))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
