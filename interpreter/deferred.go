/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"context"

	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/datastore"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/ops"
)

// Deferred turns operations into effects that run only when asked to.
type Deferred struct {
	x *executor
}

// NewDeferred creates a deferred-effect interpreter. Batch chunks fan out up
// to the configured limit.
func NewDeferred(client datastore.Client, opts ...Option) *Deferred {
	s := newSettings(opts)
	return &Deferred{x: newExecutor(client, batch.Bounded{Limit: s.fanOut}, s)}
}

// Effect is a suspended computation. Each Run executes it again from the start.
type Effect[T any] struct {
	run func(ctx context.Context) (T, error)
}

// Suspend wraps op in an Effect without executing it.
func Suspend[T any](d *Deferred, op ops.Operation[T]) Effect[T] {
	return Effect[T]{run: func(ctx context.Context) (T, error) {
		return execute(ctx, d.x, op)
	}}
}

// Succeed is an effect that yields v.
func Succeed[T any](v T) Effect[T] {
	return Effect[T]{run: func(context.Context) (T, error) {
		return v, nil
	}}
}

// Run executes the effect.
func (e Effect[T]) Run(ctx context.Context) (T, error) {
	if e.run == nil {
		var zero T
		return zero, errors.NewValidationError("effect", "effect is not initialized")
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return e.run(ctx)
}

// Bind sequences two effects: f receives the result of e and the effect it
// returns runs next. An error from e skips f.
func Bind[A, B any](e Effect[A], f func(A) Effect[B]) Effect[B] {
	return Effect[B]{run: func(ctx context.Context) (B, error) {
		a, err := e.Run(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a).Run(ctx)
	}}
}

// MapEffect transforms the result of e.
func MapEffect[A, B any](e Effect[A], f func(A) B) Effect[B] {
	return Effect[B]{run: func(ctx context.Context) (B, error) {
		a, err := e.Run(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a), nil
	}}
}
