/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"context"

	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/datastore"
	"github.com/suparena/tableops/ops"
)

// Blocking runs operations on the calling goroutine.
type Blocking struct {
	x *executor
}

// NewBlocking creates a blocking interpreter. Batch chunks are issued
// sequentially.
func NewBlocking(client datastore.Client, opts ...Option) *Blocking {
	return &Blocking{x: newExecutor(client, batch.Sequential{}, newSettings(opts))}
}

// Execute runs op and returns its result once every provider call has finished.
func Execute[T any](ctx context.Context, b *Blocking, op ops.Operation[T]) (T, error) {
	return execute(ctx, b.x, op)
}
