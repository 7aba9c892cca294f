/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/storagemodels"
)

// Kind tags the variant of an Operation.
type Kind int

const (
	KindPure Kind = iota
	KindPut
	KindGet
	KindDelete
	KindUpdate
	KindScan
	KindQuery
	KindBatchGet
	KindBatchWrite
	KindConditional
	KindSequence
)

var kindNames = [...]string{
	KindPure:        "Pure",
	KindPut:         "PutItem",
	KindGet:         "GetItem",
	KindDelete:      "DeleteItem",
	KindUpdate:      "UpdateItem",
	KindScan:        "Scan",
	KindQuery:       "Query",
	KindBatchGet:    "BatchGetItem",
	KindBatchWrite:  "BatchWriteItem",
	KindConditional: "Conditional",
	KindSequence:    "Sequence",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// IsWrite reports whether operations of this kind accept a precondition.
func (k Kind) IsWrite() bool {
	return k == KindPut || k == KindDelete || k == KindUpdate
}

// Executor is the provider surface an interpreter hands to a running
// operation. Every error it returns is already part of the errors taxonomy
// or a context error.
type Executor interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error)

	// GetAll and WriteAll run the chunking and retry engine.
	GetAll(ctx context.Context, table storagemodels.TableRef, keys []storagemodels.Item, consistent bool) (*batch.GetResult, error)
	WriteAll(ctx context.Context, table storagemodels.TableRef, writes []types.WriteRequest) (*batch.WriteResult, error)
	// MaxAttempts is the retry budget used for each chunk.
	MaxAttempts() int
}

type evalFunc[T any] func(ctx context.Context, x Executor, pre *expr.Condition) (T, error)

// Operation describes an action against the store producing a T.
// The zero Operation is invalid and fails when run.
type Operation[T any] struct {
	kind  Kind
	table string
	eval  evalFunc[T]
}

func newOperation[T any](kind Kind, table string, eval evalFunc[T]) Operation[T] {
	return Operation[T]{kind: kind, table: table, eval: eval}
}

// failed returns an operation that reports err when run.
func failed[T any](kind Kind, table string, err error) Operation[T] {
	return newOperation(kind, table, func(context.Context, Executor, *expr.Condition) (T, error) {
		var zero T
		return zero, err
	})
}

// Kind returns the operation's variant.
func (o Operation[T]) Kind() Kind {
	return o.kind
}

// Table returns the name of the table the operation targets, if any.
func (o Operation[T]) Table() string {
	return o.table
}

// Run executes the operation against x. Interpreters call Run; callers
// normally go through an interpreter instead.
func (o Operation[T]) Run(ctx context.Context, x Executor) (T, error) {
	return o.run(ctx, x, nil)
}

func (o Operation[T]) run(ctx context.Context, x Executor, pre *expr.Condition) (T, error) {
	if o.eval == nil {
		var zero T
		return zero, errors.NewValidationError("operation", "operation is not initialized")
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return o.eval(ctx, x, pre)
}

// Pure is an operation that returns v without touching the store.
func Pure[T any](v T) Operation[T] {
	return newOperation(KindPure, "", func(context.Context, Executor, *expr.Condition) (T, error) {
		return v, nil
	})
}

// Then sequences two operations: next is built from op's result and runs
// after op has completed. An error from op stops the sequence.
func Then[A, B any](op Operation[A], next func(A) Operation[B]) Operation[B] {
	return newOperation(KindSequence, op.table, func(ctx context.Context, x Executor, _ *expr.Condition) (B, error) {
		a, err := op.run(ctx, x, nil)
		if err != nil {
			var zero B
			return zero, err
		}
		return next(a).run(ctx, x, nil)
	})
}

// Map transforms the result of op.
func Map[A, B any](op Operation[A], f func(A) B) Operation[B] {
	return newOperation(KindSequence, op.table, func(ctx context.Context, x Executor, _ *expr.Condition) (B, error) {
		a, err := op.run(ctx, x, nil)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a), nil
	})
}

// Conditional attaches a precondition to a Put, Update or Delete. A failed
// precondition is returned as a Result carrying *errors.ConditionNotMetError
// and leaves the stored item untouched; every other error still fails the
// step.
func Conditional[T any](op Operation[T], precondition expr.Condition) Operation[storagemodels.Result[T]] {
	if !op.kind.IsWrite() {
		return failed[storagemodels.Result[T]](KindConditional, op.table,
			errors.NewValidationError("operation", "only Put, Update and Delete accept a precondition, got "+op.kind.String()))
	}
	return newOperation(KindConditional, op.table, func(ctx context.Context, x Executor, _ *expr.Condition) (storagemodels.Result[T], error) {
		if err := precondition.Err(); err != nil {
			return storagemodels.Result[T]{}, err
		}
		v, err := op.run(ctx, x, &precondition)
		switch {
		case errors.IsConditionNotMet(err):
			return storagemodels.Fail[T](err), nil
		case err != nil:
			return storagemodels.Result[T]{}, err
		}
		return storagemodels.Ok(v), nil
	})
}
