/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tableops_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/datastore/testmodels"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/storagemodels"
)

func collect[T any](ch <-chan tableops.StreamResult[T]) []tableops.StreamResult[T] {
	var out []tableops.StreamResult[T]
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestStreamScan(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	_, err := interpreter.Execute(ctx, b, animals.PutAll(pigs(23)))
	require.NoError(t, err)

	var progress []tableops.StreamProgress
	results := collect(animals.Stream(ctx, b, nil,
		tableops.WithPageSize(5),
		tableops.WithBufferSize(2),
		tableops.WithProgressHandler(func(p tableops.StreamProgress) {
			progress = append(progress, p)
		}),
	))

	require.Len(t, results, 23)
	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, i+1, r.Item.Number)
		assert.Equal(t, int64(i), r.Meta.Index)
		assert.Equal(t, i/5+1, r.Meta.PageNumber)
	}

	require.Len(t, progress, 5)
	last := progress[len(progress)-1]
	assert.Equal(t, int64(23), last.ItemsProcessed)
	assert.Equal(t, 5, last.PagesProcessed)
	assert.True(t, last.Next.IsZero())
	assert.False(t, progress[0].Next.IsZero())
}

func TestStreamQueryWithFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	list := append(pigs(10), testmodels.Animal{Species: "Cow", Number: 1})
	list[3].Name = "Babe"
	list[8].Name = "Babe"
	_, err := interpreter.Execute(ctx, b, animals.PutAll(list))
	require.NoError(t, err)

	cond := expr.Equals("species", "Pig")
	results := collect(animals.Stream(ctx, b, &cond,
		tableops.WithPageSize(3),
		tableops.WithReadOptions(ops.Filter(expr.Equals("name", "Babe"))),
	))

	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].Item.Number)
	assert.Equal(t, 9, results[1].Item.Number)
}

func TestStreamResume(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	_, err := interpreter.Execute(ctx, b, animals.PutAll(pigs(12)))
	require.NoError(t, err)

	first, err := interpreter.Execute(ctx, b, animals.ScanPage(4, storagemodels.Cursor{}))
	require.NoError(t, err)

	results := collect(animals.Stream(ctx, b, nil, tableops.WithStart(first.Next), tableops.WithPageSize(4)))
	require.Len(t, results, 8)
	assert.Equal(t, 5, results[0].Item.Number)
}

func TestStreamDeliversDecodeErrors(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	_, err := interpreter.Execute(ctx, b, animals.PutAll(pigs(3)))
	require.NoError(t, err)
	require.NoError(t, store.Seed("animals", storagemodels.Item{
		"species": codec.S("Pig"),
		"number":  codec.S("four"),
	}))

	var decodeErrors int
	results := collect(animals.Stream(ctx, b, nil, tableops.WithProgressHandler(func(p tableops.StreamProgress) {
		decodeErrors = p.DecodeErrors
	})))

	require.Len(t, results, 4)
	assert.Len(t, storagemodels.Errors(toResults(results)), 1)
	assert.Equal(t, 1, decodeErrors)
}

func toResults[T any](in []tableops.StreamResult[T]) []storagemodels.Result[T] {
	out := make([]storagemodels.Result[T], len(in))
	for i, r := range in {
		out[i] = storagemodels.Result[T]{Value: r.Item, Err: r.Error}
	}
	return out
}

func TestStreamEndsOnFault(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	_, err := interpreter.Execute(ctx, b, animals.PutAll(pigs(6)))
	require.NoError(t, err)

	first := animals.Stream(ctx, b, nil, tableops.WithPageSize(4), tableops.WithBufferSize(0))
	r := <-first
	require.NoError(t, r.Error)
	store.FailNext("Scan", &types.InternalServerError{})

	rest := collect(first)
	require.NotEmpty(t, rest)
	final := rest[len(rest)-1]
	assert.True(t, errors.IsProviderFault(final.Error))
	assert.Equal(t, 2, final.Meta.PageNumber)
	assert.Len(t, rest, 4)
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()
	_, err := interpreter.Execute(context.Background(), b, animals.PutAll(pigs(50)))
	require.NoError(t, err)

	ch := animals.Stream(ctx, b, nil, tableops.WithPageSize(5), tableops.WithBufferSize(0))
	<-ch
	cancel()

	var n int
	for range ch {
		n++
	}
	assert.LessOrEqual(t, n, 4)
}
