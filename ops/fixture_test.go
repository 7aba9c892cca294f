/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/datastore/mock"
	"github.com/suparena/tableops/datastore/testmodels"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/storagemodels"
)

var (
	animalKeys = storagemodels.KeySchema{PartitionKey: "species", SortKey: "number"}
	nameKeys   = storagemodels.KeySchema{PartitionKey: "name", SortKey: "number"}
	animals    = storagemodels.NewTableRef("animals", animalKeys)
	byName     = animals.WithIndex("by-name", nameKeys)

	sightingKeys = storagemodels.KeySchema{PartitionKey: "location", SortKey: "seen_at"}
	sightings    = storagemodels.NewTableRef("sightings", sightingKeys)

	animalCodec   = testmodels.AnimalCodec()
	sightingCodec = testmodels.SightingCodec()
)

func fastRetries(attempts int) interpreter.Option {
	return interpreter.WithRetryPolicy(batch.RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	})
}

func newStore(t *testing.T) *mock.Client {
	t.Helper()
	return mock.New().
		CreateTable(animals.Name, animalKeys, mock.Index{Name: byName.Index, Keys: nameKeys}).
		CreateTable(sightings.Name, sightingKeys)
}

// run executes op with the blocking interpreter and fails the test on error.
func run[T any](t *testing.T, store *mock.Client, op ops.Operation[T], opts ...interpreter.Option) T {
	t.Helper()
	v, err := interpreter.Execute(context.Background(), interpreter.NewBlocking(store, opts...), op)
	require.NoError(t, err)
	return v
}

func exec[T any](store *mock.Client, op ops.Operation[T], opts ...interpreter.Option) (T, error) {
	return interpreter.Execute(context.Background(), interpreter.NewBlocking(store, opts...), op)
}

func seedAnimals(t *testing.T, store *mock.Client, list ...testmodels.Animal) {
	t.Helper()
	run(t, store, ops.BatchPut(animals, animalCodec, list))
}

func pigs(numbers ...int) []testmodels.Animal {
	out := make([]testmodels.Animal, len(numbers))
	for i, n := range numbers {
		out[i] = testmodels.Animal{Species: "Pig", Number: n}
	}
	return out
}

func values[T any](t *testing.T, results []storagemodels.Result[T]) []T {
	t.Helper()
	require.Empty(t, storagemodels.Errors(results))
	return storagemodels.Values(results)
}

var _ codec.Codec[testmodels.Animal] = animalCodec
