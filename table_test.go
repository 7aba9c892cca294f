/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tableops_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/datastore/mock"
	"github.com/suparena/tableops/datastore/testmodels"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/registry"
	"github.com/suparena/tableops/storagemodels"
)

var (
	animalKeys = storagemodels.KeySchema{PartitionKey: "species", SortKey: "number"}
	nameKeys   = storagemodels.KeySchema{PartitionKey: "name", SortKey: "number"}
)

func newAnimals() *tableops.Table[testmodels.Animal] {
	return tableops.NewTable[testmodels.Animal]("animals", animalKeys).WithCodec(testmodels.AnimalCodec())
}

func newStore() *mock.Client {
	return mock.New().CreateTable("animals", animalKeys, mock.Index{Name: "by-name", Keys: nameKeys})
}

func newBlocking(store *mock.Client) *interpreter.Blocking {
	return interpreter.NewBlocking(store, interpreter.WithRetryPolicy(batch.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}))
}

func pigs(n int) []testmodels.Animal {
	out := make([]testmodels.Animal, n)
	for i := range out {
		out[i] = testmodels.Animal{Species: "Pig", Number: i + 1}
	}
	return out
}

func TestTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()

	prev, err := interpreter.Execute(ctx, b, animals.Put(testmodels.Animal{Species: "Pig", Number: 1, Name: "Babe"}))
	require.NoError(t, err)
	assert.Nil(t, prev)

	got, err := interpreter.Execute(ctx, b, animals.Get(storagemodels.CompositeKey("Pig", 1), ops.Consistent()))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Babe", got.Value.Name)

	_, err = interpreter.Execute(ctx, b, animals.Update(storagemodels.CompositeKey("Pig", 1), expr.Set("weight", 120.5)))
	require.NoError(t, err)

	old, err := interpreter.Execute(ctx, b, animals.Delete(storagemodels.CompositeKey("Pig", 1)))
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, 120.5, old.Value.Weight)
	assert.Empty(t, store.Snapshot("animals"))
}

func TestTableConditionalWrites(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()

	res, err := interpreter.Execute(ctx, b, animals.PutIf(testmodels.Animal{Species: "Pig", Number: 1}, expr.AttributeNotExists("species")))
	require.NoError(t, err)
	assert.True(t, res.IsOk())

	res, err = interpreter.Execute(ctx, b, animals.PutIf(testmodels.Animal{Species: "Pig", Number: 1, Name: "Babe"}, expr.AttributeNotExists("species")))
	require.NoError(t, err)
	assert.True(t, errors.IsConditionNotMet(res.Err))

	key := storagemodels.CompositeKey("Pig", 1)
	res, err = interpreter.Execute(ctx, b, animals.UpdateIf(key, expr.Set("name", "Babe"), expr.AttributeNotExists("name")))
	require.NoError(t, err)
	assert.True(t, res.IsOk())

	res, err = interpreter.Execute(ctx, b, animals.DeleteIf(key, expr.Equals("name", "Wilbur")))
	require.NoError(t, err)
	assert.True(t, errors.IsConditionNotMet(res.Err))
	assert.Len(t, store.Snapshot("animals"), 1)
}

func TestTableBatchAndReads(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()

	written, err := interpreter.Execute(ctx, b, animals.PutAll(pigs(30)))
	require.NoError(t, err)
	assert.Empty(t, storagemodels.Errors(written))
	assert.Len(t, written, 30)

	keys := []storagemodels.Key{storagemodels.CompositeKey("Pig", 3), storagemodels.CompositeKey("Pig", 7)}
	got, err := interpreter.Execute(ctx, b, animals.GetAll(keys))
	require.NoError(t, err)
	assert.ElementsMatch(t, []testmodels.Animal{{Species: "Pig", Number: 3}, {Species: "Pig", Number: 7}}, storagemodels.Values(got))

	scanned, err := interpreter.Execute(ctx, b, animals.Scan())
	require.NoError(t, err)
	assert.Len(t, scanned, 30)

	q, err := interpreter.Execute(ctx, b, animals.Query(expr.And(expr.Equals("species", "Pig"), expr.LessOrEqual("number", 5))))
	require.NoError(t, err)
	assert.Len(t, q, 5)

	pg, err := interpreter.Execute(ctx, b, animals.ScanPage(10, storagemodels.Cursor{}))
	require.NoError(t, err)
	assert.Len(t, pg.Items, 10)
	assert.False(t, pg.Next.IsZero())

	deleted, err := interpreter.Execute(ctx, b, animals.DeleteAll(keys))
	require.NoError(t, err)
	assert.Empty(t, storagemodels.Errors(deleted))

	mixed := []ops.WriteRequest[testmodels.Animal]{
		ops.PutRequest(testmodels.Animal{Species: "Pig", Number: 3}),
		ops.DeleteRequest[testmodels.Animal](storagemodels.CompositeKey("Pig", 4)),
	}
	res, err := interpreter.Execute(ctx, b, animals.Write(mixed))
	require.NoError(t, err)
	assert.Empty(t, storagemodels.Errors(res))
	assert.Len(t, store.Snapshot("animals"), 28)
}

func TestTableIndex(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	b := newBlocking(store)
	animals := newAnimals()

	list := []testmodels.Animal{
		{Species: "Pig", Number: 1, Name: "Babe"},
		{Species: "Pig", Number: 2},
		{Species: "Dog", Number: 5, Name: "Babe"},
	}
	_, err := interpreter.Execute(ctx, b, animals.PutAll(list))
	require.NoError(t, err)

	byName := animals.Index("by-name", nameKeys)
	assert.Equal(t, "by-name", byName.Ref().Index)
	assert.Equal(t, "animals", byName.Ref().Name)

	res, err := interpreter.Execute(ctx, b, byName.Query(expr.Equals("name", "Babe")))
	require.NoError(t, err)
	assert.Equal(t, []testmodels.Animal{list[0], list[2]}, storagemodels.Values(res))
}

type penguin struct {
	Colony string `dynamodbav:"colony"`
	Band   int    `dynamodbav:"band"`
}

func TestNewTableCodecLookup(t *testing.T) {
	keys := storagemodels.KeySchema{PartitionKey: "colony", SortKey: "band"}

	fallback := tableops.NewTable[penguin]("penguins", keys)
	assert.IsType(t, &codec.Reflect[penguin]{}, fallback.Codec())

	registered := codec.Funcs[penguin]{
		EncodeFunc: func(p penguin) (storagemodels.Item, error) {
			return storagemodels.Item{"colony": codec.S(p.Colony), "band": codec.N(int64(p.Band))}, nil
		},
		DecodeFunc: func(item storagemodels.Item) (penguin, error) {
			return penguin{}, nil
		},
	}
	registry.RegisterCodec[penguin](registered)
	t.Cleanup(registry.UnregisterCodec[penguin])

	tbl := tableops.NewTable[penguin]("penguins", keys)
	assert.IsType(t, codec.Funcs[penguin]{}, tbl.Codec())
	assert.Equal(t, storagemodels.NewTableRef("penguins", keys), tbl.Ref())
}
