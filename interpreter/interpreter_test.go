/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/datastore/mock"
	"github.com/suparena/tableops/datastore/testmodels"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/storagemodels"
)

var (
	animalKeys  = storagemodels.KeySchema{PartitionKey: "species", SortKey: "number"}
	animals     = storagemodels.NewTableRef("animals", animalKeys)
	animalCodec = testmodels.AnimalCodec()
)

func fastPolicy() Option {
	return WithRetryPolicy(batch.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	})
}

// newZoo returns a store holding 250 pigs and one item that cannot be decoded.
func newZoo(t *testing.T) *mock.Client {
	t.Helper()
	store := mock.New().CreateTable(animals.Name, animalKeys)
	for i := 1; i <= 250; i++ {
		require.NoError(t, store.Seed(animals.Name, storagemodels.Item{
			"species": &types.AttributeValueMemberS{Value: "Pig"},
			"number":  &types.AttributeValueMemberN{Value: strconv.Itoa(i)},
		}))
	}
	require.NoError(t, store.Seed(animals.Name, storagemodels.Item{
		"species": &types.AttributeValueMemberS{Value: "Cow"},
		"number":  &types.AttributeValueMemberN{Value: "1"},
		"weight":  &types.AttributeValueMemberS{Value: "heavy"},
	}))
	return store
}

type outcome struct {
	values []testmodels.Animal
	errs   int
	kinds  []string
}

func summarize(t *testing.T, results []storagemodels.Result[testmodels.Animal], err error) outcome {
	t.Helper()
	require.NoError(t, err)
	o := outcome{values: storagemodels.Values(results)}
	for _, e := range storagemodels.Errors(results) {
		o.errs++
		switch {
		case errors.IsDecodeError(e):
			o.kinds = append(o.kinds, "decode")
		case errors.IsThroughputExhausted(e):
			o.kinds = append(o.kinds, "throughput")
		default:
			o.kinds = append(o.kinds, e.Error())
		}
	}
	return o
}

func allKeys() []storagemodels.Key {
	keys := []storagemodels.Key{storagemodels.CompositeKey("Cow", 1)}
	for i := 1; i <= 250; i++ {
		keys = append(keys, storagemodels.CompositeKey("Pig", i))
	}
	return keys
}

func TestInterpretersAgree(t *testing.T) {
	ctx := context.Background()
	operations := map[string]ops.Operation[[]storagemodels.Result[testmodels.Animal]]{
		"scan":      ops.Scan(animals, animalCodec, ops.PageSize(40)),
		"query":     ops.Query(animals, animalCodec, expr.And(expr.Equals("species", "Pig"), expr.Between("number", 10, 140))),
		"batch get": ops.BatchGet(animals, animalCodec, allKeys()),
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			res, err := Execute(ctx, NewBlocking(newZoo(t)), op)
			blocking := summarize(t, res, err)

			res, err = Submit(ctx, NewAsync(newZoo(t), WithFanOut(3)), op).Await(ctx)
			async := summarize(t, res, err)

			res, err = Suspend(NewDeferred(newZoo(t)), op).Run(ctx)
			deferred := summarize(t, res, err)

			assert.NotEmpty(t, blocking.values)
			if name == "batch get" {
				// set semantics: compare without order
				assert.ElementsMatch(t, blocking.values, async.values)
				assert.ElementsMatch(t, blocking.values, deferred.values)
				assert.Equal(t, blocking.kinds, async.kinds)
				assert.Equal(t, blocking.kinds, deferred.kinds)
				return
			}
			assert.Equal(t, blocking, async)
			assert.Equal(t, blocking, deferred)
		})
	}
}

func TestInterpretersAgreeOnThroughputExhaustion(t *testing.T) {
	ctx := context.Background()
	op := ops.BatchGet(animals, animalCodec, allKeys()[1:])
	throttled := func() *mock.Client {
		return newZoo(t).WithThrottle(func(string, int, int) int { return 2 })
	}

	res, err := Execute(ctx, NewBlocking(throttled(), fastPolicy()), op)
	blocking := summarize(t, res, err)
	res, err = Submit(ctx, NewAsync(throttled(), fastPolicy()), op).Await(ctx)
	async := summarize(t, res, err)
	res, err = Suspend(NewDeferred(throttled(), fastPolicy()), op).Run(ctx)
	deferred := summarize(t, res, err)

	// three chunks, two keys left in each
	assert.Equal(t, 6, blocking.errs)
	assert.Len(t, blocking.values, 244)
	for _, o := range []outcome{async, deferred} {
		assert.Equal(t, blocking.errs, o.errs)
		assert.Equal(t, blocking.kinds, o.kinds)
		assert.ElementsMatch(t, blocking.values, o.values)
	}
}

func TestInterpretersAgreeOnFaults(t *testing.T) {
	ctx := context.Background()
	op := ops.Conditional(
		ops.Put(animals, animalCodec, testmodels.Animal{Species: "Pig", Number: 1}),
		expr.AttributeNotExists("species"),
	)
	faulty := func() *mock.Client {
		return newZoo(t).FailNext("Scan", &types.InternalServerError{})
	}
	scan := ops.Scan(animals, animalCodec)

	b := NewBlocking(newZoo(t))
	a := NewAsync(newZoo(t))
	d := NewDeferred(newZoo(t))

	r1, err := Execute(ctx, b, op)
	require.NoError(t, err)
	r2, err := Submit(ctx, a, op).Await(ctx)
	require.NoError(t, err)
	r3, err := Suspend(d, op).Run(ctx)
	require.NoError(t, err)
	for _, r := range []storagemodels.Result[*storagemodels.Result[testmodels.Animal]]{r1, r2, r3} {
		assert.True(t, errors.IsConditionNotMet(r.Err))
	}

	_, e1 := Execute(ctx, NewBlocking(faulty()), scan)
	_, e2 := Submit(ctx, NewAsync(faulty()), scan).Await(ctx)
	_, e3 := Suspend(NewDeferred(faulty()), scan).Run(ctx)
	for _, e := range []error{e1, e2, e3} {
		assert.True(t, errors.IsProviderFault(e))
		assert.Equal(t, e1.Error(), e.Error())
	}
}

func TestFuture(t *testing.T) {
	ctx := context.Background()
	store := newZoo(t)
	f := Submit(ctx, NewAsync(store), ops.Get(animals, animalCodec, storagemodels.CompositeKey("Pig", 7)))

	var wg sync.WaitGroup
	wg.Add(1)
	var fromCallback *storagemodels.Result[testmodels.Animal]
	f.OnComplete(func(r *storagemodels.Result[testmodels.Animal], err error) {
		defer wg.Done()
		assert.NoError(t, err)
		fromCallback = r
	})

	select {
	case <-f.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("future did not complete")
	}
	wg.Wait()

	got, err := f.Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Value.Number)
	assert.Equal(t, got, fromCallback)

	late := make(chan struct{})
	f.OnComplete(func(*storagemodels.Result[testmodels.Animal], error) { close(late) })
	<-late
}

func TestFutureAwaitHonorsContext(t *testing.T) {
	f := &Future[int]{done: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEffectIsLazy(t *testing.T) {
	ctx := context.Background()
	store := newZoo(t)
	d := NewDeferred(store)

	put := Suspend(d, ops.Put(animals, animalCodec, testmodels.Animal{Species: "Hen", Number: 1}))
	count := Bind(put, func(*storagemodels.Result[testmodels.Animal]) Effect[[]storagemodels.Result[testmodels.Animal]] {
		return Suspend(d, ops.Query(animals, animalCodec, expr.Equals("species", "Hen")))
	})
	n := MapEffect(count, func(r []storagemodels.Result[testmodels.Animal]) int { return len(r) })
	assert.Zero(t, store.Calls("PutItem"))

	got, err := n.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = n.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, 2, store.Calls("PutItem"), "each Run executes again")

	v, err := Succeed("done").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	_, err = Effect[int]{}.Run(ctx)
	assert.True(t, errors.IsValidationError(err))
}

func TestBindStopsOnError(t *testing.T) {
	ctx := context.Background()
	store := newZoo(t).FailNext("Scan", &types.InternalServerError{})
	d := NewDeferred(store)

	called := false
	e := Bind(Suspend(d, ops.Scan(animals, animalCodec)), func([]storagemodels.Result[testmodels.Animal]) Effect[int] {
		called = true
		return Succeed(1)
	})
	_, err := e.Run(ctx)
	assert.True(t, errors.IsProviderFault(err))
	assert.False(t, called)
}

func TestRunLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	store := newZoo(t).FailNext("GetItem", &types.InternalServerError{})

	_, err := Execute(context.Background(), NewBlocking(store, WithLogger(logger)), ops.Get(animals, animalCodec, storagemodels.CompositeKey("Pig", 1)))
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"run_id"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"kind":"GetItem"`)
}
