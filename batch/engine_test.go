/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops/datastore/mock"
	"github.com/suparena/tableops/storagemodels"
)

var animals = storagemodels.NewTableRef("animals", storagemodels.KeySchema{PartitionKey: "species", SortKey: "number"})

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func key(species string, number int) storagemodels.Item {
	return storagemodels.Item{
		"species": &types.AttributeValueMemberS{Value: species},
		"number":  &types.AttributeValueMemberN{Value: strconv.Itoa(number)},
	}
}

func seeded(t *testing.T, count int) *mock.Client {
	t.Helper()
	c := mock.New().CreateTable(animals.Name, animals.Keys)
	for i := 0; i < count; i++ {
		require.NoError(t, c.Seed(animals.Name, key("Pig", i)))
	}
	return c
}

func TestGetAllChunksAtCapacity(t *testing.T) {
	c := seeded(t, 101)
	keys := make([]storagemodels.Item, 101)
	for i := range keys {
		keys[i] = key("Pig", i)
	}

	res, err := NewEngine(c).GetAll(context.Background(), animals, keys, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 2, c.Calls("BatchGetItem"))
	assert.Len(t, res.Items, 101)
	assert.Empty(t, res.Unprocessed)
	assert.Equal(t, 1, res.Attempts)
}

func TestGetAllDeduplicatesKeys(t *testing.T) {
	c := seeded(t, 2)
	keys := []storagemodels.Item{key("Pig", 0), key("Pig", 1), key("Pig", 0), key("Pig", 7)}

	res, err := NewEngine(c).GetAll(context.Background(), animals, keys, true)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 1, c.Calls("BatchGetItem"))
}

func TestGetAllDeduplicatesEquivalentNumbers(t *testing.T) {
	c := seeded(t, 2)
	alias := storagemodels.Item{
		"species": &types.AttributeValueMemberS{Value: "Pig"},
		"number":  &types.AttributeValueMemberN{Value: "1.0"},
	}

	res, err := NewEngine(c).GetAll(context.Background(), animals, []storagemodels.Item{key("Pig", 1), alias}, false)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Empty(t, res.Unprocessed)
}

func TestGetAllRetriesUnprocessedKeys(t *testing.T) {
	c := seeded(t, 10)
	c.WithThrottle(func(_ string, call, requested int) int {
		if call <= 2 {
			return requested / 2
		}
		return 0
	})
	keys := make([]storagemodels.Item, 10)
	for i := range keys {
		keys[i] = key("Pig", i)
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(5))).GetAll(context.Background(), animals, keys, false)
	require.NoError(t, err)
	assert.Len(t, res.Items, 10)
	assert.Empty(t, res.Unprocessed)
	assert.Equal(t, 3, res.Attempts)
}

func TestGetAllExhaustsRetryBudget(t *testing.T) {
	c := seeded(t, 4)
	c.WithThrottle(func(string, int, int) int { return 1 })
	keys := []storagemodels.Item{key("Pig", 0), key("Pig", 1), key("Pig", 2), key("Pig", 3)}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(3))).GetAll(context.Background(), animals, keys, false)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, []storagemodels.Item{key("Pig", 3)}, res.Unprocessed)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, c.Calls("BatchGetItem"))
}

func TestGetAllProviderFault(t *testing.T) {
	c := seeded(t, 1)
	boom := &smithy.GenericAPIError{Code: "InternalServerError", Message: "boom"}
	c.FailNext("BatchGetItem", boom)

	_, err := NewEngine(c).GetAll(context.Background(), animals, []storagemodels.Item{key("Pig", 0)}, false)
	assert.ErrorIs(t, err, boom)
}

func TestGetAllRetriesThrottledChunk(t *testing.T) {
	c := seeded(t, 101)
	c.FailNext("BatchGetItem", nil).
		FailNext("BatchGetItem", &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")})
	keys := make([]storagemodels.Item, 101)
	for i := range keys {
		keys[i] = key("Pig", i)
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(5))).GetAll(context.Background(), animals, keys, false)
	require.NoError(t, err)
	assert.Len(t, res.Items, 101)
	assert.Empty(t, res.Unprocessed)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 3, c.Calls("BatchGetItem"))
}

func TestGetAllThrottledChunkExhaustsBudget(t *testing.T) {
	c := seeded(t, 101)
	c.FailNext("BatchGetItem", nil)
	for range 3 {
		c.FailNext("BatchGetItem", &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"})
	}
	keys := make([]storagemodels.Item, 101)
	for i := range keys {
		keys[i] = key("Pig", i)
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(3))).GetAll(context.Background(), animals, keys, false)
	require.NoError(t, err)
	assert.Len(t, res.Items, 100)
	assert.Equal(t, []storagemodels.Item{key("Pig", 100)}, res.Unprocessed)
	assert.Equal(t, 3, res.Attempts)
}

func TestWriteAllThrottledChunk(t *testing.T) {
	c := seeded(t, 0)
	c.FailNext("BatchWriteItem", nil).
		FailNext("BatchWriteItem", &smithy.GenericAPIError{Code: "RequestLimitExceeded", Message: "limit"})
	writes := make([]types.WriteRequest, 30)
	for i := range writes {
		writes[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: key("Pig", i)}}
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(1))).WriteAll(context.Background(), animals, writes)
	require.NoError(t, err)
	assert.Equal(t, []int{25, 26, 27, 28, 29}, res.Unprocessed)
	assert.Len(t, c.Snapshot(animals.Name), 25)
}

func TestGetAllCanceledWhileWaiting(t *testing.T) {
	c := seeded(t, 2)
	c.WithThrottle(func(string, int, int) int { return 1 })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Hour, MaxInterval: time.Hour}
	_, err := NewEngine(c, WithRetryPolicy(policy)).GetAll(ctx, animals, []storagemodels.Item{key("Pig", 0)}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteAllChunksAndReportsIndexes(t *testing.T) {
	c := seeded(t, 0)
	c.WithThrottle(func(_ string, call, requested int) int {
		if call == 2 {
			return 2
		}
		return 0
	})
	writes := make([]types.WriteRequest, 30)
	for i := range writes {
		writes[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: key("Pig", i)}}
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(1))).WriteAll(context.Background(), animals, writes)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, []int{28, 29}, res.Unprocessed)
	assert.Len(t, c.Snapshot(animals.Name), 28)
}

func TestWriteAllRetries(t *testing.T) {
	c := seeded(t, 3)
	c.WithThrottle(func(_ string, call, _ int) int {
		if call == 1 {
			return 1
		}
		return 0
	})
	writes := []types.WriteRequest{
		{DeleteRequest: &types.DeleteRequest{Key: key("Pig", 0)}},
		{DeleteRequest: &types.DeleteRequest{Key: key("Pig", 1)}},
		{PutRequest: &types.PutRequest{Item: key("Cow", 1)}},
	}

	res, err := NewEngine(c, WithRetryPolicy(fastPolicy(4))).WriteAll(context.Background(), animals, writes)
	require.NoError(t, err)
	assert.Empty(t, res.Unprocessed)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []storagemodels.Item{key("Cow", 1), key("Pig", 2)}, c.Snapshot(animals.Name))
}

func TestBoundedDispatcherLimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	err := Bounded{Limit: 3}.Dispatch(context.Background(), 20, func(ctx context.Context, i int) error {
		now := running.Add(1)
		for {
			p := peak.Load()
			if now <= p || peak.CompareAndSwap(p, now) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestBoundedDispatcherStopsOnError(t *testing.T) {
	boom := &smithy.GenericAPIError{Code: "InternalServerError"}
	var calls atomic.Int32
	err := Bounded{Limit: 1}.Dispatch(context.Background(), 10, func(ctx context.Context, i int) error {
		calls.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int32(10))
}

func TestChunk(t *testing.T) {
	assert.Empty(t, Chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}, {4}}, Chunk([]int{1, 2, 3, 4}, 3))
	assert.Equal(t, [][]int{{1, 2}}, Chunk([]int{1, 2}, 100))
}

func TestRetryPolicyNormalized(t *testing.T) {
	p := RetryPolicy{MaxAttempts: -1, InitialInterval: time.Second, MaxInterval: time.Millisecond}.normalized()
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, p.MaxAttempts)
	assert.Equal(t, time.Second, p.MaxInterval)
	assert.Equal(t, 2.0, p.Multiplier)
}
