/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/suparena/tableops/storagemodels"
)

// Client is the part of the provider API the engine calls.
type Client interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Engine makes multi-item requests of any size look like a single call:
// it chunks them to the provider caps, retries unprocessed remainders with
// exponential backoff and merges the chunk results.
type Engine struct {
	client     Client
	policy     RetryPolicy
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithRetryPolicy sets the retry policy for unprocessed remainders.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) {
		e.policy = p.normalized()
	}
}

// WithDispatcher sets how chunks are scheduled.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine. By default chunks are dispatched sequentially.
func NewEngine(client Client, opts ...Option) *Engine {
	e := &Engine{
		client:     client,
		policy:     DefaultRetryPolicy(),
		dispatcher: Sequential{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's retry policy.
func (e *Engine) Policy() RetryPolicy {
	return e.policy
}

// GetResult is the merged outcome of GetAll.
type GetResult struct {
	// Items holds every returned item, chunk by chunk.
	Items []storagemodels.Item
	// Unprocessed holds the keys still unprocessed after the retry budget.
	Unprocessed []storagemodels.Item
	// Chunks is the number of chunks dispatched.
	Chunks int
	// Attempts is the highest number of provider calls made for one chunk.
	Attempts int
}

type getChunk struct {
	items       []storagemodels.Item
	unprocessed []storagemodels.Item
	attempts    int
}

// GetAll fetches keys from table, deduplicating them by identity first.
// Keys that do not exist are simply absent from the result.
func (e *Engine) GetAll(ctx context.Context, table storagemodels.TableRef, keys []storagemodels.Item, consistent bool) (*GetResult, error) {
	unique := make([]storagemodels.Item, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		id := table.Keys.Identity(k)
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, k)
	}

	chunks := Chunk(unique, GetCapacity)
	slots := make([]getChunk, len(chunks))
	err := e.dispatcher.Dispatch(ctx, len(chunks), func(ctx context.Context, i int) error {
		res, err := e.getChunk(ctx, table.Name, i, chunks[i], consistent)
		slots[i] = res
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &GetResult{Chunks: len(chunks)}
	for _, s := range slots {
		out.Items = append(out.Items, s.items...)
		out.Unprocessed = append(out.Unprocessed, s.unprocessed...)
		out.Attempts = max(out.Attempts, s.attempts)
	}
	return out, nil
}

func (e *Engine) getChunk(ctx context.Context, table string, index int, keys []storagemodels.Item, consistent bool) (getChunk, error) {
	var res getChunk
	pending := keys
	b := e.policy.newBackOff()

	for {
		out, err := e.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				table: {Keys: pending, ConsistentRead: aws.Bool(consistent)},
			},
		})
		res.attempts++
		switch {
		case err == nil:
			res.items = append(res.items, out.Responses[table]...)
			pending = out.UnprocessedKeys[table].Keys
		case !throttled(err):
			return res, err
		}

		if len(pending) == 0 {
			return res, nil
		}
		if res.attempts >= e.policy.MaxAttempts {
			e.logger.Warn().
				Str("table", table).
				Int("chunk", index).
				Int("attempts", res.attempts).
				Int("unprocessed", len(pending)).
				Msg("batch get retry budget exhausted")
			res.unprocessed = pending
			return res, nil
		}
		if err := e.wait(ctx, b, "BatchGetItem", table, index, res.attempts, len(pending)); err != nil {
			res.unprocessed = pending
			return res, err
		}
	}
}

// WriteResult is the merged outcome of WriteAll.
type WriteResult struct {
	// Unprocessed holds the indexes, into the caller's requests, still
	// unprocessed after the retry budget, in ascending order.
	Unprocessed []int
	// Chunks is the number of chunks dispatched.
	Chunks int
	// Attempts is the highest number of provider calls made for one chunk.
	Attempts int
}

type writeChunk struct {
	unprocessed []int
	attempts    int
}

// WriteAll applies writes to table. Each request must address a distinct key.
func (e *Engine) WriteAll(ctx context.Context, table storagemodels.TableRef, writes []types.WriteRequest) (*WriteResult, error) {
	indexes := make([]int, len(writes))
	for i := range writes {
		indexes[i] = i
	}
	chunks := Chunk(indexes, WriteCapacity)
	slots := make([]writeChunk, len(chunks))
	err := e.dispatcher.Dispatch(ctx, len(chunks), func(ctx context.Context, i int) error {
		res, err := e.writeChunk(ctx, table, i, writes, chunks[i])
		slots[i] = res
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &WriteResult{Chunks: len(chunks)}
	for _, s := range slots {
		out.Unprocessed = append(out.Unprocessed, s.unprocessed...)
		out.Attempts = max(out.Attempts, s.attempts)
	}
	return out, nil
}

func (e *Engine) writeChunk(ctx context.Context, table storagemodels.TableRef, index int, writes []types.WriteRequest, members []int) (writeChunk, error) {
	var res writeChunk
	byIdentity := make(map[string]int, len(members))
	pending := make([]types.WriteRequest, 0, len(members))
	for _, m := range members {
		byIdentity[writeIdentity(table.Keys, writes[m])] = m
		pending = append(pending, writes[m])
	}
	b := e.policy.newBackOff()

	for {
		out, err := e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table.Name: pending},
		})
		res.attempts++
		switch {
		case err == nil:
			pending = out.UnprocessedItems[table.Name]
		case !throttled(err):
			return res, err
		}

		if len(pending) == 0 {
			return res, nil
		}
		if res.attempts >= e.policy.MaxAttempts {
			e.logger.Warn().
				Str("table", table.Name).
				Int("chunk", index).
				Int("attempts", res.attempts).
				Int("unprocessed", len(pending)).
				Msg("batch write retry budget exhausted")
			res.unprocessed = lookupIndexes(table.Keys, byIdentity, pending)
			return res, nil
		}
		if err := e.wait(ctx, b, "BatchWriteItem", table.Name, index, res.attempts, len(pending)); err != nil {
			res.unprocessed = lookupIndexes(table.Keys, byIdentity, pending)
			return res, err
		}
	}
}

var throttleCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"ThrottlingException":                    true,
}

// throttled reports whether the provider rejected a whole chunk for lack of
// throughput. The chunk then counts as entirely unprocessed.
func throttled(err error) bool {
	var apiErr smithy.APIError
	return stderrors.As(err, &apiErr) && throttleCodes[apiErr.ErrorCode()]
}

func (e *Engine) wait(ctx context.Context, b *backoff.ExponentialBackOff, op, table string, chunk, attempt, remaining int) error {
	delay := b.NextBackOff()
	if delay == backoff.Stop {
		delay = e.policy.MaxInterval
	}
	e.logger.Debug().
		Str("operation", op).
		Str("table", table).
		Int("chunk", chunk).
		Int("attempt", attempt).
		Int("unprocessed", remaining).
		Dur("delay", delay).
		Msg("retrying unprocessed remainder")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func writeIdentity(keys storagemodels.KeySchema, w types.WriteRequest) string {
	switch {
	case w.PutRequest != nil:
		return keys.Identity(w.PutRequest.Item)
	case w.DeleteRequest != nil:
		return keys.Identity(w.DeleteRequest.Key)
	default:
		return ""
	}
}

func lookupIndexes(keys storagemodels.KeySchema, byIdentity map[string]int, pending []types.WriteRequest) []int {
	out := make([]int, 0, len(pending))
	for _, w := range pending {
		if i, ok := byIdentity[writeIdentity(keys, w)]; ok {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}
