/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/storagemodels"
)

// BatchGet reads the items stored under keys. The keys are treated as a set:
// duplicates are read once, missing items produce no result, and the order
// of the results is unspecified. Keys the provider still left unprocessed
// after the retry budget produce a ThroughputExhausted result each.
func BatchGet[T any](table storagemodels.TableRef, c codec.Codec[T], keys []storagemodels.Key, opts ...ReadOption) Operation[[]storagemodels.Result[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindBatchGet, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) ([]storagemodels.Result[T], error) {
		items := make([]storagemodels.Item, 0, len(keys))
		for _, k := range keys {
			item, err := keyItem(table, k)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			return nil, nil
		}

		res, err := x.GetAll(ctx, table, items, o.consistent)
		if err != nil {
			return nil, err
		}
		results := decodeAll(c, res.Items)
		for _, k := range res.Unprocessed {
			results = append(results, storagemodels.Fail[T](
				errors.NewThroughputExhaustedError(KindBatchGet.String(), table.Name, table.Keys.Identity(k), x.MaxAttempts())))
		}
		return results, nil
	})
}

// WriteRequest is one member of a BatchWrite: a put of Value or a delete of Key.
type WriteRequest[T any] struct {
	Value  T
	Key    storagemodels.Key
	delete bool
}

// PutRequest creates a WriteRequest that stores v.
func PutRequest[T any](v T) WriteRequest[T] {
	return WriteRequest[T]{Value: v}
}

// DeleteRequest creates a WriteRequest that removes the item stored under k.
func DeleteRequest[T any](k storagemodels.Key) WriteRequest[T] {
	return WriteRequest[T]{Key: k, delete: true}
}

// IsDelete reports whether the request is a delete.
func (w WriteRequest[T]) IsDelete() bool {
	return w.delete
}

func (w WriteRequest[T]) build(table storagemodels.TableRef, c codec.Codec[T]) (types.WriteRequest, storagemodels.Item, error) {
	if w.delete {
		k, err := table.Keys.KeyItem(w.Key)
		if err != nil {
			return types.WriteRequest{}, nil, err
		}
		return types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}}, k, nil
	}
	item, err := encode(c, w.Value)
	if err != nil {
		return types.WriteRequest{}, nil, err
	}
	k, ok := table.Keys.Project(item)
	if !ok {
		return types.WriteRequest{}, nil, errors.NewValidationError("item", "encoded item is missing a key attribute of "+table.Name)
	}
	return types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}, k, nil
}

// BatchWrite applies writes and returns one result per request, in the order
// given. A request that cannot be encoded, or that addresses the same key as
// an earlier request, fails alone. Requests the provider still left
// unprocessed after the retry budget fail with ThroughputExhausted.
func BatchWrite[T any](table storagemodels.TableRef, c codec.Codec[T], writes []WriteRequest[T]) Operation[[]storagemodels.Result[WriteRequest[T]]] {
	return newOperation(KindBatchWrite, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) ([]storagemodels.Result[WriteRequest[T]], error) {
		if err := table.Validate(); err != nil {
			return nil, err
		}

		results := make([]storagemodels.Result[WriteRequest[T]], len(writes))
		requests := make([]types.WriteRequest, 0, len(writes))
		keys := make([]storagemodels.Item, 0, len(writes))
		origin := make([]int, 0, len(writes))
		seen := make(map[string]bool, len(writes))
		for i, w := range writes {
			req, k, err := w.build(table, c)
			if err != nil {
				results[i] = storagemodels.Fail[WriteRequest[T]](err)
				continue
			}
			id := table.Keys.Identity(k)
			if seen[id] {
				results[i] = storagemodels.Fail[WriteRequest[T]](
					errors.NewValidationError("key", "batch already writes key "+id))
				continue
			}
			seen[id] = true
			results[i] = storagemodels.Ok(w)
			requests = append(requests, req)
			keys = append(keys, k)
			origin = append(origin, i)
		}
		if len(requests) == 0 {
			return results, nil
		}

		res, err := x.WriteAll(ctx, table, requests)
		if err != nil {
			return nil, err
		}
		for _, j := range res.Unprocessed {
			results[origin[j]] = storagemodels.Fail[WriteRequest[T]](
				errors.NewThroughputExhaustedError(KindBatchWrite.String(), table.Name, table.Keys.Identity(keys[j]), x.MaxAttempts()))
		}
		return results, nil
	})
}

// BatchPut stores every value. See BatchWrite.
func BatchPut[T any](table storagemodels.TableRef, c codec.Codec[T], values []T) Operation[[]storagemodels.Result[WriteRequest[T]]] {
	writes := make([]WriteRequest[T], len(values))
	for i, v := range values {
		writes[i] = PutRequest(v)
	}
	return BatchWrite(table, c, writes)
}

// BatchDelete removes the items stored under keys. See BatchWrite.
func BatchDelete[T any](table storagemodels.TableRef, c codec.Codec[T], keys []storagemodels.Key) Operation[[]storagemodels.Result[WriteRequest[T]]] {
	writes := make([]WriteRequest[T], len(keys))
	for i, k := range keys {
		writes[i] = DeleteRequest[T](k)
	}
	return BatchWrite(table, c, writes)
}
