/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/storagemodels"
)

// page is one provider response of a scan or query.
type page struct {
	items []storagemodels.Item
	next  storagemodels.Cursor
}

// pager issues one provider call starting at cursor with an optional limit.
type pager func(ctx context.Context, x Executor, cursor storagemodels.Cursor, limit *int32) (page, error)

func scanPager(table storagemodels.TableRef, o readOptions) (pager, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	var filter *expression.Expression
	if o.filter != nil {
		e, err := expr.BuildFilter(*o.filter)
		if err != nil {
			return nil, err
		}
		filter = &e
	}

	return func(ctx context.Context, x Executor, cursor storagemodels.Cursor, limit *int32) (page, error) {
		in := &dynamodb.ScanInput{
			TableName:         aws.String(table.Name),
			IndexName:         table.IndexName(),
			ConsistentRead:    aws.Bool(o.consistent),
			Limit:             limit,
			ExclusiveStartKey: cursor.StartKey(),
		}
		if filter != nil {
			in.FilterExpression = filter.Filter()
			in.ExpressionAttributeNames = filter.Names()
			in.ExpressionAttributeValues = filter.Values()
		}
		out, err := x.Scan(ctx, in)
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, next: storagemodels.CursorFrom(out.LastEvaluatedKey)}, nil
	}, nil
}

func queryPager(table storagemodels.TableRef, cond expr.Condition, o readOptions) (pager, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if o.filter != nil {
		cond = cond.And(*o.filter)
	}
	e, err := expr.BuildQuery(cond, table.QueryKeys())
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, x Executor, cursor storagemodels.Cursor, limit *int32) (page, error) {
		out, err := x.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(table.Name),
			IndexName:                 table.IndexName(),
			KeyConditionExpression:    e.KeyCondition(),
			FilterExpression:          e.Filter(),
			ExpressionAttributeNames:  e.Names(),
			ExpressionAttributeValues: e.Values(),
			ConsistentRead:            aws.Bool(o.consistent),
			ScanIndexForward:          aws.Bool(!o.descending),
			Limit:                     limit,
			ExclusiveStartKey:         cursor.StartKey(),
		})
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, next: storagemodels.CursorFrom(out.LastEvaluatedKey)}, nil
	}, nil
}

// all walks every page in cursor order.
func all[T any](ctx context.Context, x Executor, c codec.Codec[T], p pager, pageSize int32) ([]storagemodels.Result[T], error) {
	var limit *int32
	if pageSize > 0 {
		limit = aws.Int32(pageSize)
	}

	var results []storagemodels.Result[T]
	var cursor storagemodels.Cursor
	for {
		pg, err := p(ctx, x, cursor, limit)
		if err != nil {
			return nil, err
		}
		results = append(results, decodeAll(c, pg.items)...)
		if pg.next.IsZero() {
			return results, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cursor = pg.next
	}
}

func one[T any](ctx context.Context, x Executor, c codec.Codec[T], p pager, limit int32, cursor storagemodels.Cursor) (storagemodels.Page[T], error) {
	pg, err := p(ctx, x, cursor, aws.Int32(limit))
	if err != nil {
		return storagemodels.Page[T]{}, err
	}
	return storagemodels.Page[T]{Items: decodeAll(c, pg.items), Next: pg.next}, nil
}

func checkLimit(limit int32) error {
	if limit < 1 {
		return errors.NewValidationError("limit", "page limit must be at least 1")
	}
	return nil
}

// Scan reads every item of the table or index, following cursors until the
// provider reports the end. Items that fail to decode are reported in place.
func Scan[T any](table storagemodels.TableRef, c codec.Codec[T], opts ...ReadOption) Operation[[]storagemodels.Result[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindScan, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) ([]storagemodels.Result[T], error) {
		p, err := scanPager(table, o)
		if err != nil {
			return nil, err
		}
		return all(ctx, x, c, p, o.pageSize)
	})
}

// ScanPage reads at most limit items starting after cursor. The zero Cursor
// starts from the beginning; a zero Next marks the end of the table.
func ScanPage[T any](table storagemodels.TableRef, c codec.Codec[T], limit int32, cursor storagemodels.Cursor, opts ...ReadOption) Operation[storagemodels.Page[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindScan, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) (storagemodels.Page[T], error) {
		if err := checkLimit(limit); err != nil {
			return storagemodels.Page[T]{}, err
		}
		p, err := scanPager(table, o)
		if err != nil {
			return storagemodels.Page[T]{}, err
		}
		return one(ctx, x, c, p, limit, cursor)
	})
}

// Query reads every item matching cond. cond must contain an equality on the
// partition key and may contain one predicate on the sort key; everything else
// is evaluated as a filter after the key range is selected.
func Query[T any](table storagemodels.TableRef, c codec.Codec[T], cond expr.Condition, opts ...ReadOption) Operation[[]storagemodels.Result[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindQuery, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) ([]storagemodels.Result[T], error) {
		p, err := queryPager(table, cond, o)
		if err != nil {
			return nil, err
		}
		return all(ctx, x, c, p, o.pageSize)
	})
}

// QueryPage is the limited form of Query. Its cursor also carries the index
// key attributes when the table reference targets a secondary index.
func QueryPage[T any](table storagemodels.TableRef, c codec.Codec[T], cond expr.Condition, limit int32, cursor storagemodels.Cursor, opts ...ReadOption) Operation[storagemodels.Page[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindQuery, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) (storagemodels.Page[T], error) {
		if err := checkLimit(limit); err != nil {
			return storagemodels.Page[T]{}, err
		}
		p, err := queryPager(table, cond, o)
		if err != nil {
			return storagemodels.Page[T]{}, err
		}
		return one(ctx, x, c, p, limit, cursor)
	})
}
