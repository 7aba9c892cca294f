/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/storagemodels"
)

// precondition builds the expression for an optional write precondition.
func precondition(pre *expr.Condition) (*expression.Expression, error) {
	if pre == nil {
		return nil, nil
	}
	e, err := expr.BuildCondition(*pre)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func keyItem(table storagemodels.TableRef, key storagemodels.Key) (storagemodels.Item, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table.Keys.KeyItem(key)
}

// Put stores v, replacing any item with the same key. The result is the
// previous item, or nil when there was none.
func Put[T any](table storagemodels.TableRef, c codec.Codec[T], v T) Operation[*storagemodels.Result[T]] {
	return newOperation(KindPut, table.Name, func(ctx context.Context, x Executor, pre *expr.Condition) (*storagemodels.Result[T], error) {
		if err := table.Validate(); err != nil {
			return nil, err
		}
		item, err := encode(c, v)
		if err != nil {
			return nil, err
		}
		if _, ok := table.Keys.Project(item); !ok {
			return nil, errors.NewValidationError("item", "encoded item is missing a key attribute of "+table.Name)
		}
		cond, err := precondition(pre)
		if err != nil {
			return nil, err
		}

		in := &dynamodb.PutItemInput{
			TableName:    aws.String(table.Name),
			Item:         item,
			ReturnValues: types.ReturnValueAllOld,
		}
		if cond != nil {
			in.ConditionExpression = cond.Condition()
			in.ExpressionAttributeNames = cond.Names()
			in.ExpressionAttributeValues = cond.Values()
		}
		out, err := x.PutItem(ctx, in)
		if err != nil {
			return nil, err
		}
		return previous(c, out.Attributes), nil
	})
}

// Get reads the item stored under key. The result is nil when no item exists.
func Get[T any](table storagemodels.TableRef, c codec.Codec[T], key storagemodels.Key, opts ...ReadOption) Operation[*storagemodels.Result[T]] {
	o := applyReadOptions(opts)
	return newOperation(KindGet, table.Name, func(ctx context.Context, x Executor, _ *expr.Condition) (*storagemodels.Result[T], error) {
		k, err := keyItem(table, key)
		if err != nil {
			return nil, err
		}
		out, err := x.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(table.Name),
			Key:            k,
			ConsistentRead: aws.Bool(o.consistent),
		})
		if err != nil {
			return nil, err
		}
		return previous(c, out.Item), nil
	})
}

// Delete removes the item stored under key. The result is the deleted item,
// or nil when there was none.
func Delete[T any](table storagemodels.TableRef, c codec.Codec[T], key storagemodels.Key) Operation[*storagemodels.Result[T]] {
	return newOperation(KindDelete, table.Name, func(ctx context.Context, x Executor, pre *expr.Condition) (*storagemodels.Result[T], error) {
		k, err := keyItem(table, key)
		if err != nil {
			return nil, err
		}
		cond, err := precondition(pre)
		if err != nil {
			return nil, err
		}

		in := &dynamodb.DeleteItemInput{
			TableName:    aws.String(table.Name),
			Key:          k,
			ReturnValues: types.ReturnValueAllOld,
		}
		if cond != nil {
			in.ConditionExpression = cond.Condition()
			in.ExpressionAttributeNames = cond.Names()
			in.ExpressionAttributeValues = cond.Values()
		}
		out, err := x.DeleteItem(ctx, in)
		if err != nil {
			return nil, err
		}
		return previous(c, out.Attributes), nil
	})
}

// Update applies u to the item stored under key, creating it when absent.
// The result is the item as it was before the update, or nil.
func Update[T any](table storagemodels.TableRef, c codec.Codec[T], key storagemodels.Key, u expr.Update) Operation[*storagemodels.Result[T]] {
	return newOperation(KindUpdate, table.Name, func(ctx context.Context, x Executor, pre *expr.Condition) (*storagemodels.Result[T], error) {
		k, err := keyItem(table, key)
		if err != nil {
			return nil, err
		}
		e, err := expr.BuildUpdate(u, table.Keys, pre)
		if err != nil {
			return nil, err
		}

		out, err := x.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(table.Name),
			Key:                       k,
			UpdateExpression:          e.Update(),
			ConditionExpression:       e.Condition(),
			ExpressionAttributeNames:  e.Names(),
			ExpressionAttributeValues: e.Values(),
			ReturnValues:              types.ReturnValueAllOld,
		})
		if err != nil {
			return nil, err
		}
		return previous(c, out.Attributes), nil
	})
}
