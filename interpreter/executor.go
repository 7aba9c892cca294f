/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/datastore"
	"github.com/suparena/tableops/datastore/ddb"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/storagemodels"
)

// executor implements ops.Executor over a provider client. It is the single
// place where provider errors are translated.
type executor struct {
	client datastore.Client
	engine *batch.Engine
	logger zerolog.Logger
}

var _ ops.Executor = (*executor)(nil)

func newExecutor(client datastore.Client, dispatcher batch.Dispatcher, s settings) *executor {
	return &executor{
		client: client,
		engine: batch.NewEngine(client,
			batch.WithRetryPolicy(s.policy),
			batch.WithDispatcher(dispatcher),
			batch.WithLogger(s.logger),
		),
		logger: s.logger,
	}
}

func (e *executor) GetItem(ctx context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
	out, err := e.client.GetItem(ctx, in)
	return out, ddb.Translate("GetItem", aws.ToString(in.TableName), err)
}

func (e *executor) PutItem(ctx context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	out, err := e.client.PutItem(ctx, in)
	return out, ddb.Translate("PutItem", aws.ToString(in.TableName), err)
}

func (e *executor) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
	out, err := e.client.DeleteItem(ctx, in)
	return out, ddb.Translate("DeleteItem", aws.ToString(in.TableName), err)
}

func (e *executor) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
	out, err := e.client.UpdateItem(ctx, in)
	return out, ddb.Translate("UpdateItem", aws.ToString(in.TableName), err)
}

func (e *executor) Query(ctx context.Context, in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	out, err := e.client.Query(ctx, in)
	return out, ddb.Translate("Query", aws.ToString(in.TableName), err)
}

func (e *executor) Scan(ctx context.Context, in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
	out, err := e.client.Scan(ctx, in)
	return out, ddb.Translate("Scan", aws.ToString(in.TableName), err)
}

func (e *executor) GetAll(ctx context.Context, table storagemodels.TableRef, keys []storagemodels.Item, consistent bool) (*batch.GetResult, error) {
	res, err := e.engine.GetAll(ctx, table, keys, consistent)
	return res, ddb.Translate("BatchGetItem", table.Name, err)
}

func (e *executor) WriteAll(ctx context.Context, table storagemodels.TableRef, writes []types.WriteRequest) (*batch.WriteResult, error) {
	res, err := e.engine.WriteAll(ctx, table, writes)
	return res, ddb.Translate("BatchWriteItem", table.Name, err)
}

func (e *executor) MaxAttempts() int {
	return e.engine.Policy().MaxAttempts
}

// execute runs op with a fresh run id and makes sure nothing but taxonomy
// and context errors leaves the interpreter.
func execute[T any](ctx context.Context, e *executor, op ops.Operation[T]) (T, error) {
	runID := uuid.NewString()
	logger := e.logger.With().
		Str("run_id", runID).
		Str("kind", op.Kind().String()).
		Str("table", op.Table()).
		Logger()
	start := time.Now()

	v, err := op.Run(ctx, e)
	err = ddb.Translate(op.Kind().String(), op.Table(), err)

	switch {
	case err == nil:
		logger.Debug().Dur("elapsed", time.Since(start)).Msg("operation completed")
	case errors.IsProviderFault(err):
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("operation failed")
	default:
		logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("operation failed")
	}
	return v, err
}
