/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Client for testing
package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/suparena/tableops/datastore"
	"github.com/suparena/tableops/storagemodels"
)

const (
	maxBatchGet   = 100
	maxBatchWrite = 25
)

// Index declares a secondary index of a mock table.
type Index struct {
	Name string
	Keys storagemodels.KeySchema
}

// ThrottleFunc decides how many of the requested batch members to leave
// unprocessed. call is the 1-based number of the call for that operation.
type ThrottleFunc func(operation string, call int, requested int) int

type table struct {
	keys    storagemodels.KeySchema
	indexes map[string]storagemodels.KeySchema
	items   map[string]storagemodels.Item
}

// Client is an in-memory stand-in for the provider. It evaluates key
// conditions, filters, preconditions and update expressions, honors Limit and
// ExclusiveStartKey, enforces the batch caps and can simulate throttling.
type Client struct {
	mu       sync.Mutex
	tables   map[string]*table
	calls    map[string]int
	faults   map[string][]error
	throttle ThrottleFunc
}

var _ datastore.Client = (*Client)(nil)

// New creates an empty mock Client
func New() *Client {
	return &Client{
		tables: make(map[string]*table),
		calls:  make(map[string]int),
		faults: make(map[string][]error),
	}
}

// CreateTable adds a table with the given key schema and secondary indexes.
func (c *Client) CreateTable(name string, keys storagemodels.KeySchema, indexes ...Index) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &table{
		keys:    keys,
		indexes: make(map[string]storagemodels.KeySchema, len(indexes)),
		items:   make(map[string]storagemodels.Item),
	}
	for _, idx := range indexes {
		t.indexes[idx.Name] = idx.Keys
	}
	c.tables[name] = t
	return c
}

// WithThrottle installs a throttle for BatchGetItem and BatchWriteItem.
func (c *Client) WithThrottle(fn ThrottleFunc) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.throttle = fn
	return c
}

// FailNext queues err as the result of the next call to operation.
func (c *Client) FailNext(operation string, err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faults[operation] = append(c.faults[operation], err)
	return c
}

// Calls returns how many times operation has been called.
func (c *Client) Calls(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[operation]
}

// Seed stores raw items without any validation beyond the key schema.
func (c *Client) Seed(tableName string, items ...storagemodels.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.table(tableName)
	if err != nil {
		return err
	}
	for _, item := range items {
		id, err := t.itemID(item)
		if err != nil {
			return err
		}
		t.items[id] = cloneItem(item)
	}
	return nil
}

// Snapshot returns the stored items of a table in scan order.
func (c *Client) Snapshot(tableName string) []storagemodels.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[tableName]
	if !ok {
		return nil
	}
	items := t.ordered(t.keys)
	out := make([]storagemodels.Item, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

// begin records the call and pops a queued fault. The caller holds c.mu.
func (c *Client) begin(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.calls[operation]++
	if queued := c.faults[operation]; len(queued) > 0 {
		c.faults[operation] = queued[1:]
		return queued[0]
	}
	return nil
}

func (c *Client) table(name string) (*table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String(fmt.Sprintf("Requested resource not found: Table: %s not found", name))}
	}
	return t, nil
}

func validationError(format string, args ...any) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: fmt.Sprintf(format, args...), Fault: smithy.FaultClient}
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

// keyID validates that key holds exactly the table's key attributes.
func (t *table) keyID(key storagemodels.Item) (string, error) {
	if len(key) != len(t.keys.Attributes()) {
		return "", validationError("The provided key element does not match the schema")
	}
	return t.itemID(key)
}

func (t *table) itemID(item storagemodels.Item) (string, error) {
	for _, name := range t.keys.Attributes() {
		v, ok := item[name]
		if !ok {
			return "", validationError("One or more parameter values were invalid: Missing the key %s in the item", name)
		}
		if !isKeyKind(v) {
			return "", validationError("One or more parameter values were invalid: Type mismatch for key %s", name)
		}
	}
	return t.keys.Identity(item), nil
}

func (t *table) schema(index *string) (storagemodels.KeySchema, error) {
	if index == nil || *index == "" {
		return t.keys, nil
	}
	s, ok := t.indexes[*index]
	if !ok {
		return storagemodels.KeySchema{}, validationError("The table does not have the specified index: %s", *index)
	}
	return s, nil
}

// compare orders items by the given schema, then by the table key.
func (t *table) compare(schema storagemodels.KeySchema, a, b storagemodels.Item) int {
	for _, s := range []storagemodels.KeySchema{schema, t.keys} {
		if c := orderValues(a[s.PartitionKey], b[s.PartitionKey]); c != 0 {
			return c
		}
		if s.SortKey != "" {
			if c := orderValues(a[s.SortKey], b[s.SortKey]); c != 0 {
				return c
			}
		}
	}
	return 0
}

// ordered returns the items visible through schema, sorted. Items missing an
// index key attribute are not part of the index.
func (t *table) ordered(schema storagemodels.KeySchema) []storagemodels.Item {
	out := make([]storagemodels.Item, 0, len(t.items))
	for _, item := range t.items {
		if _, ok := schema.Project(item); ok {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b storagemodels.Item) int {
		return t.compare(schema, a, b)
	})
	return out
}

// lastKey projects the attributes a provider puts in LastEvaluatedKey.
func (t *table) lastKey(schema storagemodels.KeySchema, item storagemodels.Item) storagemodels.Item {
	key := make(storagemodels.Item, 4)
	for _, s := range []storagemodels.KeySchema{schema, t.keys} {
		for _, name := range s.Attributes() {
			key[name] = item[name]
		}
	}
	return key
}

// GetItem implements datastore.Client
func (c *Client) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "GetItem"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.keyID(in.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: cloneItem(t.items[id])}, nil
}

// checkCondition evaluates a precondition against the current image of the item.
func checkCondition(expr *string, names map[string]string, values map[string]types.AttributeValue, current storagemodels.Item) error {
	if expr == nil {
		return nil
	}
	pred, err := compileCondition(*expr, names, values)
	if err != nil {
		return validationError("Invalid ConditionExpression: %v", err)
	}
	if current == nil {
		current = storagemodels.Item{}
	}
	if !pred(current) {
		return conditionFailed()
	}
	return nil
}

// PutItem implements datastore.Client
func (c *Client) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "PutItem"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.itemID(in.Item)
	if err != nil {
		return nil, err
	}
	old := t.items[id]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, old); err != nil {
		return nil, err
	}

	t.items[id] = cloneItem(in.Item)
	out := &dynamodb.PutItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = cloneItem(old)
	}
	return out, nil
}

// DeleteItem implements datastore.Client
func (c *Client) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "DeleteItem"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.keyID(in.Key)
	if err != nil {
		return nil, err
	}
	old := t.items[id]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, old); err != nil {
		return nil, err
	}

	delete(t.items, id)
	out := &dynamodb.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = cloneItem(old)
	}
	return out, nil
}

// UpdateItem implements datastore.Client
func (c *Client) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "UpdateItem"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.keyID(in.Key)
	if err != nil {
		return nil, err
	}
	if in.UpdateExpression == nil {
		return nil, validationError("UpdateExpression is required")
	}
	old := t.items[id]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, old); err != nil {
		return nil, err
	}

	next := cloneItem(old)
	if next == nil {
		next = cloneItem(in.Key)
	}
	if err := applyUpdate(*in.UpdateExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, next); err != nil {
		return nil, validationError("Invalid UpdateExpression: %v", err)
	}
	if nextID, err := t.itemID(next); err != nil || nextID != id {
		return nil, validationError("One or more parameter values were invalid: Cannot update attribute that is part of the key")
	}

	t.items[id] = next
	out := &dynamodb.UpdateItemOutput{}
	switch in.ReturnValues {
	case types.ReturnValueAllOld:
		out.Attributes = cloneItem(old)
	case types.ReturnValueAllNew:
		out.Attributes = cloneItem(next)
	}
	return out, nil
}

// page applies ExclusiveStartKey, Limit and the filter to an ordered candidate list.
func (t *table) page(schema storagemodels.KeySchema, candidates []storagemodels.Item, start storagemodels.Item, limit *int32, filter predicate, forward bool) (items []storagemodels.Item, scanned int, last storagemodels.Item) {
	from := 0
	if len(start) > 0 {
		from = len(candidates)
		for i, item := range candidates {
			c := t.compare(schema, item, start)
			if (forward && c > 0) || (!forward && c < 0) {
				from = i
				break
			}
		}
	}
	rest := candidates[from:]

	n := len(rest)
	if limit != nil && int(*limit) < n {
		n = int(*limit)
	}
	for _, item := range rest[:n] {
		scanned++
		if filter == nil || filter(item) {
			items = append(items, cloneItem(item))
		}
	}
	if n < len(rest) {
		last = t.lastKey(schema, rest[n-1])
	}
	return items, scanned, last
}

// Query implements datastore.Client
func (c *Client) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "Query"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	schema, err := t.schema(in.IndexName)
	if err != nil {
		return nil, err
	}
	if in.KeyConditionExpression == nil {
		return nil, validationError("Either the KeyConditions or KeyConditionExpression parameter must be specified in the request")
	}
	if in.Limit != nil && *in.Limit < 1 {
		return nil, validationError("Limit must be greater than or equal to 1")
	}
	keyCond, err := compileCondition(*in.KeyConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, validationError("Invalid KeyConditionExpression: %v", err)
	}
	var filter predicate
	if in.FilterExpression != nil {
		if filter, err = compileCondition(*in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
			return nil, validationError("Invalid FilterExpression: %v", err)
		}
	}

	var candidates []storagemodels.Item
	for _, item := range t.ordered(schema) {
		if keyCond(item) {
			candidates = append(candidates, item)
		}
	}
	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	if !forward {
		slices.Reverse(candidates)
	}

	items, scanned, last := t.page(schema, candidates, in.ExclusiveStartKey, in.Limit, filter, forward)
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(scanned),
		LastEvaluatedKey: last,
	}, nil
}

// Scan implements datastore.Client
func (c *Client) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "Scan"); err != nil {
		return nil, err
	}

	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	schema, err := t.schema(in.IndexName)
	if err != nil {
		return nil, err
	}
	if in.Limit != nil && *in.Limit < 1 {
		return nil, validationError("Limit must be greater than or equal to 1")
	}
	var filter predicate
	if in.FilterExpression != nil {
		if filter, err = compileCondition(*in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
			return nil, validationError("Invalid FilterExpression: %v", err)
		}
	}

	items, scanned, last := t.page(schema, t.ordered(schema), in.ExclusiveStartKey, in.Limit, filter, true)
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(scanned),
		LastEvaluatedKey: last,
	}, nil
}

// unprocessed asks the throttle how many trailing members to leave unprocessed.
func (c *Client) unprocessed(operation string, requested int) int {
	if c.throttle == nil {
		return 0
	}
	n := c.throttle(operation, c.calls[operation], requested)
	return max(0, min(n, requested))
}

// BatchGetItem implements datastore.Client
func (c *Client) BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "BatchGetItem"); err != nil {
		return nil, err
	}

	total := 0
	for name, ka := range in.RequestItems {
		t, err := c.table(name)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(ka.Keys))
		for _, key := range ka.Keys {
			id, err := t.keyID(key)
			if err != nil {
				return nil, err
			}
			if seen[id] {
				return nil, validationError("Provided list of item keys contains duplicates")
			}
			seen[id] = true
		}
		total += len(ka.Keys)
	}
	if total == 0 {
		return nil, validationError("The requestItems parameter must contain at least one key")
	}
	if total > maxBatchGet {
		return nil, validationError("Too many items requested for the BatchGetItem call")
	}

	out := &dynamodb.BatchGetItemOutput{
		Responses:       make(map[string][]storagemodels.Item),
		UnprocessedKeys: make(map[string]types.KeysAndAttributes),
	}
	for name, ka := range in.RequestItems {
		t := c.tables[name]
		skip := c.unprocessed("BatchGetItem", len(ka.Keys))
		done := ka.Keys[:len(ka.Keys)-skip]
		for _, key := range done {
			id, _ := t.keyID(key)
			if item, ok := t.items[id]; ok {
				out.Responses[name] = append(out.Responses[name], cloneItem(item))
			}
		}
		if skip > 0 {
			out.UnprocessedKeys[name] = types.KeysAndAttributes{
				Keys:           slices.Clone(ka.Keys[len(ka.Keys)-skip:]),
				ConsistentRead: ka.ConsistentRead,
			}
		}
	}
	return out, nil
}

// BatchWriteItem implements datastore.Client
func (c *Client) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, "BatchWriteItem"); err != nil {
		return nil, err
	}

	total := 0
	for name, writes := range in.RequestItems {
		t, err := c.table(name)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(writes))
		for _, w := range writes {
			var id string
			switch {
			case w.PutRequest != nil && w.DeleteRequest == nil:
				id, err = t.itemID(w.PutRequest.Item)
			case w.DeleteRequest != nil && w.PutRequest == nil:
				id, err = t.keyID(w.DeleteRequest.Key)
			default:
				err = validationError("Supplied AttributeValue has more than one datatypes set, must contain exactly one of the supported datatypes")
			}
			if err != nil {
				return nil, err
			}
			if seen[id] {
				return nil, validationError("Provided list of item keys contains duplicates")
			}
			seen[id] = true
		}
		total += len(writes)
	}
	if total == 0 {
		return nil, validationError("The batch write request list must contain at least one request")
	}
	if total > maxBatchWrite {
		return nil, validationError("Too many items requested for the BatchWriteItem call")
	}

	out := &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]types.WriteRequest),
	}
	for name, writes := range in.RequestItems {
		t := c.tables[name]
		skip := c.unprocessed("BatchWriteItem", len(writes))
		for _, w := range writes[:len(writes)-skip] {
			if w.PutRequest != nil {
				id, _ := t.itemID(w.PutRequest.Item)
				t.items[id] = cloneItem(w.PutRequest.Item)
				continue
			}
			id, _ := t.keyID(w.DeleteRequest.Key)
			delete(t.items, id)
		}
		if skip > 0 {
			out.UnprocessedItems[name] = slices.Clone(writes[len(writes)-skip:])
		}
	}
	return out, nil
}
