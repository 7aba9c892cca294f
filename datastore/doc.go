/*
Package datastore defines the provider boundary of tableops.

The Client interface is the wire contract the interpreters consume:

	type Client interface {
	    GetItem(ctx, *dynamodb.GetItemInput, ...) (*dynamodb.GetItemOutput, error)
	    PutItem(...)
	    DeleteItem(...)
	    UpdateItem(...)
	    Query(...)
	    Scan(...)
	    BatchGetItem(...)
	    BatchWriteItem(...)
	}

Implementations:
  - *dynamodb.Client, constructed with ddb.NewDynamoDBClient
  - mock.Client: in-memory provider for tests

The client is owned by the caller and shared by every interpreter built on it.
*/
package datastore
