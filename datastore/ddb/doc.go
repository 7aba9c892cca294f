/*
Package ddb connects tableops to Amazon DynamoDB.

NewDynamoDBClient builds an SDK client from the aws section of the
configuration. Static credentials are used when an access key is set, the
default credential chain otherwise, and a custom endpoint (DynamoDB Local,
LocalStack) replaces the resolved one:

	client, err := ddb.NewDynamoDBClient(ctx, cfg.AWS, log)

Translate maps SDK errors onto the tableops error taxonomy. Conditional check
failures become ConditionNotMet; throttling, capacity, availability and
authorization failures become ProviderFault with a reason and a retryable
flag. Context errors and errors already in the taxonomy pass through
unchanged, so provider types never leak past an interpreter.
*/
package ddb
