/*
Package tableops provides a typed access layer over DynamoDB-style key-value
tables.

Operations are plain values describing a request against a table. Building
one performs no I/O; an interpreter decides how and when it runs:

	animals := tableops.NewTable[Animal]("animals", storagemodels.KeySchema{
	    PartitionKey: "species",
	    SortKey:      "number",
	})

	op := ops.Then(animals.Put(babe), func(*storagemodels.Result[Animal]) ops.Operation[[]storagemodels.Result[Animal]] {
	    return animals.Query(expr.Equals("species", "Pig"))
	})

	pigs, err := interpreter.Execute(ctx, interpreter.NewBlocking(client), op)

Interpreters:
  - Blocking runs an operation on the calling goroutine
  - Async submits it and returns a Future
  - Deferred wraps it in an Effect that runs only when asked

Errors:
Step-level failures (validation, provider faults) are returned as the
operation's error and stop a composed pipeline. Item-level failures (decode
errors, unprocessed batch keys after the retry budget) are reported per item
in storagemodels.Result values so one bad item never hides the rest. A write
wrapped in ops.Conditional reports a failed precondition as a Result value
carrying ConditionNotMet, so the pipeline can continue past it.

Batch reads and writes are split into provider-sized chunks, deduplicated and
retried with exponential backoff; see package batch.

For large tables, Table.Stream delivers items on a channel as pages arrive.
*/
package tableops
