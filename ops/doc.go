/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package ops describes store operations as values.

An Operation[T] is built by one of the constructors (Put, Get, Delete, Update,
Scan, ScanPage, Query, QueryPage, BatchGet, BatchWrite, BatchPut, BatchDelete)
and does nothing until an interpreter runs it. Construction never talks to the
provider; invalid arguments are reported as validation errors when the
operation is executed.

Operations compose:

	op := ops.Then(
		ops.Get(animals, c, storagemodels.CompositeKey("Pig", 1)),
		func(prev *storagemodels.Result[Animal]) ops.Operation[*storagemodels.Result[Animal]] {
			return ops.Put(animals, c, Animal{Species: "Pig", Number: 2})
		},
	)

Steps run strictly in order and a step-level fault stops the pipeline. A write
wrapped in Conditional reports a failed precondition as a value instead, so a
pipeline can continue past it.
*/
package ops
