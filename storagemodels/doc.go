/*
Package storagemodels defines the data structures shared by the tableops packages.

Key Types:

TableRef and KeySchema:
The target of an operation and the names of its key attributes:

	animals := storagemodels.NewTableRef("animals", storagemodels.KeySchema{
	    PartitionKey: "species",
	    SortKey:      "number",
	})
	byName := animals.WithIndex("by-name", storagemodels.KeySchema{PartitionKey: "name"})

Key:
A partition value and optional sort value:

	k := storagemodels.CompositeKey("Pig", 1)

Result and Page:
Per-item outcomes. A multi-item operation returns one Result per item, so a
decode failure stays with its item:

	type Result[T any] struct {
	    Value T
	    Err   error
	}

Cursor:
The continuation point of a limited scan or query. Token and ParseCursor
convert it to and from an opaque string.
*/
package storagemodels
