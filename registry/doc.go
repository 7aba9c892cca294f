/*
Package registry holds process-wide lookups populated during initialization.

Codec Registry:
Associates Go types with the codec used to store them:

	registry.RegisterCodec[Sighting](testmodels.SightingCodec())
	c, ok := registry.CodecFor[Sighting]()

Table Registry:
Associates table names with their key schemas:

	registry.RegisterTable(storagemodels.NewTableRef("animals", storagemodels.KeySchema{
	    PartitionKey: "species",
	    SortKey:      "number",
	}))

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
