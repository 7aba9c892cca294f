/*
Package codec maps domain values to provider items and back.

Reflect derives the mapping from struct tags; Funcs wraps hand-written
functions, usually built from the attribute accessors in this package:

	animalCodec := codec.Funcs[Animal]{
	    EncodeFunc: func(a Animal) (storagemodels.Item, error) {
	        return storagemodels.Item{"species": codec.S(a.Species), "number": codec.N(a.Number)}, nil
	    },
	    DecodeFunc: func(item storagemodels.Item) (Animal, error) {
	        species, err := codec.String(item, "species")
	        ...
	    },
	}

Decode errors are always *errors.DecodeError.
*/
package codec
