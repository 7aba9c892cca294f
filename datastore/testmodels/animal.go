package testmodels

import "github.com/suparena/tableops/codec"

// Animal is keyed by (species, number).
type Animal struct {

	// Species of the animal, the partition key.
	// Required: true
	Species string `json:"species"`

	// Number of the animal within its species, the sort key.
	// Required: true
	Number int `json:"number"`

	// Name given to the animal.
	Name string `json:"name,omitempty"`

	// Weight in kilograms.
	Weight float64 `json:"weight,omitempty"`
}

// AnimalCodec decodes Animal through the json struct tags.
func AnimalCodec() codec.Codec[Animal] {
	return codec.NewReflect[Animal](codec.WithTagKey("json"), codec.Required("species", "number"))
}
