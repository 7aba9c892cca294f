package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/storagemodels"
)

// Sighting records an animal seen at a location, keyed by (location, seen_at)
// with a secondary index on species.
type Sighting struct {

	// Location of the sighting, the partition key.
	// Required: true
	Location string `json:"location"`

	// Timestamp of the sighting, the sort key.
	// Required: true
	// Format: date-time
	SeenAt strfmt.DateTime `json:"seen_at"`

	// Species that was seen.
	// Required: true
	Species string `json:"species"`

	// Number of animals seen.
	Count int64 `json:"count,omitempty"`
}

// SightingCodec is a hand-written codec that stores SeenAt as an RFC 3339 string.
func SightingCodec() codec.Codec[Sighting] {
	return codec.Funcs[Sighting]{
		EncodeFunc: func(s Sighting) (storagemodels.Item, error) {
			item := storagemodels.Item{
				"location": codec.S(s.Location),
				"seen_at":  codec.DT(s.SeenAt),
				"species":  codec.S(s.Species),
			}
			if s.Count != 0 {
				item["count"] = codec.N(s.Count)
			}
			return item, nil
		},
		DecodeFunc: func(item storagemodels.Item) (Sighting, error) {
			var s Sighting
			var err error
			if s.Location, err = codec.String(item, "location"); err != nil {
				return s, err
			}
			if s.SeenAt, err = codec.DateTime(item, "seen_at"); err != nil {
				return s, err
			}
			if s.Species, err = codec.String(item, "species"); err != nil {
				return s, err
			}
			if s.Count, err = codec.Optional(item, "count", codec.Int); err != nil {
				return s, err
			}
			return s, nil
		},
	}
}
