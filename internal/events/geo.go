package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// GeoCodec converts the internal Location value to and from its stored and
// wire representation. Exactly one codec is active per deployment, selected
// by the GEO_BYPASS config flag. Both codecs write to the same single geo
// column, so switching strategies never changes the schema.
type GeoCodec interface {
	// Encode renders a location. A nil location encodes to nil.
	Encode(loc *Location) (json.RawMessage, error)

	// Decode parses a stored/submitted representation. Empty input decodes
	// to nil.
	Decode(raw []byte) (*Location, error)
}

// NewGeoCodec returns the codec matching the bypass flag.
func NewGeoCodec(bypass bool) GeoCodec {
	if bypass {
		return blobCodec{}
	}
	return structuredCodec{}
}

// structuredCodec stores locations as a queryable JSON object:
// {"latitude": 37.5, "longitude": 126.9}.
type structuredCodec struct{}

func (structuredCodec) Encode(loc *Location) (json.RawMessage, error) {
	if loc == nil {
		return nil, nil
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("encoding location: %w", err)
	}
	return data, nil
}

func (structuredCodec) Decode(raw []byte) (*Location, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("decoding location: %w", err)
	}
	return &loc, nil
}

// blobCodec stores locations as an opaque base64 JSON string, for
// deployments where coordinates must not land in queryable columns.
type blobCodec struct{}

func (blobCodec) Encode(loc *Location) (json.RawMessage, error) {
	if loc == nil {
		return nil, nil
	}
	inner, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("encoding location blob: %w", err)
	}
	blob := base64.StdEncoding.EncodeToString(inner)

	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("encoding location blob string: %w", err)
	}
	return data, nil
}

func (blobCodec) Decode(raw []byte) (*Location, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var blob string
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("decoding location blob string: %w", err)
	}
	inner, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding location blob: %w", err)
	}
	var loc Location
	if err := json.Unmarshal(inner, &loc); err != nil {
		return nil, fmt.Errorf("decoding location: %w", err)
	}
	return &loc, nil
}
