package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
)

// Resource is a server entity: its id plus every attribute the service
// returned, kept verbatim (numbers stay json.Number).
type Resource struct {
	id    string
	attrs map[string]any
}

// DecodeResource builds a Resource from one JSON object. A missing id is
// allowed here; resource types that require one check ID themselves.
func DecodeResource(raw json.RawMessage) (Resource, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return Resource{}, fmt.Errorf("%w: decode resource: %v", ErrMalformedResponse, err)
	}
	if attrs == nil {
		return Resource{}, fmt.Errorf("%w: resource is null", ErrMalformedResponse)
	}

	var id string
	switch v := attrs["id"].(type) {
	case nil:
	case string:
		id = v
	case json.Number:
		id = v.String()
	default:
		return Resource{}, fmt.Errorf("%w: id has unexpected type %T", ErrMalformedResponse, v)
	}
	return Resource{id: id, attrs: attrs}, nil
}

// ID returns the server-assigned identifier ("" if the service sent none).
func (r Resource) ID() string { return r.id }

// Get returns a raw attribute.
func (r Resource) Get(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Text returns an attribute rendered as a string; absent and null values yield "".
func (r Resource) Text(key string) string {
	switch v := r.attrs[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Attributes returns a copy of the attribute map.
func (r Resource) Attributes() map[string]any {
	return maps.Clone(r.attrs)
}

// Decode maps the attributes onto out (a pointer to a struct with
// mapstructure tags). Numeric strings and json.Number convert weakly.
func (r Resource) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(r.attrs); err != nil {
		return fmt.Errorf("decode attributes of %q: %w", r.id, err)
	}
	return nil
}

// MarshalJSON renders the resource as the service sent it.
func (r Resource) MarshalJSON() ([]byte, error) {
	if r.attrs == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.attrs)
}
