package rest

import (
	"context"
	"encoding/json"
)

// Transport is the REST surface resource managers are built on. Paths are
// relative to the service endpoint; responseKey names the top-level member
// of the JSON response holding the resource(s).
type Transport interface {
	Create(ctx context.Context, path string, body any, responseKey string) (json.RawMessage, error)
	Get(ctx context.Context, path, responseKey string) (json.RawMessage, error)
	List(ctx context.Context, path, responseKey string) ([]json.RawMessage, error)
	Delete(ctx context.Context, path string) error
}
