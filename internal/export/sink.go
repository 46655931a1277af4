package export

import "context"

// Sink defines the contract for storage backends receiving inventory exports.
// Keys are slash-separated so implementations can map them to their own layout.
type Sink interface {
	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error

	// Name returns the sink identifier (e.g. "azure", "file").
	Name() string
}
