package volumebackup

import (
	"context"
	"encoding/json"

	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
)

type call struct {
	Op   string
	Path string
	Body []byte
	Key  string
}

// fakeTransport records calls and answers from canned JSON.
type fakeTransport struct {
	calls []call

	single json.RawMessage
	list   []json.RawMessage
	err    error
}

var _ rest.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Create(_ context.Context, path string, body any, key string) (json.RawMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, call{Op: "create", Path: path, Body: b, Key: key})
	return f.single, f.err
}

func (f *fakeTransport) Get(_ context.Context, path, key string) (json.RawMessage, error) {
	f.calls = append(f.calls, call{Op: "get", Path: path, Key: key})
	return f.single, f.err
}

func (f *fakeTransport) List(_ context.Context, path, key string) ([]json.RawMessage, error) {
	f.calls = append(f.calls, call{Op: "list", Path: path, Key: key})
	return f.list, f.err
}

func (f *fakeTransport) Delete(_ context.Context, path string) error {
	f.calls = append(f.calls, call{Op: "delete", Path: path})
	return f.err
}

func (f *fakeTransport) last() call {
	return f.calls[len(f.calls)-1]
}

func rawList(objs ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(objs))
	for _, o := range objs {
		out = append(out, json.RawMessage(o))
	}
	return out
}
