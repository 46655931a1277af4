package export

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a sink instance from opaque config (sink-specific).
type Factory func(any) (Sink, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register binds a sink name to its factory.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// New returns a sink instance by name.
func New(name string, cfg any) (Sink, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("export sink not found: %s (registered: %v)", name, Names())
	}
	return f(cfg)
}

// Names lists registered sinks.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
