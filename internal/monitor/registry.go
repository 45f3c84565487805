package monitor

import (
	"sort"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// Factory constructs a monitor from its configuration params
type Factory func(params Params) (Monitor, error)

// Registry maps monitor kind names to their factories. It is built once at
// startup and injected into the configuration loader; nothing registers into
// it at runtime, which keeps pool construction deterministic and testable.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given kind name, replacing any previous
// registration.
func (r *Registry) Register(kind string, factory Factory) {
	r.factories[kind] = factory
}

// Create instantiates a monitor of the given kind with the given params.
// An unregistered kind is a configuration error.
func (r *Registry) Create(kind string, params Params) (Monitor, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, gslberrors.New(gslberrors.ErrCodeUnknownMonitor,
			"unknown monitor %q", kind)
	}
	return factory(params)
}

// Kinds returns the registered kind names, sorted
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry returns a registry with the built-in monitor kinds
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("http", NewHTTPMonitor)
	r.Register("tcp", NewTCPMonitor)
	r.Register("forced", NewForcedMonitor)
	return r
}
