package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
)

// Module is the interface that all spatial method modules must implement to
// be registered.
type Module interface {
	Register(r *Registry)
}

// Factory returns a fresh, unbuilt spatial method.
type Factory func() spatial.Method

// Registry holds the spatial method factories of a single application
// instance.
type Registry struct {
	methods map[string]Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{methods: make(map[string]Factory)}
}

// RegisterMethod registers a factory under name.
func (r *Registry) RegisterMethod(name string, factory Factory) {
	if _, exists := r.methods[name]; exists {
		panic(fmt.Sprintf("spatial method with name '%s' already registered", name))
	}
	if factory == nil {
		panic(fmt.Sprintf("spatial method '%s' registered with a nil factory", name))
	}
	slog.Debug("Registering spatial method.", "name", name)
	r.methods[name] = factory
}

// Has reports whether a method called name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.methods[name]
	return ok
}

// Names returns the registered method names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.methods))
}

// NewMethod returns a new instance of the method called name.
func (r *Registry) NewMethod(name string) (spatial.Method, error) {
	factory, ok := r.methods[name]
	if !ok {
		return nil, modelerr.Configurationf("unknown spatial method %q", name)
	}
	return factory(), nil
}

// Methods instantiates the method table of cfg, keyed by domain. Domains
// naming the same method share one instance.
func (r *Registry) Methods(cfg *config.Model) (map[string]spatial.Method, error) {
	instances := make(map[string]spatial.Method)
	table := make(map[string]spatial.Method, len(cfg.Methods))
	for _, m := range cfg.Methods {
		method, ok := instances[m.Method]
		if !ok {
			var err error
			if method, err = r.NewMethod(m.Method); err != nil {
				return nil, fmt.Errorf("domain '%s': %w", m.Domain, err)
			}
			instances[m.Method] = method
		}
		table[m.Domain] = method
	}
	return table, nil
}
