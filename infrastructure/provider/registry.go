// Package provider holds the hosting-provider registry and its
// implementations. The engine talks to hosts only through domain.Provider;
// the registry maps a configured provider type onto a constructor.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmccoy02/bridge-engine/domain"
)

// Factory builds a Provider bound to an auth token.
type Factory func(token string) domain.Provider

// Registry maps provider type names ("github", ...) to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given type name, replacing any
// earlier registration for the same name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Get builds a provider of the given type. An unknown type is a
// configuration error; the message lists what is available.
func (r *Registry) Get(name, token string) (domain.Provider, error) {
	factory, registered := r.factories[name]
	if !registered {
		return nil, fmt.Errorf("unknown provider type %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return factory(token), nil
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
