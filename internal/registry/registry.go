package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/graph"
)

// Module is the interface that all node libraries must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Factory builds a node with the given name.
type Factory func(name string) graph.Node

// Registry holds the node factories of a single application instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates a registry and registers every given module.
func New(modules ...Module) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a factory. Registering a type name twice panics.
func (r *Registry) Register(typeName string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typeName]; exists {
		panic(fmt.Sprintf("node type '%s' already registered", typeName))
	}
	slog.Debug("Registering node type.", "type", typeName)
	r.factories[typeName] = f
}

// Create builds a node of the given type.
func (r *Registry) Create(typeName, name string) (graph.Node, error) {
	r.mu.RLock()
	f, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, evalerr.New(evalerr.CodeNotFound, "create", "unknown node type %q", typeName)
	}
	return f(name), nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
