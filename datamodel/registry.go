package datamodel

import (
	"fmt"
	"slices"
	"sync"

	"github.com/xraph/rampart/permission"
)

// Registry maps "<namespace>.<resource>" names to models.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Register adds a model under namespace and resource.
func (r *Registry) Register(namespace, resource string, m Model) error {
	name := namespace + "." + resource
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, name)
	}
	r.models[name] = m
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(namespace, resource string, m Model) {
	if err := r.Register(namespace, resource, m); err != nil {
		panic(err)
	}
}

// Lookup returns the model addressed by a permission name.
func (r *Registry) Lookup(perm permission.Name) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[perm.Namespace()+"."+perm.Resource()]
	return m, ok
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
