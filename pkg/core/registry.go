package core

import (
	"fmt"
	"sort"
	"sync"
)

// Global registry for source self-registration
var globalRegistry = NewRegistry()

// Registry holds source prototypes and the configured source instances.
// Instances are kept in creation order, which is the order the aggregator
// merges their results in.
type Registry struct {
	prototypes map[string]Source
	sources    map[string]Source
	order      []string
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		prototypes: make(map[string]Source),
		sources:    make(map[string]Source),
	}
}

// RegisterSourcePrototype allows providers to register themselves during init()
func RegisterSourcePrototype(name string, prototype Source) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.prototypes[name] = prototype
}

// GetGlobalRegistry returns a new registry seeded with every registered
// prototype and no instances.
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for name, prototype := range globalRegistry.prototypes {
		registry.prototypes[name] = prototype
	}
	return registry
}

func (r *Registry) RegisterPrototype(name string, prototype Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prototypes[name]; exists {
		return fmt.Errorf("source prototype %s already registered", name)
	}

	r.prototypes[name] = prototype
	return nil
}

// Prototype returns the registered prototype for a source type.
func (r *Registry) Prototype(sourceType string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prototypes[sourceType]
	return p, ok
}

// ListPrototypes returns the registered source types, sorted.
func (r *Registry) ListPrototypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.prototypes))
	for name := range r.prototypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateSource instantiates a source from the prototype registered for
// sourceType. Re-creating an existing instance replaces it in place.
func (r *Registry) CreateSource(instanceName string, sourceType string, config any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prototype, exists := r.prototypes[sourceType]
	if !exists {
		return fmt.Errorf("source prototype %s not found", sourceType)
	}

	if validator, ok := config.(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("invalid config for source %s: %w", instanceName, err)
		}
	}

	source, err := prototype.Factory(instanceName, config)
	if err != nil {
		return fmt.Errorf("creating source %s: %w", instanceName, err)
	}

	if _, exists := r.sources[instanceName]; !exists {
		r.order = append(r.order, instanceName)
	}
	r.sources[instanceName] = source
	return nil
}

// AddSource registers an already built source instance.
func (r *Registry) AddSource(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := source.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = source
}

func (r *Registry) GetSource(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}

	return source, nil
}

// Sources returns the configured sources in creation order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sources[name])
	}
	return result
}

func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) RemoveSource(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}

	delete(r.sources, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ReplaceSources swaps this registry's instances for other's in one step.
// Prototypes are left untouched. Used when the configuration is reloaded.
func (r *Registry) ReplaceSources(other *Registry) {
	other.mu.RLock()
	sources := make(map[string]Source, len(other.sources))
	for name, s := range other.sources {
		sources[name] = s
	}
	order := make([]string, len(other.order))
	copy(order, other.order)
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = sources
	r.order = order
}
