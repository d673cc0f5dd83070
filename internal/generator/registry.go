package generator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DuplicateError reports two registrations under the same platform name.
type DuplicateError struct {
	Name string
}

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("generator already registered for platform %q", e.Name)
}

// UnknownError reports a lookup for a platform with no registered
// generator. It carries the set of known platforms for the error message.
type UnknownError struct {
	Name  string
	Known []string
}

// Error implements the error interface for UnknownError.
func (e *UnknownError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("no registered generator for platform %q (none registered)", e.Name)
	}
	return fmt.Sprintf("no registered generator for platform %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry is a name-keyed table of backend generators. It is populated by
// explicit Register calls during initialization and read-only afterwards;
// lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator under its platform name. Registering the same
// name twice fails with *DuplicateError.
func (r *Registry) Register(g Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Platform()
	if _, exists := r.generators[name]; exists {
		return &DuplicateError{Name: name}
	}
	r.generators[name] = g
	return nil
}

// Resolve returns the generator registered under the given platform name,
// or *UnknownError when none exists.
func (r *Registry) Resolve(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[name]
	if !ok {
		return nil, &UnknownError{Name: name, Known: r.namesLocked()}
	}
	return g, nil
}

// Names returns the sorted platform names of all registered generators.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
