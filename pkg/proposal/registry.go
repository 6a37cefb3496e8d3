package proposal

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores proposers by backend name so the active one can be picked
// from configuration.
type Registry struct {
	mu        sync.RWMutex
	proposers map[string]Proposer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		proposers: make(map[string]Proposer),
	}
}

// Register adds a proposer under name. Duplicate names return an error.
func (r *Registry) Register(name string, proposer Proposer) error {
	if proposer == nil {
		return fmt.Errorf("proposal: proposer is required")
	}
	if name == "" {
		return fmt.Errorf("proposal: proposer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.proposers[name]; exists {
		return fmt.Errorf("proposal: proposer %q already registered", name)
	}
	r.proposers[name] = proposer
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, proposer Proposer) {
	if err := r.Register(name, proposer); err != nil {
		panic(err)
	}
}

// Get retrieves a proposer by name.
func (r *Registry) Get(name string) (Proposer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proposer, ok := r.proposers[name]
	if !ok {
		return nil, fmt.Errorf("proposal: proposer %q not found", name)
	}
	return proposer, nil
}

// List returns the sorted backend names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.proposers))
	for name := range r.proposers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a backend is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.proposers[name]
	return ok
}
