package collector

import (
	"sort"
	"sync"

	"github.com/newthinker/finscope/internal/core"
)

// Registry holds the configured provider adapters
type Registry struct {
	mu        sync.RWMutex
	providers map[core.Provider]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[core.Provider]Provider),
	}
}

// Register adds a provider, replacing any previous one with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name core.Provider) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetAll returns all registered providers ordered by name
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Names returns the names of all registered providers ordered by name
func (r *Registry) Names() []core.Provider {
	all := r.GetAll()
	names := make([]core.Provider, len(all))
	for i, p := range all {
		names[i] = p.Name()
	}
	return names
}
