package provider

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry manages all credit providers
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Default is the process-wide registry populated by the bootstrap step.
var Default = NewRegistry()

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register stores p under its id. A later registration with the same id replaces
// the earlier one.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	_, replaced := r.providers[p.ID()]
	r.providers[p.ID()] = p
	r.mu.Unlock()

	log.Info().
		Str("provider", p.ID()).
		Str("name", p.Name()).
		Strs("capabilities", capabilitiesToStrings(p.Capabilities())).
		Bool("replaced", replaced).
		Msg("registered credit provider")
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// List returns all registered providers ordered by id
func (r *Registry) List() []Provider {
	r.mu.RLock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Descriptors returns every provider serialised for the API
func (r *Registry) Descriptors() []Descriptor {
	list := r.List()
	out := make([]Descriptor, 0, len(list))
	for _, p := range list {
		out = append(out, Describe(p))
	}
	return out
}

// IDs returns the registered ids, sorted
func (r *Registry) IDs() []string {
	list := r.List()
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID())
	}
	return out
}

// capabilitiesToStrings converts capabilities to strings for logging
func capabilitiesToStrings(caps []Capability) []string {
	strs := make([]string, 0, len(caps))
	for _, c := range caps {
		strs = append(strs, string(c))
	}
	return strs
}
