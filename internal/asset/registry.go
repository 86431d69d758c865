package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is a thread-safe registry of known assets on one chain.
type Registry struct {
	byDescriptor map[Descriptor]*Asset
	bySymbol     map[string]*Asset
	mu           sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byDescriptor: make(map[Descriptor]*Asset),
		bySymbol:     make(map[string]*Asset),
	}
}

// Register adds an asset. Panics on duplicates.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := a.Descriptor()
	if _, exists := r.byDescriptor[d]; exists {
		panic(fmt.Sprintf("asset: %s already registered", d))
	}

	r.byDescriptor[d] = a
	r.bySymbol[strings.ToUpper(a.Symbol())] = a
}

// Get retrieves an asset by descriptor.
func (r *Registry) Get(d Descriptor) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byDescriptor[d]
	return a, ok
}

// GetBySymbol retrieves an asset by symbol, case-insensitively.
func (r *Registry) GetBySymbol(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[strings.ToUpper(symbol)]
	return a, ok
}

// Resolve turns a symbol, "native", or a token address into a Descriptor.
func (r *Registry) Resolve(ref string) (Descriptor, error) {
	if a, ok := r.GetBySymbol(ref); ok {
		return a.Descriptor(), nil
	}
	return ParseDescriptor(ref)
}

// All returns every registered asset ordered by symbol.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Asset, 0, len(r.byDescriptor))
	for _, a := range r.byDescriptor {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byDescriptor)
}
