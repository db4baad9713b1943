package param

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages a set of parameters. Registration and lookup happen
// on the control context; the render context keeps direct pointers to
// the parameters it reads and never touches the registry lock.
type Registry struct {
	mu     sync.RWMutex
	params map[uint32]*Parameter
	order  []uint32
}

// NewRegistry creates an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
	}
}

// Add registers a parameter. Duplicate IDs are rejected.
func (r *Registry) Add(p *Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.params[p.ID]; exists {
		return fmt.Errorf("parameter ID %d already registered", p.ID)
	}
	r.params[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

// MustAdd registers a parameter and panics on duplicate IDs. Parameter
// sets are static, so a duplicate is a programming error caught at
// construction.
func (r *Registry) MustAdd(p *Parameter) *Parameter {
	if err := r.Add(p); err != nil {
		panic(err)
	}
	return p
}

// Get returns a parameter by ID.
func (r *Registry) Get(id uint32) (*Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.params[id]
	return p, ok
}

// Count returns the number of registered parameters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.params)
}

// All returns the parameters in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Parameter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.params[id])
	}
	return out
}

// SortedIDs returns all parameter IDs in ascending order. Persistence
// walks this so snapshots are deterministic.
func (r *Registry) SortedIDs() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint32, 0, len(r.params))
	for id := range r.params {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ResetAll restores every parameter to its default value.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.params {
		p.SetValue(p.DefaultValue)
	}
}
