package nameservice

import (
	"sync"
)

// Registry maintains the set of registered entries in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds the entry, replacing an identical one if it was already
// registered.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(e)
	r.entries = append(r.entries, e)
}

// Remove deletes the entry if it is registered.
func (r *Registry) Remove(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(e)
}

// Copy returns the registered entries.
func (r *Registry) Copy() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

func (r *Registry) remove(e Entry) {
	for i := range r.entries {
		if r.entries[i] == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}
