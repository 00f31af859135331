package limiter

import (
	"sort"
	"sync"
)

// Registry hands out one shared Limiter per upstream name, so that every
// source hitting the same upstream competes for the same slots.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Register creates the limiter for name, replacing any existing one.
func (r *Registry) Register(name string, max int, opts ...Option) *Limiter {
	l := New(name, max, opts...)
	r.mu.Lock()
	r.limiters[name] = l
	r.mu.Unlock()
	return l
}

// Get returns the limiter registered under name, or nil.
// The nil limiter is usable and imposes no limit.
func (r *Registry) Get(name string) *Limiter {
	if r == nil || name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limiters[name]
}

// Names returns the registered limiter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
