package circuitbreaker

import "sync"

// Registry holds one breaker per named dependency so that the monitoring
// layer can enumerate them and callers share a breaker per dependency.
type Registry struct {
	mu       sync.Mutex
	defaults Config
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates a registry whose breakers are created from the given
// defaults. The Name field of defaults is ignored; each breaker gets the
// name it is requested under.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		defaults: defaults,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cfg := r.defaults
	cfg.Name = name
	cb := New(cfg)
	r.breakers[name] = cb
	return cb
}

// All returns a snapshot of every registered breaker.
func (r *Registry) All() []*CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		out = append(out, cb)
	}
	return out
}
