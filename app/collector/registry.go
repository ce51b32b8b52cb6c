package collector

import (
	"fmt"
	"sync"
)

type registration struct {
	factory        Factory
	defaultCadence string
}

// Registry maps source names to collector factories. Registration order
// is preserved so scheduler bootstrap and logs are deterministic. Adding
// a source never requires touching the scheduler.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register binds a source name to a factory and its declared default
// cadence. Registering the same name twice is a configuration error.
func (r *Registry) Register(name string, factory Factory, defaultCadence string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
	}

	r.entries[name] = registration{factory: factory, defaultCadence: defaultCadence}
	r.order = append(r.order, name)
	return nil
}

// Resolve constructs a collector instance for the named source.
func (r *Registry) Resolve(name string) (Collector, error) {
	r.mu.RLock()
	reg, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return reg.factory()
}

// DefaultCadence returns the cadence declared at registration.
func (r *Registry) DefaultCadence(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.entries[name]
	if !exists {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return reg.defaultCadence, nil
}

// Sources returns registered source names in registration order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
