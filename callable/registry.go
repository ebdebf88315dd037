package callable

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps callable names to callables. It is created explicitly and
// injected into every chain that needs it; there is no process-global
// registry. Lookups are safe for concurrent use from multiple simultaneous
// runs; registration is expected to happen at startup, before runs begin.
type Registry struct {
	mu        sync.RWMutex
	callables map[string]Callable
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		callables: make(map[string]Callable),
		logger:    logger.With().Str("component", "callable_registry").Logger(),
	}
}

// Register adds a callable under its name. Registering a second callable
// with the same name is an error.
func (r *Registry) Register(c Callable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if name == "" {
		return fmt.Errorf("callable has empty name")
	}
	if _, exists := r.callables[name]; exists {
		return fmt.Errorf("callable already registered: %s", name)
	}
	r.callables[name] = c
	r.logger.Debug().Str("name", name).Strs("modes", modeStrings(c)).Msg("Registered callable")
	return nil
}

// MustRegister registers a callable and panics on error. Intended for
// built-in registrations at startup where a collision is a programming error.
func (r *Registry) MustRegister(c Callable) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup resolves a callable by name.
func (r *Registry) Lookup(name string) (Callable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.callables[name]
	if !ok {
		return nil, fmt.Errorf("unknown callable: %s", name)
	}
	return c, nil
}

// Names returns the registered callable names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.callables))
	for name := range r.callables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func modeStrings(c Callable) []string {
	modes := Modes(c)
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}
