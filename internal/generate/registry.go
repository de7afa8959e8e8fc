package generate

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"fixtures/internal/record"
	"fixtures/internal/source"
)

// Func produces count records from rng. Generators must draw every random
// choice from rng so a fixed seed reproduces the same collection.
type Func func(rng *rand.Rand, count int) record.Collection

// ErrFrozen is returned by Register once the registry has been frozen.
var ErrFrozen = errors.New("generator registry is frozen")

// Registry maps scenario names to generators. Scenarios are registered
// during setup; Freeze makes the set fixed for the registry's lifetime.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Default returns a registry holding the bundled scenarios:
// login, registration, payment and user.
func Default() *Registry {
	return &Registry{funcs: map[string]Func{
		"login":        Login,
		"registration": Registration,
		"payment":      Payment,
		"user":         User,
	}}
}

// Register adds or replaces a scenario. It fails with ErrFrozen after Freeze.
func (r *Registry) Register(name string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: %w", name, ErrFrozen)
	}
	r.funcs[name] = fn
	return nil
}

// Freeze stops any further Register call from changing the registry.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Names returns the registered scenario names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Generate runs the named scenario. A nil seed draws one from the clock.
// Unknown scenarios fail with source.ErrUnknownScenario.
func (r *Registry) Generate(scenario string, count int, seed *int64) (record.Collection, error) {
	r.mu.RLock()
	fn, ok := r.funcs[scenario]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownScenario, scenario)
	}
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}

	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return fn(rand.New(rand.NewSource(s)), count), nil
}
