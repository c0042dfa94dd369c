package health

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultRunnerName is the slot an empty runner name resolves to.
const DefaultRunnerName = "default"

// Registry maps runner names to runners.
//
// A Registry is populated during startup and then sealed. Registration takes
// a lock; lookups after Seal read the map without locking, so Seal must
// happen before the registry is shared with serving goroutines.
type Registry struct {
	mu      sync.Mutex
	sealed  atomic.Bool
	runners map[string]*Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]*Runner)}
}

// Register adds a runner under name. An empty name registers the default runner.
func (r *Registry) Register(name string, runner *Runner) error {
	if runner == nil {
		return fmt.Errorf("health: runner %q is nil", name)
	}
	name = resolveName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, name)
	}
	if _, exists := r.runners[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRunner, name)
	}
	r.runners[name] = runner
	return nil
}

// Seal makes the registry read-only. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Get returns the runner registered under name. An empty name resolves to
// DefaultRunnerName. A missing runner yields a *ConfigurationError.
func (r *Registry) Get(name string) (*Runner, error) {
	name = resolveName(name)

	var (
		runner *Runner
		ok     bool
	)
	if r.sealed.Load() {
		runner, ok = r.runners[name]
	} else {
		r.mu.Lock()
		runner, ok = r.runners[name]
		r.mu.Unlock()
	}

	if !ok {
		return nil, &ConfigurationError{Name: name}
	}
	return runner, nil
}

// MustGet is like Get but panics on a missing runner. Intended for startup wiring.
func (r *Registry) MustGet(name string) *Runner {
	runner, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return runner
}

// Names returns the registered runner names in sorted order.
func (r *Registry) Names() []string {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultRunnerName
	}
	return name
}
