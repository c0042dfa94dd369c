package secret

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	if strings.TrimSpace(name) == "" || factory == nil {
		return errors.New("invalid provider registration")
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("secret provider %q already registered", name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("provider name is required")
	}

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("secret provider %q is not registered", name)
	}

	return factory(cfg)
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global registry for secret providers. It has the
// env and file providers registered.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("env", newEnvProviderFromConfig)
	_ = r.Register("file", newFileProviderFromConfig)
	return r
}

// NewResolverFromConfig builds a resolver with one provider per entry in
// providers, keyed by provider name. Registered providers missing from
// providers are created with an empty config.
func (r *Registry) NewResolverFromConfig(strict bool, providers map[string]map[string]any) (*Resolver, error) {
	resolver := NewResolver(strict)
	for _, name := range r.List() {
		p, err := r.Create(name, providers[name])
		if err != nil {
			return nil, fmt.Errorf("create secret provider %q: %w", name, err)
		}
		resolver.Register(p)
	}
	for name := range providers {
		if _, ok := resolver.providers[name]; !ok {
			return nil, fmt.Errorf("secret provider %q is not registered", name)
		}
	}
	return resolver, nil
}
