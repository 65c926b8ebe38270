package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
)

// Factory creates a configured fetcher from the args of a source definition
type Factory func(args map[string]any) (waste.Fetcher, error)

// Provider describes a source type that can be referenced by name in the Sources attribute
type Provider struct {
	Name    string
	Title   string
	URL     string
	Country string
	New     Factory
}

// Registry manages all available source providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Builtin returns a registry with all providers shipped with this module
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range []Provider{staticProvider(), icsProvider(), winterbergProvider()} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Name == "" || p.New == nil {
		return fmt.Errorf("provider needs a name and a factory")
	}
	if _, exists := r.providers[p.Name]; exists {
		return fmt.Errorf("source %s already registered", p.Name)
	}

	r.providers[p.Name] = p
	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return Provider{}, fmt.Errorf("source %s not found", name)
	}
	return p, nil
}

// List returns all registered provider names, sorted
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

// NewShell creates a source shell for the provider called name
func (r *Registry) NewShell(name string, args map[string]any, calendarTitle string, index int, customize map[string]waste.Customize) (*waste.SourceShell, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	fetcher, err := p.New(args)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %s: %w", name, err)
	}
	return waste.NewSourceShell(p.Name, p.Title, p.URL, calendarTitle, index, customize, fetcher), nil
}
