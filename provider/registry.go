package provider

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderFactory builds a configured adapter from raw provider configuration
type ProviderFactory func(raw RawConfig) (Adapter, error)

// ProviderRegistry manages all payment provider implementations
type ProviderRegistry struct {
	providers map[ProviderID]ProviderFactory
	mu        sync.RWMutex
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[ProviderID]ProviderFactory),
	}
}

// Register adds a payment provider factory to the registry
func (r *ProviderRegistry) Register(id ProviderID, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = factory
}

// Get retrieves a payment provider factory by id
func (r *ProviderRegistry) Get(id ProviderID) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.providers[id]
	if !exists {
		return nil, fmt.Errorf("payment provider '%s' is not registered", id)
	}

	return factory, nil
}

// CreateProvider builds a configured adapter through the registered factory
func (r *ProviderRegistry) CreateProvider(id ProviderID, raw RawConfig) (Adapter, error) {
	factory, err := r.Get(id)
	if err != nil {
		return nil, ConfigError(id, err.Error(), nil)
	}
	return factory(raw)
}

// GetAvailableProviders returns the registered provider ids in sorted order
func (r *ProviderRegistry) GetAvailableProviders() []ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefaultRegistry is the global default provider registry
var DefaultRegistry = NewProviderRegistry()

// Register registers a provider with the default registry
func Register(id ProviderID, factory ProviderFactory) {
	DefaultRegistry.Register(id, factory)
}

// Get retrieves a provider factory from the default registry
func Get(id ProviderID) (ProviderFactory, error) {
	return DefaultRegistry.Get(id)
}

// GetAvailableProviders lists providers in the default registry
func GetAvailableProviders() []ProviderID {
	return DefaultRegistry.GetAvailableProviders()
}
