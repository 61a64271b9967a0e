package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ProviderConfig collects the raw settings of every payment provider.
// Values come from the SQLite store and from the environment; environment values win.
type ProviderConfig struct {
	configs map[string]map[string]string
	storage *SQLiteStorage
	mu      sync.RWMutex
}

// NewProviderConfig creates an empty, memory-only provider configuration
func NewProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		configs: make(map[string]map[string]string),
	}
}

// AttachStorage loads stored settings and persists later SetConfig calls.
// Keys already present in memory are kept.
func (c *ProviderConfig) AttachStorage(storage *SQLiteStorage) error {
	if storage == nil {
		return fmt.Errorf("storage cannot be nil")
	}

	stored, err := storage.LoadAllProviderConfigs()
	if err != nil {
		return fmt.Errorf("failed to load configs from SQLite: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage = storage
	for name, values := range stored {
		current, ok := c.configs[name]
		if !ok {
			current = make(map[string]string, len(values))
			c.configs[name] = current
		}
		for k, v := range values {
			if _, exists := current[k]; !exists {
				current[k] = v
			}
		}
	}
	return nil
}

// LoadFromEnv reads variables prefixed with each provider's upper-cased name,
// e.g. ESEWA_MERCHANT_ID becomes esewa.merchantId.
func (c *ProviderConfig) LoadFromEnv(providers ...string) {
	c.loadFromEnviron(os.Environ(), providers)
}

func (c *ProviderConfig) loadFromEnviron(environ []string, providers []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range providers {
		prefix := strings.ToUpper(name) + "_"
		for _, kv := range environ {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(key, prefix) || value == "" {
				continue
			}
			field := EnvKeyToField(strings.TrimPrefix(key, prefix))
			if field == "" {
				continue
			}
			if c.configs[name] == nil {
				c.configs[name] = make(map[string]string)
			}
			c.configs[name][field] = value
		}
	}
}

// EnvKeyToField converts MERCHANT_ID to merchantId
func EnvKeyToField(key string) string {
	parts := strings.Split(strings.ToLower(key), "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// SetConfig replaces the settings of a provider, persisting them when storage is attached
func (c *ProviderConfig) SetConfig(providerName string, config map[string]string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if len(config) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveProviderConfig(providerName, config); err != nil {
			return fmt.Errorf("failed to save config to SQLite: %w", err)
		}
	}

	c.configs[providerName] = copyMap(config)
	return nil
}

// GetConfig returns a copy of the settings of a provider
func (c *ProviderConfig) GetConfig(providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, exists := c.configs[providerName]
	if !exists {
		return nil, fmt.Errorf("no configuration found for provider: %s", providerName)
	}
	return copyMap(config), nil
}

// DeleteConfig removes a provider's settings from memory and storage
func (c *ProviderConfig) DeleteConfig(providerName string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.DeleteProviderConfig(providerName); err != nil {
			return fmt.Errorf("failed to delete config from SQLite: %w", err)
		}
	}

	delete(c.configs, providerName)
	return nil
}

// GetAvailableProviders returns the configured provider names in sorted order
func (c *ProviderConfig) GetAvailableProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers := make([]string, 0, len(c.configs))
	for name := range c.configs {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// All returns a copy of every provider's settings
func (c *ProviderConfig) All() map[string]map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]string, len(c.configs))
	for name, values := range c.configs {
		out[name] = copyMap(values)
	}
	return out
}

// GetStats returns configuration and storage statistics
func (c *ProviderConfig) GetStats() (map[string]any, error) {
	stats := make(map[string]any)

	c.mu.RLock()
	stats["memory_configs"] = len(c.configs)
	storage := c.storage
	c.mu.RUnlock()

	if storage == nil {
		stats["sqlite"] = "not_available"
		return stats, nil
	}

	sqliteStats, err := storage.GetStats()
	if err != nil {
		stats["sqlite_error"] = err.Error()
	} else {
		stats["sqlite"] = sqliteStats
	}
	return stats, nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
