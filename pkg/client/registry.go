package client

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Factory creates an unloaded client.
type Factory func(*slog.Logger) SQLClient

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a client factory to the registry.
// Called by client implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Get retrieves a client factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// New creates an unloaded client of the given source type.
// A nil logger is replaced by a discard logger.
func New(sourceType string, logger *slog.Logger) (SQLClient, error) {
	if sourceType == "" {
		return nil, fmt.Errorf("source type not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	factory, ok := Get(sourceType)
	if !ok {
		return nil, &UnknownClientError{
			Type:      sourceType,
			Available: ListClients(),
		}
	}
	return factory(logger), nil
}

// ListClients returns all registered client names (sorted).
func ListClients() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a client type is registered.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownClientError is returned when an unknown client type is requested.
type UnknownClientError struct {
	Type      string
	Available []string
}

func (e *UnknownClientError) Error() string {
	return fmt.Sprintf("unknown source type %q\nAvailable clients: %v\nHint: Check source.type in supacatalog.yaml", e.Type, e.Available)
}
