package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/supacatalog/pkg/client"
)

// Validate checks if the configuration is valid.
// The client registry is the single source of truth for source types.
func (c *Config) Validate() error {
	if c.Source.Type == "" {
		return fmt.Errorf("source type is required")
	}
	if !client.IsRegistered(c.Source.Type) {
		return &client.UnknownClientError{
			Type:      c.Source.Type,
			Available: client.ListClients(),
		}
	}

	switch strings.ToLower(c.SecretStore.Type) {
	case "file", "yaml", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown secret store type %q (want file, sqlite or memory)", c.SecretStore.Type)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if !slices.Contains(outputModes, c.Output) {
		return fmt.Errorf("unknown output format %q (want %s)", c.Output, strings.Join(outputModes, ", "))
	}
	return nil
}

// ValidateTemporal checks the settings the worker needs.
func (c *Config) ValidateTemporal() error {
	if c.Temporal.Address == "" {
		return fmt.Errorf("temporal address is required\nHint: set temporal.address or --temporal-address")
	}
	if c.Temporal.TaskQueue == "" {
		return fmt.Errorf("temporal task queue is required")
	}
	return nil
}
