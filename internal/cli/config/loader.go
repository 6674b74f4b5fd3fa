package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps CLI flag names onto nested config keys.
var flagKeys = map[string]string{
	"source-type":      "source.type",
	"credential-ref":   "source.credential_ref",
	"connection-qn":    "connection.qualified_name",
	"connection-name":  "connection.name",
	"tenant-id":        "connector.tenant_id",
	"secret-store":     "secret_store.type",
	"secret-path":      "secret_store.path",
	"temporal-address": "temporal.address",
	"namespace":        "temporal.namespace",
	"task-queue":       "temporal.task_queue",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > supacatalog.yaml > supacatalog.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps SUPACATALOG_TEMPORAL__TASK_QUEUE to temporal.task_queue.
// A double underscore separates nesting levels.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	ResetConfig()
	k := koanf.New(".")

	d := Default()
	if err := k.Load(confmap.Provider(map[string]any{
		"source.type":         d.Source.Type,
		"connector.name":      d.Connector.Name,
		"connector.tenant_id": d.Connector.TenantID,
		"secret_store.type":   d.SecretStore.Type,
		"secret_store.path":   d.SecretStore.Path,
		"temporal.address":    d.Temporal.Address,
		"temporal.namespace":  d.Temporal.Namespace,
		"temporal.task_queue": d.Temporal.TaskQueue,
		"chunk_size":          d.ChunkSize,
		"verbose":             false,
		"log_format":          d.LogFormat,
		"output":              d.Output,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetCurrentConfig returns the configuration from the last LoadConfig call,
// or the defaults when nothing has been loaded.
func GetCurrentConfig() *Config {
	if currentConfig == nil {
		return Default()
	}
	return currentConfig
}

// ResetConfig forgets the loaded configuration. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnv expands ${VAR} in inline credential strings and the secret path.
func (c *Config) expandEnv() {
	c.SecretStore.Path = os.ExpandEnv(c.SecretStore.Path)
	for k, v := range c.Source.Credentials {
		if s, ok := v.(string); ok {
			c.Source.Credentials[k] = os.ExpandEnv(s)
		}
	}
}
