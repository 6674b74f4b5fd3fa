// Package config provides configuration management for the supacatalog CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	Source      SourceConfig      `koanf:"source"`
	Connection  ConnectionConfig  `koanf:"connection"`
	Connector   ConnectorConfig   `koanf:"connector"`
	SecretStore SecretStoreConfig `koanf:"secret_store"`
	Temporal    TemporalConfig    `koanf:"temporal"`
	ChunkSize   int               `koanf:"chunk_size"`
	Verbose     bool              `koanf:"verbose"`
	LogFormat   string            `koanf:"log_format"`
	Output      string            `koanf:"output"`
}

// SourceConfig selects the source client and its credentials.
// Credentials are either inline or referenced in the secret store.
type SourceConfig struct {
	Type          string         `koanf:"type"`
	CredentialRef string         `koanf:"credential_ref"`
	Credentials   map[string]any `koanf:"credentials"`
}

// ConnectionConfig identifies the catalog connection entities belong to.
type ConnectionConfig struct {
	QualifiedName string `koanf:"qualified_name"`
	Name          string `koanf:"name"`
}

// ConnectorConfig holds the connector-level provenance stamped on entities.
type ConnectorConfig struct {
	Name     string `koanf:"name"`
	TenantID string `koanf:"tenant_id"`
}

// SecretStoreConfig selects the credential store backend.
type SecretStoreConfig struct {
	Type string `koanf:"type"` // file, sqlite, memory
	Path string `koanf:"path"`
}

// TemporalConfig holds the worker connection settings.
type TemporalConfig struct {
	Address   string `koanf:"address"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// Default configuration values.
const (
	ConfigFileName    = "supacatalog.yaml"
	ConfigFileNameAlt = "supacatalog.yml"
	EnvPrefix         = "SUPACATALOG_"

	DefaultSourceType      = "supabase"
	DefaultConnectorName   = "supabase"
	DefaultTenantID        = "default"
	DefaultSecretStoreType = "file"
	DefaultSecretStorePath = ".supacatalog/credentials.yaml"
	DefaultTemporalAddress = "localhost:7233"
	DefaultTemporalNS      = "default"
	DefaultTaskQueue       = "supacatalog-metadata"
	DefaultChunkSize       = 500
	DefaultLogFormat       = "text"
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=json
)

// Output modes accepted by --output.
var outputModes = []string{"auto", "text", "json"}

// Default returns a Config carrying only default values.
func Default() *Config {
	return &Config{
		Source:      SourceConfig{Type: DefaultSourceType},
		Connector:   ConnectorConfig{Name: DefaultConnectorName, TenantID: DefaultTenantID},
		SecretStore: SecretStoreConfig{Type: DefaultSecretStoreType, Path: DefaultSecretStorePath},
		Temporal: TemporalConfig{
			Address:   DefaultTemporalAddress,
			Namespace: DefaultTemporalNS,
			TaskQueue: DefaultTaskQueue,
		},
		ChunkSize: DefaultChunkSize,
		LogFormat: DefaultLogFormat,
		Output:    DefaultOutput,
	}
}

// WorkflowArgs renders the config as raw workflow arguments.
func (c *Config) WorkflowArgs() map[string]any {
	args := map[string]any{
		"source_type": c.Source.Type,
		"tenant_id":   c.Connector.TenantID,
		"chunk_size":  c.ChunkSize,
		"connection": map[string]any{
			"connection_qualified_name": c.Connection.QualifiedName,
			"connection_name":           c.Connection.Name,
		},
	}
	if c.Source.CredentialRef != "" {
		args["credential_guid"] = c.Source.CredentialRef
	}
	if len(c.Source.Credentials) > 0 {
		args["credentials"] = c.Source.Credentials
	}
	return args
}
