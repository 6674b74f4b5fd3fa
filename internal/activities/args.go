// Package activities implements the metadata extraction activities: per-workflow
// client state with credential injection, and one fetch activity per entity
// variant that runs the source query and transforms every row.
package activities

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// WorkflowArgs are the decoded workflow arguments every activity receives.
type WorkflowArgs struct {
	WorkflowID    string         `mapstructure:"workflow_id"`
	WorkflowRunID string         `mapstructure:"workflow_run_id"`
	CredentialRef string         `mapstructure:"credential_guid"`
	Credentials   map[string]any `mapstructure:"credentials"`
	SourceType    string         `mapstructure:"source_type"`
	TenantID      string         `mapstructure:"tenant_id"`
	Connection    Connection     `mapstructure:"connection"`
	ChunkSize     int            `mapstructure:"chunk_size"`
}

// Connection identifies the catalog connection entities are attached to.
type Connection struct {
	QualifiedName string `mapstructure:"connection_qualified_name"`
	Name          string `mapstructure:"connection_name"`
}

// DecodeArgs decodes raw workflow arguments. Unknown keys are ignored and
// scalars are converted (numbers arrive as float64 after JSON transport).
func DecodeArgs(raw map[string]any) (WorkflowArgs, error) {
	var args WorkflowArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return args, fmt.Errorf("failed to build args decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return args, fmt.Errorf("invalid workflow args: %w", err)
	}
	return args, nil
}

// Map renders the args back into the raw form activities are invoked with.
func (a WorkflowArgs) Map() map[string]any {
	m := map[string]any{
		"workflow_id":     a.WorkflowID,
		"workflow_run_id": a.WorkflowRunID,
		"source_type":     a.SourceType,
		"tenant_id":       a.TenantID,
		"connection": map[string]any{
			"connection_qualified_name": a.Connection.QualifiedName,
			"connection_name":           a.Connection.Name,
		},
	}
	if a.CredentialRef != "" {
		m["credential_guid"] = a.CredentialRef
	}
	if len(a.Credentials) > 0 {
		m["credentials"] = a.Credentials
	}
	if a.ChunkSize > 0 {
		m["chunk_size"] = a.ChunkSize
	}
	return m
}

// Provenance returns the per-call provenance for the transformer.
func (a WorkflowArgs) Provenance() core.Provenance {
	return core.Provenance{
		WorkflowID:              a.WorkflowID,
		WorkflowRunID:           a.WorkflowRunID,
		ConnectionQualifiedName: a.Connection.QualifiedName,
		ConnectionName:          a.Connection.Name,
	}
}
