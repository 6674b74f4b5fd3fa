package transformer

import "github.com/leapstack-labs/supacatalog/pkg/core"

// Enrich returns the provenance attributes merged into every entity.
// It is a pure function of its inputs and carries no timestamps, so
// re-extracting the same row yields identical output.
func Enrich(cfg Config, p core.Provenance) core.AttributeSet {
	attrs := core.Attributes{
		"workflowId":           p.WorkflowID,
		"workflowRunId":        p.WorkflowRunID,
		"lastSyncWorkflowName": p.WorkflowID,
		"lastSyncRun":          p.WorkflowRunID,
		"tenantId":             cfg.TenantID,
		"connectorName":        cfg.ConnectorName,
	}
	if p.ConnectionName != "" {
		attrs["connectionName"] = p.ConnectionName
	}
	if p.ConnectionQualifiedName != "" {
		attrs["connectionQualifiedName"] = p.ConnectionQualifiedName
	}

	return core.AttributeSet{
		Attributes: attrs,
		CustomAttributes: core.Attributes{
			"extractionWorkflowId": p.WorkflowID,
			"extractionRunId":      p.WorkflowRunID,
		},
	}
}
