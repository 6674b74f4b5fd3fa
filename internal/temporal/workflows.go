// Package temporal binds the extraction activities to a Temporal workflow
// and worker.
package temporal

import (
	"maps"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leapstack-labs/supacatalog/internal/activities"
)

// ExtractMetadataWorkflow is the registered workflow name.
const ExtractMetadataWorkflow = "extractMetadataWorkflow"

// Activity names, matching the exported methods of activities.Activities.
const (
	SetStateActivity         = "SetState"
	FetchDatabasesActivity   = "FetchDatabases"
	FetchSchemasActivity     = "FetchSchemas"
	FetchTablesActivity      = "FetchTables"
	FetchColumnsActivity     = "FetchColumns"
	CheckCredentialsActivity = "CheckCredentials"
	ReleaseStateActivity     = "ReleaseState"
)

// fetchActivities run in parallel once state is set.
var fetchActivities = []string{
	FetchDatabasesActivity,
	FetchSchemasActivity,
	FetchTablesActivity,
	FetchColumnsActivity,
}

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Hour,
	HeartbeatTimeout:    2 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	},
}

var releaseActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		MaximumAttempts: 1,
	},
}

// ExtractionResult is the workflow output.
type ExtractionResult struct {
	WorkflowID string                   `json:"workflowId"`
	RunID      string                   `json:"runId"`
	Statistics []*activities.Statistics `json:"statistics"`
}

// Total returns the number of entities written across all variants.
func (r *ExtractionResult) Total() int {
	n := 0
	for _, s := range r.Statistics {
		if s != nil {
			n += s.TotalRecordCount
		}
	}
	return n
}

// ExtractMetadataWorkflowFunc sets per-workflow state, runs every fetch
// activity and always releases the state afterwards.
func ExtractMetadataWorkflowFunc(ctx workflow.Context, args map[string]any) (*ExtractionResult, error) {
	logger := workflow.GetLogger(ctx)
	info := workflow.GetInfo(ctx)

	wargs := maps.Clone(args)
	if wargs == nil {
		wargs = make(map[string]any)
	}
	wargs["workflow_id"] = info.WorkflowExecution.ID
	wargs["workflow_run_id"] = info.WorkflowExecution.RunID

	result := &ExtractionResult{
		WorkflowID: info.WorkflowExecution.ID,
		RunID:      info.WorkflowExecution.RunID,
	}

	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	defer func() {
		relCtx, _ := workflow.NewDisconnectedContext(ctx)
		relCtx = workflow.WithActivityOptions(relCtx, releaseActivityOptions)
		if err := workflow.ExecuteActivity(relCtx, ReleaseStateActivity, wargs).Get(relCtx, nil); err != nil {
			logger.Warn("failed to release state", "error", err)
		}
	}()

	if err := workflow.ExecuteActivity(actCtx, SetStateActivity, wargs).Get(actCtx, nil); err != nil {
		return nil, err
	}

	futures := make([]workflow.Future, len(fetchActivities))
	for i, name := range fetchActivities {
		futures[i] = workflow.ExecuteActivity(actCtx, name, wargs)
	}

	for i, f := range futures {
		var stats activities.Statistics
		if err := f.Get(actCtx, &stats); err != nil {
			logger.Error("fetch activity failed", "activity", fetchActivities[i], "error", err)
			return nil, err
		}
		result.Statistics = append(result.Statistics, &stats)
	}

	logger.Info("metadata extraction completed", "entities", result.Total())
	return result, nil
}
