package temporal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/leapstack-labs/supacatalog/internal/activities"
)

func newTestEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *activities.Activities) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	acts := activities.New(activities.NewStateStore(nil), activities.NewMemoryWriter())
	env.RegisterWorkflowWithOptions(ExtractMetadataWorkflowFunc, workflow.RegisterOptions{Name: ExtractMetadataWorkflow})
	env.RegisterActivity(acts)
	return env, acts
}

func stampedArgs(raw map[string]any) bool {
	id, _ := raw["workflow_id"].(string)
	run, _ := raw["workflow_run_id"].(string)
	return id != "" && run != "" && raw["credential_guid"] == "cred-1"
}

func TestExtractMetadataWorkflow(t *testing.T) {
	env, acts := newTestEnv(t)

	env.OnActivity(acts.SetState, mock.Anything, mock.MatchedBy(stampedArgs)).Return(nil).Once()
	env.OnActivity(acts.FetchDatabases, mock.Anything, mock.Anything).
		Return(&activities.Statistics{TypeName: "database", RowCount: 1, TotalRecordCount: 1, ChunkCount: 1}, nil)
	env.OnActivity(acts.FetchSchemas, mock.Anything, mock.Anything).
		Return(&activities.Statistics{TypeName: "schema", RowCount: 3, TotalRecordCount: 3, ChunkCount: 1}, nil)
	env.OnActivity(acts.FetchTables, mock.Anything, mock.Anything).
		Return(&activities.Statistics{TypeName: "table", RowCount: 5, TotalRecordCount: 4, FailedCount: 1, ChunkCount: 1}, nil)
	env.OnActivity(acts.FetchColumns, mock.Anything, mock.Anything).
		Return(&activities.Statistics{TypeName: "column", RowCount: 20, TotalRecordCount: 20, ChunkCount: 1}, nil)
	env.OnActivity(acts.ReleaseState, mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(ExtractMetadataWorkflow, map[string]any{
		"credential_guid": "cred-1",
		"connection": map[string]any{
			"connection_qualified_name": "default/supabase/1700000000",
		},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Len(t, result.Statistics, 4)
	assert.Equal(t, "database", result.Statistics[0].TypeName)
	assert.Equal(t, "column", result.Statistics[3].TypeName)
	assert.Equal(t, 28, result.Total())
	assert.NotEmpty(t, result.WorkflowID)

	env.AssertExpectations(t)
}

func TestExtractMetadataWorkflow_SetStateFails(t *testing.T) {
	env, acts := newTestEnv(t)

	env.OnActivity(acts.SetState, mock.Anything, mock.Anything).
		Return(temporal.NewNonRetryableApplicationError("bad credentials", "CREDENTIALS", errors.New("denied")))
	env.OnActivity(acts.ReleaseState, mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(ExtractMetadataWorkflow, map[string]any{"credential_guid": "cred-1"})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")

	env.AssertNotCalled(t, "FetchDatabases", mock.Anything, mock.Anything)
	env.AssertExpectations(t)
}

func TestExtractMetadataWorkflow_FetchFailureReleasesState(t *testing.T) {
	env, acts := newTestEnv(t)

	ok := &activities.Statistics{TypeName: "ok"}
	env.OnActivity(acts.SetState, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.FetchDatabases, mock.Anything, mock.Anything).Return(ok, nil)
	env.OnActivity(acts.FetchSchemas, mock.Anything, mock.Anything).Return(ok, nil)
	env.OnActivity(acts.FetchTables, mock.Anything, mock.Anything).Return(ok, nil)
	env.OnActivity(acts.FetchColumns, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("query failed", "QUERY", nil))
	env.OnActivity(acts.ReleaseState, mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(ExtractMetadataWorkflow, map[string]any{})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestExtractionResult_Total(t *testing.T) {
	r := &ExtractionResult{Statistics: []*activities.Statistics{
		{TotalRecordCount: 2},
		nil,
		{TotalRecordCount: 5},
	}}
	assert.Equal(t, 7, r.Total())
}
