package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/leapstack-labs/supacatalog/internal/cli/output"
	"github.com/leapstack-labs/supacatalog/internal/temporal"
)

// SubmitOptions holds options for the submit command.
type SubmitOptions struct {
	WorkflowID string
	Wait       bool
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand() *cobra.Command {
	opts := &SubmitOptions{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Start an extraction workflow on Temporal",
		Long: `Start the extraction workflow with arguments built from the config.
Use --wait to block until the workflow finishes and print its statistics.`,
		Example: `  supacatalog submit --credential-ref prod-db --wait`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.WorkflowID, "workflow-id", "", "Workflow ID (default: generated)")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "Wait for the workflow result")

	return cmd
}

func runSubmit(cmd *cobra.Command, opts *SubmitOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateTemporal(); err != nil {
		return err
	}
	if cc.Cfg.Source.CredentialRef == "" {
		cc.Renderer.Warning("no credential reference set; inline credentials will be sent in workflow history")
	}

	c, err := temporal.Dial(temporal.Options{
		Address:   cc.Cfg.Temporal.Address,
		Namespace: cc.Cfg.Temporal.Namespace,
		Logger:    cc.Logger,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	id := opts.WorkflowID
	if id == "" {
		id = "supacatalog-" + uuid.NewString()
	}

	ctx := cmd.Context()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: cc.Cfg.Temporal.TaskQueue,
	}, temporal.ExtractMetadataWorkflow, cc.Cfg.WorkflowArgs())
	if err != nil {
		return fmt.Errorf("failed to start workflow: %w", err)
	}

	if !opts.Wait {
		if cc.Renderer.Mode() == output.ModeJSON {
			return cc.Renderer.JSON(map[string]string{"workflowId": run.GetID(), "runId": run.GetRunID()})
		}
		cc.Renderer.Success("Started workflow %s (run %s)", run.GetID(), run.GetRunID())
		return nil
	}

	var result temporal.ExtractionResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}
	renderExtractReport(cc.Renderer, &ExtractReport{
		WorkflowID: result.WorkflowID,
		RunID:      result.RunID,
		OutDir:     "worker output",
		Statistics: result.Statistics,
	})
	return nil
}
