package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/supacatalog/internal/activities"
	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/internal/temporal"
)

// WorkerOptions holds options for the worker command.
type WorkerOptions struct {
	OutDir string
}

// NewWorkerCommand creates the worker command.
func NewWorkerCommand() *cobra.Command {
	opts := &WorkerOptions{}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a Temporal worker for metadata extraction",
		Long: `Start a Temporal worker that serves the extraction workflow and its
activities on the configured task queue. Workflows pass credentials by
reference (credential_guid); the worker resolves them from the secret store.

The worker runs until interrupted.`,
		Example: `  supacatalog worker --temporal-address temporal:7233 --task-queue metadata`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out", "output/raw", "Directory for <variant>.jsonl files")

	return cmd
}

func runWorker(cmd *cobra.Command, opts *WorkerOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateTemporal(); err != nil {
		return err
	}

	store, err := cc.openSecretStore(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = secretstore.Close(store) }()

	writer, err := activities.NewDirWriter(opts.OutDir)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	c, err := temporal.Dial(temporal.Options{
		Address:   cc.Cfg.Temporal.Address,
		Namespace: cc.Cfg.Temporal.Namespace,
		Logger:    cc.Logger,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	actOpts := append(temporal.ActivityOptions(),
		activities.WithChunkSize(cc.Cfg.ChunkSize),
		activities.WithLogger(cc.Logger),
	)
	state := cc.newStateStore(store)
	defer func() {
		if err := state.ReleaseAll(); err != nil {
			cc.Logger.Warn("failed to release workflow state", slog.String("error", err.Error()))
		}
	}()
	acts := activities.New(state, writer, actOpts...)

	w := temporal.NewWorker(c, cc.Cfg.Temporal.TaskQueue, acts)
	cc.Logger.Info("temporal worker started",
		slog.String("task_queue", cc.Cfg.Temporal.TaskQueue),
		slog.String("namespace", cc.Cfg.Temporal.Namespace),
	)
	return temporal.Run(w)
}
