package temporal

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/leapstack-labs/supacatalog/internal/activities"
)

// Options configures the Temporal connection.
type Options struct {
	Address   string
	Namespace string
	TaskQueue string
	Logger    *slog.Logger
}

// Dial connects to the Temporal frontend.
func Dial(opts Options) (client.Client, error) {
	co := client.Options{
		HostPort:  opts.Address,
		Namespace: opts.Namespace,
	}
	if opts.Logger != nil {
		co.Logger = sdklog.NewStructuredLogger(opts.Logger)
	}
	return client.Dial(co)
}

// ActivityOptions wires the activity heartbeat and execution info to the
// Temporal activity context.
func ActivityOptions() []activities.Option {
	return []activities.Option{
		activities.WithHeartbeat(activity.RecordHeartbeat),
		activities.WithExecutionInfo(func(ctx context.Context) (string, string) {
			info := activity.GetInfo(ctx)
			return info.WorkflowExecution.ID, info.WorkflowExecution.RunID
		}),
	}
}

// Register adds the workflow and every activity method to r.
func Register(r worker.Registry, acts *activities.Activities) {
	r.RegisterWorkflowWithOptions(ExtractMetadataWorkflowFunc, workflow.RegisterOptions{Name: ExtractMetadataWorkflow})
	r.RegisterActivity(acts)
}

// NewWorker creates a worker on taskQueue with the workflow and activities
// registered.
func NewWorker(c client.Client, taskQueue string, acts *activities.Activities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	Register(w, acts)
	return w
}

// Run blocks until the worker stops or an interrupt signal arrives.
func Run(w worker.Worker) error {
	return w.Run(worker.InterruptCh())
}
