package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/leapstack-labs/supacatalog/pkg/transformer"
)

// DefaultChunkSize is the number of entities handed to the writer at once.
const DefaultChunkSize = 500

// HeartbeatFunc reports activity progress to the orchestrator.
type HeartbeatFunc func(ctx context.Context, details ...any)

// ExecutionInfoFunc returns the workflow and run IDs of the running activity.
type ExecutionInfoFunc func(ctx context.Context) (workflowID, runID string)

// Activities bundles the extraction activities. Register the struct with a
// worker to expose every exported method.
type Activities struct {
	state     *StateStore
	secrets   secretstore.Store
	writer    EntityWriter
	heartbeat HeartbeatFunc
	execInfo  ExecutionInfoFunc
	chunkSize int
	logger    *slog.Logger
}

// Option configures Activities.
type Option func(*Activities)

// WithHeartbeat sets the progress hook, called after every written chunk.
func WithHeartbeat(h HeartbeatFunc) Option {
	return func(a *Activities) { a.heartbeat = h }
}

// WithExecutionInfo sets the fallback source of workflow IDs for args that
// carry none.
func WithExecutionInfo(f ExecutionInfoFunc) Option {
	return func(a *Activities) { a.execInfo = f }
}

// WithChunkSize sets the default chunk size.
func WithChunkSize(n int) Option {
	return func(a *Activities) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithSecretStore sets the store CheckCredentials reads from.
func WithSecretStore(s secretstore.Store) Option {
	return func(a *Activities) { a.secrets = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Activities) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates the activity set. A nil state gets a store with no secret store,
// which resolves only inline credentials.
func New(state *StateStore, writer EntityWriter, opts ...Option) *Activities {
	if state == nil {
		state = NewStateStore(nil)
	}
	a := &Activities{
		state:     state,
		writer:    writer,
		chunkSize: DefaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
		secrets:   state.secrets,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetState initializes the per-workflow state, loading credentials once.
func (a *Activities) SetState(ctx context.Context, raw map[string]any) error {
	args, err := a.args(ctx, raw)
	if err != nil {
		return err
	}
	_, err = a.state.Set(ctx, args)
	return err
}

// FetchDatabases extracts and transforms database entities.
func (a *Activities) FetchDatabases(ctx context.Context, raw map[string]any) (*Statistics, error) {
	return a.fetch(ctx, raw, core.VariantDatabase)
}

// FetchSchemas extracts and transforms schema entities.
func (a *Activities) FetchSchemas(ctx context.Context, raw map[string]any) (*Statistics, error) {
	return a.fetch(ctx, raw, core.VariantSchema)
}

// FetchTables extracts and transforms table and view entities.
func (a *Activities) FetchTables(ctx context.Context, raw map[string]any) (*Statistics, error) {
	return a.fetch(ctx, raw, core.VariantTable)
}

// FetchColumns extracts and transforms column entities.
func (a *Activities) FetchColumns(ctx context.Context, raw map[string]any) (*Statistics, error) {
	return a.fetch(ctx, raw, core.VariantColumn)
}

// Fetch runs the fetch activity for variant.
func (a *Activities) Fetch(ctx context.Context, raw map[string]any, variant core.EntityVariant) (*Statistics, error) {
	v, err := core.ParseVariant(string(variant))
	if err != nil {
		return nil, err
	}
	return a.fetch(ctx, raw, v)
}

// CheckCredentials verifies that referenced credentials exist and open a
// working connection. The probe client is closed and never cached.
func (a *Activities) CheckCredentials(ctx context.Context, raw map[string]any) error {
	args, err := a.args(ctx, raw)
	if err != nil {
		return err
	}

	creds := core.Credentials(args.Credentials)
	if args.CredentialRef != "" {
		if a.secrets == nil {
			return errors.New("no secret store configured")
		}
		creds, err = a.secrets.GetCredentials(ctx, args.CredentialRef)
		if err != nil {
			return fmt.Errorf("failed to fetch credentials: %w", err)
		}
	}
	if len(creds) == 0 {
		return errors.New("no credentials provided")
	}

	sourceType := args.SourceType
	if sourceType == "" {
		sourceType = a.state.defaultSourceType
	}
	c, err := a.state.newClient(sourceType, a.logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Load(ctx, creds); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	a.logger.Info("credentials verified", slog.String("source_type", sourceType))
	return nil
}

// ReleaseState drops the cached state of the calling workflow.
func (a *Activities) ReleaseState(ctx context.Context, raw map[string]any) error {
	args, err := a.args(ctx, raw)
	if err != nil {
		return err
	}
	return a.state.Release(args.WorkflowID)
}

func (a *Activities) args(ctx context.Context, raw map[string]any) (WorkflowArgs, error) {
	args, err := DecodeArgs(raw)
	if err != nil {
		return args, err
	}
	if a.execInfo != nil && (args.WorkflowID == "" || args.WorkflowRunID == "") {
		wid, rid := a.execInfo(ctx)
		if args.WorkflowID == "" {
			args.WorkflowID = wid
		}
		if args.WorkflowRunID == "" {
			args.WorkflowRunID = rid
		}
	}
	return args, nil
}

func (a *Activities) fetch(ctx context.Context, raw map[string]any, variant core.EntityVariant) (*Statistics, error) {
	args, err := a.args(ctx, raw)
	if err != nil {
		return nil, err
	}

	st, err := a.state.Ready(ctx, args)
	if err != nil {
		return nil, err
	}

	query, ok := st.Client.Queries().For(variant)
	if !ok {
		return nil, fmt.Errorf("no %s query for source %q", variant.Lower(), args.SourceType)
	}

	chunkSize := a.chunkSize
	if args.ChunkSize > 0 {
		chunkSize = args.ChunkSize
	}

	logger := a.logger.With(
		slog.String("workflow_id", args.WorkflowID),
		slog.String("typename", variant.Lower()),
	)
	prov := args.Provenance()

	var (
		summary transformer.BatchSummary
		chunk   = make([]*core.Entity, 0, chunkSize)
		chunks  int
	)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := a.writer.Write(ctx, variant, chunk); err != nil {
			return fmt.Errorf("failed to write %s chunk %d: %w", variant.Lower(), chunks, err)
		}
		chunks++
		if a.heartbeat != nil {
			a.heartbeat(ctx, variant.Lower(), chunks, summary.Transformed)
		}
		chunk = make([]*core.Entity, 0, chunkSize)
		return nil
	}

	err = st.Client.QueryRows(ctx, query, func(row core.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := st.Transformer.Transform(variant.String(), row, prov)
		summary.Add(res)
		if !res.OK() {
			return nil
		}
		chunk = append(chunk, res.Entity)
		if len(chunk) >= chunkSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to fetch entities", slog.String("error", err.Error()))
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	stats := newStatistics(variant, summary, chunks)
	logger.Info("fetched entities",
		slog.Int("rows", stats.RowCount),
		slog.Int("records", stats.TotalRecordCount),
		slog.Int("dropped", stats.Dropped()),
		slog.Int("chunks", stats.ChunkCount),
	)
	return stats, nil
}
