package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/pkg/client"
	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/leapstack-labs/supacatalog/pkg/transformer"
)

// ErrClientNotInitialized is returned when a query activity runs without a
// loaded client. It is fatal for the activity invocation.
var ErrClientNotInitialized = errors.New("client or engine not initialized")

// ErrMissingWorkflowID is returned when state is requested without a workflow ID.
var ErrMissingWorkflowID = errors.New("workflow id is required")

// DefaultInitTimeout bounds one shared state initialization.
const DefaultInitTimeout = 2 * time.Minute

// State is the cached per-workflow context.
type State struct {
	WorkflowID  string
	Args        WorkflowArgs
	Client      client.SQLClient
	Transformer *transformer.Transformer
}

// ClientFactory builds an unloaded client for a source type.
type ClientFactory func(sourceType string, logger *slog.Logger) (client.SQLClient, error)

// StateStore caches State per workflow ID.
//
// Initialization has two phases: the base phase builds the client and
// transformer; the credential phase, when the args carry a credential
// reference, fetches the material from the secret store and loads the client.
// A failure in either phase aborts initialization and nothing is cached.
//
// The cache is local to the process. Release frees a client only on the worker
// that runs it; a worker that rebuilt the state lazily keeps its client until
// the state is released there or ReleaseAll runs at shutdown.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*State
	group  singleflight.Group

	secrets           secretstore.Store
	newClient         ClientFactory
	defaultSourceType string
	connectorName     string
	transformerOpts   []transformer.Option
	initTimeout       time.Duration
	logger            *slog.Logger
}

// StateOption configures a StateStore.
type StateOption func(*StateStore)

// WithClientFactory replaces client.New.
func WithClientFactory(f ClientFactory) StateOption {
	return func(s *StateStore) { s.newClient = f }
}

// WithDefaultSourceType sets the source type used when args carry none.
func WithDefaultSourceType(t string) StateOption {
	return func(s *StateStore) { s.defaultSourceType = t }
}

// WithConnectorName sets the connector name stamped on entities.
func WithConnectorName(name string) StateOption {
	return func(s *StateStore) { s.connectorName = name }
}

// WithTransformerOptions passes options to every per-workflow transformer,
// e.g. transformer.WithMapper to specialize a dialect.
func WithTransformerOptions(opts ...transformer.Option) StateOption {
	return func(s *StateStore) { s.transformerOpts = append(s.transformerOpts, opts...) }
}

// WithInitTimeout bounds a shared initialization, which runs detached from
// the cancellation of the caller that started it.
func WithInitTimeout(d time.Duration) StateOption {
	return func(s *StateStore) {
		if d > 0 {
			s.initTimeout = d
		}
	}
}

// WithStateLogger sets the logger.
func WithStateLogger(l *slog.Logger) StateOption {
	return func(s *StateStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStateStore creates an empty store resolving credentials from secrets.
func NewStateStore(secrets secretstore.Store, opts ...StateOption) *StateStore {
	s := &StateStore{
		states:            make(map[string]*State),
		secrets:           secrets,
		newClient:         client.New,
		defaultSourceType: "supabase",
		connectorName:     "supabase",
		initTimeout:       DefaultInitTimeout,
		logger:            slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set initializes the state for args.WorkflowID, or returns the cached one.
// Concurrent first calls for one workflow share a single initialization.
// The shared run is detached from each caller's cancellation and bounded by
// the init timeout; a cancelled caller stops waiting without failing the others.
func (s *StateStore) Set(ctx context.Context, args WorkflowArgs) (*State, error) {
	if args.WorkflowID == "" {
		return nil, ErrMissingWorkflowID
	}
	if st, ok := s.lookup(args.WorkflowID); ok {
		return st, nil
	}

	ch := s.group.DoChan(args.WorkflowID, func() (any, error) {
		if st, ok := s.lookup(args.WorkflowID); ok {
			return st, nil
		}

		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.initTimeout)
		defer cancel()
		return s.initialize(initCtx, args)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*State), nil
	}
}

// initialize runs both phases and caches the state on success.
func (s *StateStore) initialize(ctx context.Context, args WorkflowArgs) (*State, error) {
	st, err := s.base(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := s.injectCredentials(ctx, st, args); err != nil {
		if st.Client != nil {
			_ = st.Client.Close()
		}
		return nil, err
	}

	s.mu.Lock()
	s.states[args.WorkflowID] = st
	s.mu.Unlock()
	return st, nil
}

// Get returns the cached state, initializing it on first access.
func (s *StateStore) Get(ctx context.Context, args WorkflowArgs) (*State, error) {
	return s.Set(ctx, args)
}

// Ready returns the state and checks that its client and engine are present.
func (s *StateStore) Ready(ctx context.Context, args WorkflowArgs) (*State, error) {
	st, err := s.Get(ctx, args)
	if err != nil {
		return nil, err
	}
	if st.Client == nil || st.Client.Engine() == nil {
		s.logger.Error("client or engine not initialized", slog.String("workflow_id", args.WorkflowID))
		return nil, ErrClientNotInitialized
	}
	return st, nil
}

// Release closes and forgets the state for workflowID.
func (s *StateStore) Release(workflowID string) error {
	s.mu.Lock()
	st, ok := s.states[workflowID]
	delete(s.states, workflowID)
	s.mu.Unlock()

	if !ok || st.Client == nil {
		return nil
	}
	return st.Client.Close()
}

// ReleaseAll closes every cached client. Workers call it on shutdown.
func (s *StateStore) ReleaseAll() error {
	s.mu.Lock()
	states := s.states
	s.states = make(map[string]*State)
	s.mu.Unlock()

	var errs []error
	for _, st := range states {
		if st.Client != nil {
			if err := st.Client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close client for %s: %w", st.WorkflowID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of cached workflows.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *StateStore) lookup(workflowID string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[workflowID]
	return st, ok
}

// base builds the client and transformer. Inline credentials are loaded here
// only when no credential reference is present, so a client is never loaded twice.
func (s *StateStore) base(ctx context.Context, args WorkflowArgs) (*State, error) {
	sourceType := args.SourceType
	if sourceType == "" {
		sourceType = s.defaultSourceType
	}

	c, err := s.newClient(sourceType, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	opts := append([]transformer.Option{transformer.WithLogger(s.logger)}, s.transformerOpts...)
	st := &State{
		WorkflowID: args.WorkflowID,
		Args:       args,
		Client:     c,
		Transformer: transformer.New(transformer.Config{
			ConnectorName: s.connectorName,
			TenantID:      args.TenantID,
		}, opts...),
	}

	if args.CredentialRef == "" && len(args.Credentials) > 0 && c != nil {
		if err := c.Load(ctx, core.Credentials(args.Credentials)); err != nil {
			s.logger.Error("failed to load client with inline credentials", slog.String("error", err.Error()))
			_ = c.Close()
			return nil, fmt.Errorf("failed to load client: %w", err)
		}
	}
	return st, nil
}

// injectCredentials fetches credentials by reference and loads the client.
func (s *StateStore) injectCredentials(ctx context.Context, st *State, args WorkflowArgs) error {
	if args.CredentialRef == "" || st.Client == nil {
		return nil
	}
	if s.secrets == nil {
		err := fmt.Errorf("credential reference %q given but no secret store configured", args.CredentialRef)
		s.logger.Error("failed to load client with credentials", slog.String("error", err.Error()))
		return err
	}

	creds, err := s.secrets.GetCredentials(ctx, args.CredentialRef)
	if err != nil {
		s.logger.Error("failed to fetch credentials",
			slog.String("credential_guid", args.CredentialRef),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to fetch credentials: %w", err)
	}

	if err := st.Client.Load(ctx, creds); err != nil {
		s.logger.Error("failed to load client with credentials", slog.String("error", err.Error()))
		return fmt.Errorf("failed to load client with credentials: %w", err)
	}

	s.logger.Info("client loaded with credentials", slog.String("workflow_id", args.WorkflowID))
	return nil
}
