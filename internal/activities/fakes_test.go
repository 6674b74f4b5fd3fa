package activities

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/pkg/client"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

var testQueries = client.Queries{
	Database: "SELECT databases",
	Schema:   "SELECT schemas",
	Table:    "SELECT tables",
	Column:   "SELECT columns",
}

// fakeClient attaches a sqlmock connection on Load.
type fakeClient struct {
	client.BaseSQLClient

	mu      sync.Mutex
	db      *sql.DB
	loads   int
	creds   core.Credentials
	loadErr error
}

func (f *fakeClient) Load(_ context.Context, creds core.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	f.creds = creds
	if f.loadErr != nil {
		return f.loadErr
	}
	if f.DB != nil {
		return client.ErrAlreadyLoaded
	}
	f.DB = f.db
	return nil
}

func (f *fakeClient) Queries() client.Queries { return testQueries }

func (f *fakeClient) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

// countingStore counts credential fetches and can be told to fail.
type countingStore struct {
	inner *secretstore.MemoryStore

	mu      sync.Mutex
	fetches int
	err     error
	entered chan struct{}
	gate    chan struct{}
}

func newCountingStore(creds map[string]core.Credentials) *countingStore {
	return &countingStore{inner: secretstore.NewMemoryStore(creds)}
}

func (s *countingStore) GetCredentials(ctx context.Context, ref string) (core.Credentials, error) {
	s.mu.Lock()
	s.fetches++
	err := s.err
	entered, gate := s.entered, s.gate
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.inner.GetCredentials(ctx, ref)
}

// Block makes fetches wait until the returned gate is closed. entered
// receives once a fetch is waiting.
func (s *countingStore) Block() (entered <-chan struct{}, gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{}, 1)
	s.gate = make(chan struct{})
	return s.entered, s.gate
}

func (s *countingStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *countingStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// harness wires a StateStore to fake clients backed by one sqlmock.
type harness struct {
	mock    sqlmock.Sqlmock
	store   *countingStore
	state   *StateStore
	clients []*fakeClient
	loadErr error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		mock: mock,
		store: newCountingStore(map[string]core.Credentials{
			"cred-1": {"host": "db.example.com", "user": "postgres", "password": "secret", "port": 5432, "database": "postgres"},
		}),
	}
	factory := func(sourceType string, _ *slog.Logger) (client.SQLClient, error) {
		if sourceType == "unknown" {
			return nil, &client.UnknownClientError{Type: sourceType}
		}
		c := &fakeClient{db: db, loadErr: h.loadErr}
		h.clients = append(h.clients, c)
		return c, nil
	}
	h.state = NewStateStore(h.store, WithClientFactory(factory))
	return h
}

var errBoom = errors.New("boom")
