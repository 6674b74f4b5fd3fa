package secretstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
credentials:
  supabase-prod:
    host: db.abc.supabase.co
    port: 5432
    user: postgres
    password: ${TEST_SUPACATALOG_PASSWORD}
    database: postgres
    extra:
      sslmode: verify-full
`

func TestFileStore(t *testing.T) {
	t.Setenv("TEST_SUPACATALOG_PASSWORD", "from-env")

	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	store, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Refs())

	creds, err := store.GetCredentials(context.Background(), "supabase-prod")
	require.NoError(t, err)
	assert.Equal(t, "db.abc.supabase.co", creds["host"])
	assert.Equal(t, 5432, creds["port"])
	assert.Equal(t, "from-env", creds["password"])
	assert.Equal(t, map[string]any{"sslmode": "verify-full"}, creds["extra"])

	_, err = store.GetCredentials(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_InvalidYAML(t *testing.T) {
	_, err := ParseFile("bad.yaml", []byte("credentials: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "secrets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(store) })

	s := store.(*SQLiteStore)

	require.NoError(t, s.Put(ctx, "b-ref", core.Credentials{"user": "u", "port": 6543}))
	require.NoError(t, s.Put(ctx, "a-ref", core.Credentials{"user": "first"}))
	require.NoError(t, s.Put(ctx, "a-ref", core.Credentials{"user": "second"}))

	creds, err := s.GetCredentials(ctx, "a-ref")
	require.NoError(t, err)
	assert.Equal(t, "second", creds["user"])

	creds, err = s.GetCredentials(ctx, "b-ref")
	require.NoError(t, err)
	assert.Equal(t, float64(6543), creds["port"], "JSON round trip yields float64 numbers")

	refs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-ref", "b-ref"}, refs)

	require.NoError(t, s.Delete(ctx, "a-ref"))
	_, err = s.GetCredentials(ctx, "a-ref")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a-ref"), ErrNotFound)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := NewSQLiteStore()
	_, err := s.GetCredentials(context.Background(), "x")
	assert.EqualError(t, err, "database not opened")
	assert.EqualError(t, s.Migrate(), "database not opened")
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore(map[string]core.Credentials{"ref": {"user": "u"}})

	creds, err := m.GetCredentials(context.Background(), "ref")
	require.NoError(t, err)
	creds["user"] = "mutated"

	again, err := m.GetCredentials(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "u", again["user"], "callers receive copies")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.GetCredentials(ctx, "ref")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Kinds(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, "file", "")
	assert.Error(t, err)

	_, err = Open(ctx, "vault", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown secret store type")
}
