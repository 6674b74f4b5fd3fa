package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/supacatalog/internal/testutil"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

func testArgs() map[string]any {
	return map[string]any{
		"workflow_id":     "wf-1",
		"workflow_run_id": "run-1",
		"credential_guid": "cred-1",
		"tenant_id":       "default",
		"connection": map[string]any{
			"connection_qualified_name": "default/supabase/1700000000",
			"connection_name":           "supabase-prod",
		},
	}
}

func TestDecodeArgs(t *testing.T) {
	raw := testArgs()
	raw["chunk_size"] = float64(250)
	raw["unexpected"] = true

	args, err := DecodeArgs(raw)
	require.NoError(t, err)

	assert.Equal(t, "wf-1", args.WorkflowID)
	assert.Equal(t, "run-1", args.WorkflowRunID)
	assert.Equal(t, "cred-1", args.CredentialRef)
	assert.Equal(t, 250, args.ChunkSize)
	assert.Equal(t, core.Provenance{
		WorkflowID:              "wf-1",
		WorkflowRunID:           "run-1",
		ConnectionQualifiedName: "default/supabase/1700000000",
		ConnectionName:          "supabase-prod",
	}, args.Provenance())

	again, err := DecodeArgs(args.Map())
	require.NoError(t, err)
	assert.Equal(t, args, again)
}

func TestDecodeArgs_Invalid(t *testing.T) {
	_, err := DecodeArgs(map[string]any{"connection": "not-a-map"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workflow args")
}

func TestFetchTables_ChunksAndStatistics(t *testing.T) {
	h := newHarness(t)
	writer := NewMemoryWriter()
	var beats []int
	acts := New(h.state, writer,
		WithChunkSize(2),
		WithLogger(testutil.NewTestLogger(t)),
		WithHeartbeat(func(_ context.Context, details ...any) {
			beats = append(beats, details[1].(int))
		}),
	)

	h.mock.ExpectQuery("SELECT tables").WillReturnRows(
		sqlmock.NewRows([]string{"table_catalog", "table_schema", "table_name", "table_type", "has_row_level_security"}).
			AddRow("postgres", "public", "orders", "BASE TABLE", true).
			AddRow("postgres", "public", "users", "BASE TABLE", false).
			AddRow("postgres", "auth", "sessions", "VIEW", []byte("false")),
	)

	stats, err := acts.FetchTables(context.Background(), testArgs())
	require.NoError(t, err)

	assert.Equal(t, &Statistics{
		TypeName:         "table",
		RowCount:         3,
		TotalRecordCount: 3,
		ChunkCount:       2,
	}, stats)
	assert.Equal(t, []int{1, 2}, beats)

	tables := writer.Entities(core.VariantTable)
	require.Len(t, tables, 3)
	assert.Equal(t, "default/supabase/1700000000/postgres/public/orders", tables[0].QualifiedName())
	assert.Equal(t, "wf-1", tables[0].Attributes["workflowId"])
	assert.Equal(t, "supabase-prod", tables[0].Attributes["connectionName"])
	assert.Equal(t, "VIEW", tables[2].CustomAttributes["tableType"])
	assert.Equal(t, 2, writer.Chunks())
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestFetchColumns_IsolatesBadRows(t *testing.T) {
	h := newHarness(t)
	logger, rec := testutil.NewRecorder()
	writer := NewMemoryWriter()
	h.state = NewStateStore(h.store, WithClientFactory(h.state.newClient), WithStateLogger(logger))
	acts := New(h.state, writer)

	cols := []string{"table_catalog", "table_schema", "table_name", "column_name", "data_type", "ordinal_position", "is_nullable"}
	h.mock.ExpectQuery("SELECT columns").WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow("postgres", "public", "orders", "id", "bigint", 1, "NO").
			AddRow("postgres", "public", "orders", "note", "text", "second", "YES").
			AddRow("postgres", "public", "orders", "total", "numeric", 3, "YES"),
	)

	stats, err := acts.FetchColumns(context.Background(), testArgs())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.RowCount)
	assert.Equal(t, 2, stats.TotalRecordCount)
	assert.Equal(t, 1, stats.FailedCount)
	assert.Equal(t, 1, stats.Dropped())

	columns := writer.Entities(core.VariantColumn)
	require.Len(t, columns, 2)
	assert.Equal(t, false, columns[0].Attributes["isNullable"])
	assert.Equal(t, true, columns[1].Attributes["isNullable"])
	assert.Equal(t, 1, rec.Count("error transforming entity"))
}

func TestFetch_ClientNotLoaded(t *testing.T) {
	h := newHarness(t)
	acts := New(h.state, NewMemoryWriter())

	raw := testArgs()
	delete(raw, "credential_guid")

	_, err := acts.FetchDatabases(context.Background(), raw)
	assert.ErrorIs(t, err, ErrClientNotInitialized)
}

func TestFetch_QueryErrorPropagates(t *testing.T) {
	h := newHarness(t)
	acts := New(h.state, NewMemoryWriter())

	h.mock.ExpectQuery("SELECT schemas").WillReturnError(errBoom)

	_, err := acts.FetchSchemas(context.Background(), testArgs())
	require.ErrorIs(t, err, errBoom)
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, core.EntityVariant, []*core.Entity) error {
	return errBoom
}

func TestFetch_WriterErrorPropagates(t *testing.T) {
	h := newHarness(t)
	acts := New(h.state, failingWriter{})

	h.mock.ExpectQuery("SELECT databases").WillReturnRows(
		sqlmock.NewRows([]string{"database_name"}).AddRow("postgres"),
	)

	_, err := acts.FetchDatabases(context.Background(), testArgs())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "failed to write database chunk")
}

func TestFetch_ExecutionInfoFallback(t *testing.T) {
	h := newHarness(t)
	writer := NewMemoryWriter()
	acts := New(h.state, writer, WithExecutionInfo(func(context.Context) (string, string) {
		return "wf-from-context", "run-from-context"
	}))

	h.mock.ExpectQuery("SELECT databases").WillReturnRows(
		sqlmock.NewRows([]string{"database_name"}).AddRow("postgres"),
	)

	raw := testArgs()
	delete(raw, "workflow_id")
	delete(raw, "workflow_run_id")

	_, err := acts.FetchDatabases(context.Background(), raw)
	require.NoError(t, err)

	dbs := writer.Entities(core.VariantDatabase)
	require.Len(t, dbs, 1)
	assert.Equal(t, "wf-from-context", dbs[0].Attributes["workflowId"])
	assert.Equal(t, "run-from-context", dbs[0].Attributes["workflowRunId"])
}

func TestSetStateThenRelease(t *testing.T) {
	h := newHarness(t)
	acts := New(h.state, NewMemoryWriter())
	ctx := context.Background()

	require.NoError(t, acts.SetState(ctx, testArgs()))
	require.NoError(t, acts.SetState(ctx, testArgs()))
	assert.Equal(t, 1, h.store.Fetches())

	h.mock.ExpectClose()
	require.NoError(t, acts.ReleaseState(ctx, testArgs()))
	assert.Equal(t, 0, h.state.Len())
}

func TestCheckCredentials(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		loadErr error
		wantErr string
	}{
		{name: "reference resolves", mutate: func(map[string]any) {}},
		{
			name:    "unknown reference",
			mutate:  func(m map[string]any) { m["credential_guid"] = "missing" },
			wantErr: "failed to fetch credentials",
		},
		{
			name:    "no credentials",
			mutate:  func(m map[string]any) { delete(m, "credential_guid") },
			wantErr: "no credentials provided",
		},
		{
			name:    "load fails",
			mutate:  func(map[string]any) {},
			loadErr: errBoom,
			wantErr: "credential check failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.loadErr = tt.loadErr
			h.mock.ExpectClose()
			acts := New(h.state, NewMemoryWriter())

			raw := testArgs()
			tt.mutate(raw)
			err := acts.CheckCredentials(context.Background(), raw)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, h.state.Len(), "probe clients are never cached")
		})
	}
}

func TestCheckCredentials_WithoutStateStore(t *testing.T) {
	acts := New(nil, NewMemoryWriter())

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr string
	}{
		{
			name:    "reference without secret store",
			mutate:  func(map[string]any) {},
			wantErr: "no secret store configured",
		},
		{
			name: "inline credentials for unknown source",
			mutate: func(m map[string]any) {
				delete(m, "credential_guid")
				m["source_type"] = "nope"
				m["credentials"] = map[string]any{"host": "localhost"}
			},
			wantErr: `unknown source type "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testArgs()
			tt.mutate(raw)

			var err error
			require.NotPanics(t, func() { err = acts.CheckCredentials(context.Background(), raw) })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJSONLinesWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLinesWriter(&buf)

	entities := []*core.Entity{
		{TypeName: core.VariantDatabase, Attributes: core.Attributes{"name": "a"}, Status: core.StatusActive},
		{TypeName: core.VariantDatabase, Attributes: core.Attributes{"name": "b"}, Status: core.StatusActive},
	}
	require.NoError(t, w.Write(context.Background(), core.VariantDatabase, entities))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "DATABASE", decoded["typeName"])
	assert.Equal(t, "b", decoded["attributes"].(map[string]any)["name"])
}

func TestMemoryWriter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryWriter().Write(ctx, core.VariantTable, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDirWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "raw")
	w, err := NewDirWriter(dir)
	require.NoError(t, err)

	ctx := context.Background()
	col := &core.Entity{TypeName: core.VariantColumn, Attributes: core.Attributes{"name": "id"}, Status: core.StatusActive}
	require.NoError(t, w.Write(ctx, core.VariantColumn, []*core.Entity{col}))
	require.NoError(t, w.Write(ctx, core.VariantColumn, []*core.Entity{col}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "column.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.NoFileExists(t, w.Path(core.VariantTable))
}
