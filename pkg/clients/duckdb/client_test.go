package duckdb

import (
	"context"
	"testing"

	"github.com/leapstack-labs/supacatalog/pkg/client"
	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMemory(t *testing.T) *Client {
	t.Helper()
	c := New(nil)
	require.NoError(t, c.Load(context.Background(), core.Credentials{"path": ":memory:"}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func collect(t *testing.T, c *Client, query string) []core.Row {
	t.Helper()
	var rows []core.Row
	require.NoError(t, c.QueryRows(context.Background(), query, func(r core.Row) error {
		rows = append(rows, r)
		return nil
	}))
	return rows
}

func TestLoad_Twice(t *testing.T) {
	c := loadMemory(t)
	err := c.Load(context.Background(), core.Credentials{})
	assert.ErrorIs(t, err, client.ErrAlreadyLoaded)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "", Credentials{}.dsn())
	assert.Equal(t, "", Credentials{Path: ":memory:"}.dsn())
	assert.Equal(t, "cat.db", Credentials{Database: "cat.db"}.dsn())
	assert.Equal(t, "cat.db?access_mode=read_only", Credentials{Path: "cat.db", ReadOnly: true}.dsn())
}

func TestQueries_AgainstMemoryDatabase(t *testing.T) {
	c := loadMemory(t)
	ctx := context.Background()

	_, err := c.Engine().ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, email VARCHAR)`)
	require.NoError(t, err)

	q := c.Queries()

	dbs := collect(t, c, q.Database)
	require.Len(t, dbs, 1)
	assert.Equal(t, "memory", dbs[0]["database_name"])

	tables := collect(t, c, q.Table)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0]["table_name"])
	assert.Equal(t, "main", tables[0]["table_schema"])
	assert.Equal(t, "BASE TABLE", tables[0]["table_type"])

	cols := collect(t, c, q.Column)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0]["column_name"])
	assert.Equal(t, "NO", cols[0]["is_nullable"])
	assert.Equal(t, "email", cols[1]["column_name"])
	assert.Equal(t, "YES", cols[1]["is_nullable"])
}

func TestRegistered(t *testing.T) {
	assert.True(t, client.IsRegistered("duckdb"))
}
