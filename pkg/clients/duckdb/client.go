// Package duckdb provides a DuckDB source client, used to catalogue local
// database files.
package duckdb

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/supacatalog/pkg/client"
	"github.com/leapstack-labs/supacatalog/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Credentials is the decoded credential material for a DuckDB source.
type Credentials struct {
	Path     string `mapstructure:"path"`
	Database string `mapstructure:"database"`
	ReadOnly bool   `mapstructure:"read_only"`
}

// Client implements client.SQLClient for DuckDB.
type Client struct {
	client.BaseSQLClient
}

// New creates an unloaded DuckDB client.
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{BaseSQLClient: client.BaseSQLClient{Logger: logger}}
}

// Load opens the database file named by creds.
// Use ":memory:" (or no path) for an in-memory database.
func (c *Client) Load(ctx context.Context, creds core.Credentials) error {
	if c.IsLoaded() {
		return client.ErrAlreadyLoaded
	}

	var dc Credentials
	if err := client.DecodeCredentials(creds, &dc); err != nil {
		return err
	}

	c.Logger.Debug("opening duckdb", slog.String("path", dc.dsn()))
	return c.Attach(ctx, "duckdb", dc.dsn())
}

func (dc Credentials) dsn() string {
	path := dc.Path
	if path == "" {
		path = dc.Database
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	if dc.ReadOnly {
		return path + "?access_mode=read_only"
	}
	return path
}

// Queries implements client.SQLClient.
func (c *Client) Queries() client.Queries {
	return client.Queries{
		Database: databaseSQL,
		Schema:   schemaSQL,
		Table:    tableSQL,
		Column:   columnSQL,
	}
}

// Ensure Client implements client.SQLClient interface
var _ client.SQLClient = (*Client)(nil)
