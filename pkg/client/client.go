// Package client provides the per-workflow SQL client contract used by the
// extraction activities.
//
// A client is constructed empty by its registered factory and becomes usable
// once Load has injected credential material and established the live engine
// handle. Concrete clients live in pkg/clients/ subdirectories and register
// themselves in init().
package client

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// ErrAlreadyLoaded is returned when Load is called on a loaded client.
// Credentials are injected at most once per client instance.
var ErrAlreadyLoaded = errors.New("client already loaded")

// ErrNotLoaded is returned when a client is used before Load.
var ErrNotLoaded = errors.New("database connection not established")

// SQLClient defines the interface that all source clients must implement.
type SQLClient interface {
	// Load injects credentials and opens the engine. Call at most once.
	Load(ctx context.Context, creds core.Credentials) error

	// Engine returns the live connection handle, or nil before Load.
	Engine() *sql.DB

	// QueryRows executes sql and calls fn for every row.
	// Iteration stops at the first error returned by fn.
	QueryRows(ctx context.Context, sql string, fn func(core.Row) error) error

	// Queries returns the extraction statements for this source dialect.
	Queries() Queries

	// Close releases the engine.
	Close() error
}

// Queries holds one extraction statement per built-in entity variant.
type Queries struct {
	Database string
	Schema   string
	Table    string
	Column   string
}

// For returns the statement for a variant.
func (q Queries) For(v core.EntityVariant) (string, bool) {
	var s string
	switch v {
	case core.VariantDatabase:
		s = q.Database
	case core.VariantSchema:
		s = q.Schema
	case core.VariantTable:
		s = q.Table
	case core.VariantColumn:
		s = q.Column
	}
	return s, s != ""
}
