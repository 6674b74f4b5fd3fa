package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// BaseSQLClient provides common database/sql functionality for clients.
// Embed this struct in concrete client implementations to get standard
// Engine, Close, and QueryRows implementations.
type BaseSQLClient struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// Engine returns the live connection handle.
func (b *BaseSQLClient) Engine() *sql.DB {
	return b.DB
}

// Close closes the database connection.
func (b *BaseSQLClient) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// IsLoaded returns true if the engine is established.
func (b *BaseSQLClient) IsLoaded() bool {
	return b.DB != nil
}

// Attach opens a connection with driver and dsn, pings it, and stores it.
// It refuses to replace an existing engine.
func (b *BaseSQLClient) Attach(ctx context.Context, driver, dsn string) error {
	if b.DB != nil {
		return ErrAlreadyLoaded
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	b.DB = db
	return nil
}

// QueryRows executes a SQL statement and hands each row to fn as a core.Row.
// Byte slices are converted to strings.
func (b *BaseSQLClient) QueryRows(ctx context.Context, sqlStr string, fn func(core.Row) error) error {
	if b.DB == nil {
		return ErrNotLoaded
	}

	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			val := values[i]
			if bs, ok := val.([]byte); ok {
				val = string(bs)
			}
			row[col] = val
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}
