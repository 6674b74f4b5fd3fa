// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/supacatalog/internal/cli/output"

	// duckdb driver for fixture databases
	_ "github.com/marcboeker/go-duckdb"
)

// fixtureSQL builds a small catalog: two tables in main, one view and a
// table in a second schema.
var fixtureSQL = []string{
	`CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR NOT NULL, email VARCHAR)`,
	`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total DECIMAL(10, 2))`,
	`CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 100`,
	`CREATE SCHEMA billing`,
	`CREATE TABLE billing.invoices (id INTEGER, amount DOUBLE)`,
	`INSERT INTO customers VALUES (1, 'Alice', 'alice@example.com'), (2, 'Bob', NULL)`,
}

// SetupDuckDBProject creates a temporary project with a DuckDB source and a
// supacatalog.yaml pointing at it. Returns the project directory.
func SetupDuckDBProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.duckdb")

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	for _, stmt := range fixtureSQL {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			_ = db.Close()
			t.Fatalf("failed to run %q: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close fixture database: %v", err)
	}

	WriteConfig(t, dir, fmt.Sprintf(`source:
  type: duckdb
  credentials:
    path: %s
connection:
  qualified_name: default/duckdb/1700000000
  name: fixture
connector:
  name: duckdb
  tenant_id: default
output: json
`, dbPath))
	return dir
}

// WriteConfig writes supacatalog.yaml into dir and returns its path.
func WriteConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "supacatalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// Execute runs cmd with args and returns captured stdout and stderr.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a renderer writing into buffers.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// ReadJSONLines returns the non-empty lines of a JSON lines file.
func ReadJSONLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
