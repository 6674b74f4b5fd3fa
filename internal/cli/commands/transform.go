package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/supacatalog/pkg/core"
	"github.com/leapstack-labs/supacatalog/pkg/transformer"
)

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	WorkflowID string
	Strict     bool
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform <typename> [file]",
		Short: "Transform raw rows into catalog entities",
		Long: `Read raw query rows as a JSON array or as JSON lines, map each one with
the mapper registered for <typename>, and print the entities as JSON lines.

Rows that fail to transform are logged and skipped. With --strict the command
exits non-zero when any row was dropped.`,
		Example: `  # Transform a file of column rows
  supacatalog transform column rows.json

  # Read from stdin
  cat tables.jsonl | supacatalog transform table`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.WorkflowID, "workflow-id", "local", "Workflow ID stamped on entities")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail when any row is dropped")

	return cmd
}

func runTransform(cmd *cobra.Command, opts *TransformOptions, args []string) error {
	cc := NewCommandContext(cmd)

	in := cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	rows, err := readRows(in)
	if err != nil {
		return err
	}

	tr := transformer.New(transformer.Config{
		ConnectorName: cc.Cfg.Connector.Name,
		TenantID:      cc.Cfg.Connector.TenantID,
	}, transformer.WithLogger(cc.Logger))

	prov := core.Provenance{
		WorkflowID:              opts.WorkflowID,
		WorkflowRunID:           uuid.NewString(),
		ConnectionQualifiedName: cc.Cfg.Connection.QualifiedName,
		ConnectionName:          cc.Cfg.Connection.Name,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	var summary transformer.BatchSummary
	for _, row := range rows {
		res := tr.Transform(args[0], row, prov)
		summary.Add(res)
		if !res.OK() {
			continue
		}
		if err := enc.Encode(res.Entity); err != nil {
			return fmt.Errorf("failed to write entity: %w", err)
		}
	}

	if summary.Dropped() > 0 {
		cc.Renderer.Warning("%d of %d rows dropped (%d unknown type, %d failed)",
			summary.Dropped(), summary.Total, summary.Unknown, summary.Failed)
		if opts.Strict {
			return fmt.Errorf("%d rows could not be transformed", summary.Dropped())
		}
	}
	return nil
}

// readRows accepts a JSON array of objects or a stream of objects.
// Numbers are kept as json.Number so integer fields survive exactly.
func readRows(r io.Reader) ([]core.Row, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var rows []core.Row
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		return rows, nil
	}

	var rows []core.Row
	for {
		var row core.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid JSON row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
