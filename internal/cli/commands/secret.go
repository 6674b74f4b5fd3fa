package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/supacatalog/internal/cli/output"
	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// SecretPutOptions holds options for secret put.
type SecretPutOptions struct {
	File string
	Set  []string
}

// NewSecretCommand creates the secret command group.
func NewSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage stored source credentials",
		Long: `Store, list and delete credentials in the SQLite secret store.
Workflows refer to stored credentials by reference (credential_guid).

Requires secret_store.type: sqlite.`,
	}

	cmd.AddCommand(newSecretPutCommand())
	cmd.AddCommand(newSecretListCommand())
	cmd.AddCommand(newSecretDeleteCommand())
	return cmd
}

func newSecretPutCommand() *cobra.Command {
	opts := &SecretPutOptions{}
	cmd := &cobra.Command{
		Use:   "put <ref>",
		Short: "Store credentials under a reference",
		Example: `  supacatalog secret put prod-db --file creds.yaml
  supacatalog secret put prod-db --set host=db.example.com --set password=$PGPASSWORD`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := buildCredentials(opts)
			if err != nil {
				return err
			}
			return withSQLiteStore(cmd, func(ctx context.Context, s *secretstore.SQLiteStore, r *output.Renderer) error {
				if err := s.Put(ctx, args[0], creds); err != nil {
					return err
				}
				r.Success("Stored credentials %q (%s)", args[0], strings.Join(sortedKeys(creds), ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML or JSON file with credential fields")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Credential field as key=value (repeatable)")
	return cmd
}

func newSecretListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credential references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSQLiteStore(cmd, func(ctx context.Context, s *secretstore.SQLiteStore, r *output.Renderer) error {
				refs, err := s.List(ctx)
				if err != nil {
					return err
				}
				if r.Mode() == output.ModeJSON {
					return r.JSON(refs)
				}
				if len(refs) == 0 {
					r.Muted("No credentials stored")
					return nil
				}
				rows := make([][]any, len(refs))
				for i, ref := range refs {
					rows[i] = []any{ref}
				}
				r.Table([]string{"Reference"}, rows)
				return nil
			})
		},
	}
}

func newSecretDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLiteStore(cmd, func(ctx context.Context, s *secretstore.SQLiteStore, r *output.Renderer) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return err
				}
				r.Success("Deleted credentials %q", args[0])
				return nil
			})
		},
	}
}

func withSQLiteStore(cmd *cobra.Command, fn func(context.Context, *secretstore.SQLiteStore, *output.Renderer) error) error {
	cc := NewCommandContext(cmd)
	if !strings.EqualFold(cc.Cfg.SecretStore.Type, "sqlite") {
		return fmt.Errorf("secret commands require secret_store.type sqlite, got %q", cc.Cfg.SecretStore.Type)
	}

	ctx := cmd.Context()
	s := secretstore.NewSQLiteStore()
	if err := s.Open(ctx, cc.Cfg.SecretStore.Path); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	if err := s.Migrate(); err != nil {
		return err
	}
	return fn(ctx, s, cc.Renderer)
}

// buildCredentials merges the file fields with --set pairs; pairs win.
func buildCredentials(opts *SecretPutOptions) (core.Credentials, error) {
	creds := core.Credentials{}
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		// JSON is valid YAML.
		if err := yaml.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("invalid credentials file: %w", err)
		}
	}
	for _, pair := range opts.Set {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		creds[key] = value
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("no credentials given; use --file or --set")
	}
	return creds, nil
}

func sortedKeys(c core.Credentials) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
