// Package cli provides the command-line interface for supacatalog.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/supacatalog/internal/cli/commands"
	"github.com/leapstack-labs/supacatalog/internal/cli/config"

	// Register source clients via init()
	_ "github.com/leapstack-labs/supacatalog/pkg/clients/duckdb"
	_ "github.com/leapstack-labs/supacatalog/pkg/clients/postgres"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "supacatalog",
		Short: "supacatalog - relational metadata extraction",
		Long: `supacatalog extracts database, schema, table and column metadata from
Supabase, Postgres and DuckDB sources and transforms it into catalog entities.

Run it locally with "extract", or as a Temporal worker with "worker".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if f := config.GetConfigFileUsed(); f != "" {
					logger.Debug("using config file", slog.String("path", f))
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./supacatalog.yaml)")
	pf.String("source-type", "", "Source client (supabase|postgres|duckdb)")
	pf.String("credential-ref", "", "Credential reference in the secret store")
	pf.String("connection-qn", "", "Connection qualified name")
	pf.String("connection-name", "", "Connection display name")
	pf.String("tenant-id", "", "Tenant ID stamped on entities")
	pf.String("secret-store", "", "Secret store type (file|sqlite|memory)")
	pf.String("secret-path", "", "Secret store path")
	pf.String("temporal-address", "", "Temporal frontend host:port")
	pf.String("namespace", "", "Temporal namespace")
	pf.String("task-queue", "", "Temporal task queue")
	pf.Int("chunk-size", 0, "Entities per output chunk")
	pf.String("log-format", "", "Log format (text|json)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("source-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"supabase", "postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(commands.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}))
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewTransformCommand())
	rootCmd.AddCommand(commands.NewWorkerCommand())
	rootCmd.AddCommand(commands.NewSubmitCommand())
	rootCmd.AddCommand(commands.NewSecretCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())

	return rootCmd
}

// NewLogger builds the process logger. Verbose enables debug records.
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
