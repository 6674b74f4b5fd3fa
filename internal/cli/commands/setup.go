// Package commands implements the supacatalog subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/supacatalog/internal/activities"
	"github.com/leapstack-labs/supacatalog/internal/cli/config"
	"github.com/leapstack-labs/supacatalog/internal/cli/output"
	"github.com/leapstack-labs/supacatalog/internal/secretstore"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the loaded config, logger and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// openSecretStore opens the configured store. It returns a nil store when
// the source carries no credential reference and required is false.
func (c *CommandContext) openSecretStore(ctx context.Context, required bool) (secretstore.Store, error) {
	if !required && c.Cfg.Source.CredentialRef == "" {
		return nil, nil
	}
	store, err := secretstore.Open(ctx, c.Cfg.SecretStore.Type, c.Cfg.SecretStore.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret store: %w", err)
	}
	return store, nil
}

// newStateStore builds a StateStore from the config.
func (c *CommandContext) newStateStore(store secretstore.Store) *activities.StateStore {
	return activities.NewStateStore(store,
		activities.WithDefaultSourceType(c.Cfg.Source.Type),
		activities.WithConnectorName(c.Cfg.Connector.Name),
		activities.WithStateLogger(c.Logger),
	)
}
