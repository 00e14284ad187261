// Package cli wires configuration, logging and the event store into the
// eventos command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/config"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/repository"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/service"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the state derived from them.
type RootOptions struct {
	ConfigPath string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand creates the root command for the eventos CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "eventos",
		Short:         "Academic Event Manager",
		Long:          "Manage academic event records stored in a CSV file, SQLite or PostgreSQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// openService opens the configured store and wraps it in a service. The
// caller must close the returned store.
func (o *RootOptions) openService(ctx context.Context) (*service.EventService, repository.EventStore, error) {
	store, err := repository.Open(ctx, o.cfg.Store, o.cfg.Database, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return service.NewEventService(store, o.logger), store, nil
}
