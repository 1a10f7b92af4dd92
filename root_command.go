package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/granforum/forum/config"
	"github.com/granforum/forum/logging"
)

// commandContext lazily loads configuration and the logger shared by subcommands.
type commandContext struct {
	configFlag *string

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("Loaded config file", "path", path)
	}
	c.cfg = cfg
	c.logger = logger
	return cfg, nil
}

// openApp loads configuration and opens the application components.
func (c *commandContext) openApp(ctx context.Context) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, c.logger)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	serveCmd := newServeCommand(ctx)

	rootCmd := &cobra.Command{
		Use:           "forum",
		Short:         "Gran Forum community backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		// Running without a subcommand starts the server.
		RunE: serveCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $"+config.ConfigPathEnv+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
