package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	actions := []struct {
		use   string
		short string
		run   func(*datastore.DB) error
	}{
		{"up", "Migrate to the latest version", func(db *datastore.DB) error { return goose.Up(db.DB, ".") }},
		{"up-one", "Migrate one version up", func(db *datastore.DB) error { return goose.UpByOne(db.DB, ".") }},
		{"down", "Roll back one version", func(db *datastore.DB) error { return goose.Down(db.DB, ".") }},
		{"status", "Show migration status", func(db *datastore.DB) error { return goose.Status(db.DB, ".") }},
		{"version", "Show current version", func(db *datastore.DB) error { return goose.Version(db.DB, ".") }},
		{"reset", "Roll back all migrations", func(db *datastore.DB) error { return goose.Reset(db.DB, ".") }},
	}

	for _, action := range actions {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				dialect, err := datastore.ParseDialect(cfg.Database.Driver)
				if err != nil {
					return err
				}
				db, err := datastore.Open(cmd.Context(), dialect, cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer func() { _ = db.Close() }()

				if err := migrations.Setup(db.GooseDialect()); err != nil {
					return err
				}
				if err := action.run(db); err != nil {
					return fmt.Errorf("%s: %w", action.use, err)
				}
				return nil
			},
		})
	}

	return cmd
}
