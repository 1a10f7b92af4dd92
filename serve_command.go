package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := ctx.openApp(runCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipMigrate {
				if err := a.db.Migrate(); err != nil {
					return fmt.Errorf("migrate database: %w", err)
				}
			}

			return startServer(runCtx, a)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
	return cmd
}

// startServer serves until ctx is cancelled, then shuts down gracefully.
func startServer(ctx context.Context, a *app) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", "port", a.cfg.Server.Port, "public_base_url", a.cfg.Server.PublicBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutdown signal received, initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("Server gracefully stopped")
	return nil
}
