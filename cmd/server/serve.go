package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/user-service/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Long:  "Open the database, create missing tables, and serve the HTTP API until SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// Deferred so it runs after Start has drained in-flight requests.
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}()

	server.Version = version
	return server.New(cfg, store, logger).Start(ctx)
}
