package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/aebridge/internal/mcp"
	"github.com/dshills/aebridge/internal/storage"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			cfg := mcp.Config{
				Bridge:           client,
				Logger:           a.logger,
				Retry:            a.retryPolicy(),
				FetchConcurrency: a.cfg.FetchConcurrency,
			}
			store, err := a.openJournal()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				cfg.Storage = store
			}

			server, err := mcp.NewServer(cfg)
			if err != nil {
				return err
			}

			a.logger.Info("MCP server ready, listening on stdio",
				"version", version,
				"driver", storage.DriverName,
				"journal", !a.cfg.NoJournal,
			)
			err = server.Serve(ctx)
			a.logger.Info("server stopped")
			return err
		},
	}
}
