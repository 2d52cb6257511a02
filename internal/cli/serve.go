package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  `Open the database, create missing tables and serve the API and pages until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := server.OpenStore(cmd.Context(), cfg.DatabaseURL, logger)
			if err != nil {
				logger.Error("failed to open database", zap.Error(err))
				return err
			}
			if err := store.Migrate(cmd.Context()); err != nil {
				store.Close()
				logger.Error("failed to migrate database", zap.Error(err))
				return err
			}

			srv, err := server.New(cfg, store, logger)
			if err != nil {
				store.Close()
				logger.Error("failed to create server", zap.Error(err))
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
}
