package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/repo-explainer/internal/server"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users and search history tables",
		Long:  `Create the tables and indexes in DATABASE_URL. Safe to run repeatedly.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := server.OpenStore(cmd.Context(), cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("database migrated")
			return nil
		},
	}
}
