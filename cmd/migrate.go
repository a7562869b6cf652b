package main

import (
	"RestyAPI/internal/app"
	"RestyAPI/internal/logger"

	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations in MIGRATIONS_DIR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		backend, err := app.OpenBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer backend.Close()
		if err := app.Migrate(backend, cfg, migrateDown); err != nil {
			logger.Error("migrate_failed", map[string]any{"error": err.Error()})
			return err
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every applied migration")
	rootCmd.AddCommand(migrateCmd)
}
