package cli

import (
	"github.com/spf13/cobra"
	"github.com/suteetoe/shopstock/pkg/database"
	"github.com/suteetoe/shopstock/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := migrate(db); err != nil {
			return err
		}
		logger.GetLogger().Info("Database migrations completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
