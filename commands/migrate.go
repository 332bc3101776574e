package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkwell/common"
	"inkwell/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the users, posts and comments tables.

Examples:
  inkwell migrate                              # use DATABASE_URL or sqlite_db
  inkwell migrate --db postgres://localhost/x  # migrate another database`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg := loadConfig()

	db, err := common.ConnectDb(cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
