package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/config"
	"github.com/abhisek/weekplan/internal/pgstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	Long:  `Apply pending migrations to the PostgreSQL store. The SQLite store creates its schema on open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate needs store.driver: postgres (got %q)", cfg.Store.Driver)
		}
		if err := pgstore.RunMigrations(cfg.Store.DSN); err != nil {
			return err
		}
		PrintSuccess("Migrations applied")
		return nil
	},
}
