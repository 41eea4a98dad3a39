package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyeolab/moyeo/internal/shared/infrastructure/database"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/migrations"
	"github.com/moyeolab/moyeo/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		switch cfg.DBDriver {
		case "sqlite":
			db, err := database.NewSQLiteDB(cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
				return err
			}
		case "postgres":
			pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
		}

		logger.Info("migrations applied", "driver", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
