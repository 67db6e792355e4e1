package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"gamified-lms/internal/config"
	"gamified-lms/internal/infra/database"
	"gamified-lms/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openDatabase connects to the configured database and brings its schema up to date.
func openDatabase(ctx context.Context, cfg config.Config, log *logger.Logger) (*bun.DB, error) {
	dsn := cfg.Postgres.URL
	if cfg.Database.Driver == database.DriverSQLite {
		dsn = cfg.SQLite.Path
	}
	db, err := database.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	applied, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(applied) == 0 {
		log.Info("database schema up to date", "driver", cfg.Database.Driver)
	} else {
		log.Info("migrations applied", "driver", cfg.Database.Driver, "migrations", applied)
	}
	return db, nil
}
