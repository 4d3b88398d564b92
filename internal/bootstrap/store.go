package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/devseed"
	"github.com/routewatch/routewatch/internal/migrate"
)

// PrepareStore runs the opt-in store setup: DB_AUTO_MIGRATE creates the measurement table
// and DB_SEED fills it with synthetic readings when empty.
func PrepareStore(ctx context.Context, db *sql.DB, cfg config.DBConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.AutoMigrate {
		if err := migrate.Run(ctx, db, migrate.Options{Driver: cfg.Driver, Table: cfg.Table, Logger: logger}); err != nil {
			return fmt.Errorf("migrate measurement store: %w", err)
		}
	} else {
		logger.DebugContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	if cfg.Seed {
		if _, err := devseed.Run(ctx, db, devseed.Options{Driver: cfg.Driver, Table: cfg.Table, Logger: logger}); err != nil {
			return fmt.Errorf("seed measurement store: %w", err)
		}
	}
	return nil
}
