// Package migrate creates the measurement table for stores the application owns, such as a
// local sqlite file. Production stores are usually provisioned elsewhere and left alone.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Options selects the schema dialect and the table the migrations create.
type Options struct {
	// Driver is one of postgres, mysql or sqlite.
	Driver string
	// Table is a validated identifier, optionally schema-qualified.
	Table  string
	Logger *slog.Logger
}

// Run applies the driver's migrations for opts.Table. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB, opts Options) error {
	if db == nil {
		return errors.New("migrate: database is required")
	}
	if opts.Table == "" {
		return errors.New("migrate: table is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrations")

	// Ensure schema_migrations table exists; these column types are valid on every driver.
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations/"+opts.Driver)
	if err != nil {
		return fmt.Errorf("read migrations for %q: %w", opts.Driver, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		info := migrationInfo{
			// Versions are per table so several tables can share one store.
			versionStr: opts.Table + ":" + strings.TrimSuffix(f, ".sql"),
			file:       opts.Driver + "/" + f,
		}
		if applyErr := applyMigration(ctx, db, info, opts, logger); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

// migrationInfo holds information about a migration for processing.
type migrationInfo struct {
	versionStr string
	file       string
}

func placeholder(driver string) string {
	if driver == "postgres" {
		return "$1"
	}
	return "?"
}

func migrationExists(ctx context.Context, db *sql.DB, info migrationInfo, driver string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM schema_migrations WHERE version = ` + placeholder(driver)
	if err := db.QueryRowContext(ctx, query, info.versionStr).Scan(&n); err != nil {
		return false, fmt.Errorf("check migration %s: %w", info.file, err)
	}
	return n > 0, nil
}

func insertMigration(ctx context.Context, tx *sql.Tx, info migrationInfo, driver string) error {
	stmt := `INSERT INTO schema_migrations (version) VALUES (` + placeholder(driver) + `)`
	if _, err := tx.ExecContext(ctx, stmt, info.versionStr); err != nil {
		return fmt.Errorf("record migration %s: %w", info.file, err)
	}
	return nil
}

// render substitutes the table and its index-safe name into a migration.
func render(src string, table string) string {
	return strings.NewReplacer(
		"{{table}}", table,
		"{{name}}", strings.ReplaceAll(table, ".", "_"),
	).Replace(src)
}

func applyMigration(ctx context.Context, db *sql.DB, info migrationInfo, opts Options, logger *slog.Logger) error {
	exists, err := migrationExists(ctx, db, info, opts.Driver)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	sqlBytes, err := migrationsFS.ReadFile("migrations/" + info.file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", info.file, err)
	}

	logger.InfoContext(ctx, "applying migration", "version", info.versionStr)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback transaction",
				"err", rollbackErr,
				"migration_file", info.file)
		}
	}()

	if _, execErr := tx.ExecContext(ctx, render(string(sqlBytes), opts.Table)); execErr != nil {
		return fmt.Errorf("exec migration %s: %w", info.file, execErr)
	}
	if insertErr := insertMigration(ctx, tx, info, opts.Driver); insertErr != nil {
		return insertErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit migration %s: %w", info.file, commitErr)
	}

	return nil
}
