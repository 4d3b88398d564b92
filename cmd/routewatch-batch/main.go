// Command routewatch-batch runs the maintenance job batch once against the measurement store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/adapters/batchrunner"
	"github.com/routewatch/routewatch/internal/bootstrap"
	"github.com/routewatch/routewatch/internal/observability/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger, err := bootstrap.InitLogger(cfg)
	if err != nil {
		// The console logger still works; only the debug file is missing.
		logger.WarnContext(ctx, "debug log file unavailable", "error", err)
	}
	defer func() { _ = logging.Close() }()

	run(ctx, &cfg, logger, os.Stdout)
}

// run executes one batch. Job failures are reported but never change the exit status.
func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, out io.Writer) {
	fmt.Fprintf(out, "Reference time: %s\n", time.Now().Format(time.DateTime))

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cfg.Store,
		Logger:   logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "measurement store unavailable", "driver", cfg.Store.Driver, "error", err)
		db = nil
	} else {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
		if perr := bootstrap.PrepareStore(ctx, db, cfg.Store, logger); perr != nil {
			logger.ErrorContext(ctx, "store setup failed", "error", perr)
		}
	}

	sink := bootstrap.NewMetricsSink(cfg.Observability.Metrics, logger)
	defer func() { _ = sink.Close() }()

	runner := batchrunner.NewRunner(batchrunner.RunnerOptions{
		DB:       db,
		Config:   cfg.Batch,
		Logger:   logger,
		Metrics:  sink,
		Out:      out,
		Notifier: bootstrap.NewFailureNotifier(cfg.Observability.Notifications, logger),
	})
	logger.InfoContext(ctx, "starting routewatch batch", "jobs", runner.Jobs())

	res := runner.Run(ctx)
	if failed := res.Failures(); len(failed) > 0 {
		logger.WarnContext(ctx, "batch finished with failures", "run_id", res.RunID, "failed", len(failed))
	}
}
