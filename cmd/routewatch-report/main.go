// Command routewatch-report serves the route speed report over HTTP.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/bootstrap"
	httpx "github.com/routewatch/routewatch/internal/http"
	"github.com/routewatch/routewatch/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger, err := bootstrap.InitLogger(cfg)
	if err != nil {
		logger.WarnContext(ctx, "debug log file unavailable", "error", err)
	}

	err = run(ctx, &cfg, logger)
	_ = logging.Close()
	if err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting routewatch report server",
		"addr", cfg.HTTP.Addr,
		"driver", cfg.Store.Driver,
		"table", cfg.Store.Table,
		"report_cache", cfg.Cache.Enabled)

	db, redisClient, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if err = bootstrap.PrepareStore(ctx, db, cfg.Store, logger); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := bootstrap.NewPipelineService(bootstrap.PipelineDeps{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Registerer:  reg,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	handler, err := bootstrap.BuildHTTPHandler(httpx.RouterServices{
		Reports: svc,
		Store:   db,
		Metrics: reg,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	return bootstrap.Serve(ctx, bootstrap.ServeConfig{
		Server:          bootstrap.NewHTTPServer(cfg.HTTP, handler),
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
}

// initInfrastructure connects the measurement store and, when the report cache is enabled,
// Redis. A Redis failure only disables the cache.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Store,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	if !cfg.Cache.Enabled {
		return db, nil, nil
	}
	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		logger.WarnContext(ctx, "report cache disabled", "error", err)
		return db, nil, nil
	}
	return db, redisClient, nil
}
