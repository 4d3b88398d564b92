package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/core"
	"github.com/routewatch/routewatch/internal/data"
	"github.com/routewatch/routewatch/internal/domain/forecast"
	"github.com/routewatch/routewatch/internal/domain/series"
	"github.com/routewatch/routewatch/internal/observability/metrics"
	"github.com/routewatch/routewatch/internal/service"
)

// reportCachePrefix namespaces report keys in a shared Redis.
const reportCachePrefix = "routewatch:"

// PipelineDeps holds what the report pipeline is built from.
type PipelineDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	// Optional: enables the report cache together with REPORT_CACHE_ENABLED.
	RedisClient redis.UniversalClient
	// Optional: registers the pipeline instruments.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// PipelineSettings converts configuration into pipeline settings.
func PipelineSettings(cfg *config.AppConfig) service.PipelineSettings {
	return service.PipelineSettings{
		Series: series.Options{
			MaxSamples:   cfg.Pipeline.MaxSamples,
			SpeedCeiling: cfg.Pipeline.SpeedCeiling,
			MinSamples:   cfg.Pipeline.MinSamples,
		},
		Forecast: forecast.Params{
			ChangepointPriorScale: cfg.Forecast.ChangepointPriorScale,
			SeasonalityPriorScale: cfg.Forecast.SeasonalityPriorScale,
			NChangepoints:         cfg.Forecast.NChangepoints,
			DailySeasonality:      cfg.Forecast.DailySeasonality,
			ChangepointRange:      cfg.Forecast.ChangepointRange,
			IntervalWidth:         cfg.Forecast.IntervalWidth,
			HorizonSteps:          cfg.Forecast.HorizonSteps,
			Frequency:             cfg.Forecast.Frequency,
		},
		AnomalyThreshold: cfg.Pipeline.AnomalyThreshold,
	}
}

// NewPipelineService wires the measurement repository, the optional report cache and the
// metrics into a PipelineService.
func NewPipelineService(deps PipelineDeps) (*service.PipelineService, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := data.NewMeasurementRepo(deps.DB, data.MeasurementRepoOptions{Table: deps.Config.Store.Table})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	var cache core.ReportCache
	if deps.Config.Cache.Enabled && deps.RedisClient != nil {
		reportCache, cacheErr := data.NewReportCacheRepo(
			data.NewRedisCacheRepo(deps.RedisClient, reportCachePrefix),
			deps.Config.Cache.TTL,
		)
		if cacheErr != nil {
			return nil, fmt.Errorf("pipeline: %w", cacheErr)
		}
		cache = reportCache
		logger.Info("report cache enabled", "ttl", deps.Config.Cache.TTL)
	}

	var pm *metrics.PipelineMetrics
	if deps.Registerer != nil {
		pm = metrics.NewPipelineMetrics(deps.Registerer)
	}

	return service.NewPipelineService(service.PipelineServiceOptions{
		Repo:     repo,
		Settings: PipelineSettings(deps.Config),
		Cache:    cache,
		Metrics:  pm,
		Logger:   logger,
	})
}
