package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/routewatch/routewatch/internal/core"
	"github.com/routewatch/routewatch/internal/domain/anomaly"
	"github.com/routewatch/routewatch/internal/domain/forecast"
	"github.com/routewatch/routewatch/internal/domain/model"
	"github.com/routewatch/routewatch/internal/domain/series"
	apperrors "github.com/routewatch/routewatch/internal/errors"
	obserrors "github.com/routewatch/routewatch/internal/observability/errors"
	"github.com/routewatch/routewatch/internal/observability/metrics"
)

// Cache lookup results.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// PipelineSettings holds the tunables of one pipeline run.
type PipelineSettings struct {
	Series           series.Options
	Forecast         forecast.Params
	AnomalyThreshold float64
}

// DefaultPipelineSettings returns the standard settings.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		Series:           series.DefaultOptions(),
		Forecast:         forecast.DefaultParams(),
		AnomalyThreshold: anomaly.DefaultThreshold,
	}
}

// Validate checks every setting.
func (s PipelineSettings) Validate() error {
	if err := s.Series.Validate(); err != nil {
		return err
	}
	if err := s.Forecast.Validate(); err != nil {
		return err
	}
	if s.AnomalyThreshold < 0 {
		return apperrors.ValidationField("anomaly_threshold", "anomaly threshold must not be negative")
	}
	return nil
}

// PipelineServiceOptions groups dependencies for PipelineService.
type PipelineServiceOptions struct {
	Repo     core.MeasurementRepository // Required: route history
	Settings PipelineSettings           // Required: see DefaultPipelineSettings
	Cache    core.ReportCache           // Optional: report cache
	Metrics  *metrics.PipelineMetrics   // Optional: Prometheus instruments
	Logger   *slog.Logger               // Optional: structured logger
	Clock    func() time.Time           // Optional: defaults to time.Now
}

// PipelineService turns the route history into route reports: prepare, fit, predict and
// detect, each stage finishing before the next starts.
type PipelineService struct {
	repo     core.MeasurementRepository
	settings PipelineSettings
	cache    core.ReportCache
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
	clock    func() time.Time
}

// NewPipelineService constructs a PipelineService.
func NewPipelineService(opts PipelineServiceOptions) (*PipelineService, error) {
	if opts.Repo == nil {
		return nil, errors.New("MeasurementRepository is required")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline settings: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &PipelineService{
		repo:     opts.Repo,
		settings: opts.Settings,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "pipeline"),
		clock:    clock,
	}, nil
}

// Routes returns the route IDs in first-appearance order together with every row read.
func (s *PipelineService) Routes(ctx context.Context) ([]string, []model.Measurement, error) {
	rows, err := s.query(ctx)
	if err != nil {
		return nil, nil, err
	}
	return series.Routes(rows), rows, nil
}

// Run reads the history and builds the report for routeID.
func (s *PipelineService) Run(ctx context.Context, routeID string) (*model.RouteReport, error) {
	rows, err := s.query(ctx)
	if err != nil {
		s.recordRun(err, 0)
		return nil, err
	}
	return s.Analyze(ctx, rows, routeID)
}

// Analyze builds the report for routeID from rows that were already read. A route with
// too few usable samples fails with an insufficient_data error before any model work.
func (s *PipelineService) Analyze(
	ctx context.Context,
	rows []model.Measurement,
	routeID string,
) (*model.RouteReport, error) {
	report, err := s.analyze(ctx, rows, routeID)
	if err != nil {
		s.recordRun(err, 0)
		s.logger.WarnContext(ctx, "pipeline run failed", "route", routeID, "error", err)
		return nil, err
	}
	s.recordRun(nil, len(report.Anomalies))
	return report, nil
}

func (s *PipelineService) analyze(
	ctx context.Context,
	rows []model.Measurement,
	routeID string,
) (*model.RouteReport, error) {
	start := time.Now()
	ser, err := series.Prepare(rows, routeID, s.settings.Series)
	s.stageDone(ctx, routeID, metrics.StagePrepare, start)
	if err != nil {
		return nil, fmt.Errorf("prepare series: %w", err)
	}

	key := ser.CacheKey()
	if cached := s.cached(ctx, key); cached != nil {
		cached.Raw = rows
		cached.Series = ser
		return cached, nil
	}

	start = time.Now()
	fitted, err := forecast.Fit(ser, s.settings.Forecast)
	s.stageDone(ctx, routeID, metrics.StageFit, start)
	if err != nil {
		return nil, fmt.Errorf("fit forecast: %w", err)
	}

	start = time.Now()
	points := fitted.Predict()
	s.stageDone(ctx, routeID, metrics.StagePredict, start)

	start = time.Now()
	anomalies := anomaly.Detect(ser, s.settings.AnomalyThreshold)
	s.stageDone(ctx, routeID, metrics.StageDetect, start)

	report := &model.RouteReport{
		RouteID:     routeID,
		Raw:         rows,
		Series:      ser,
		Forecast:    points,
		Anomalies:   anomalies,
		GeneratedAt: s.clock(),
	}
	s.store(ctx, key, report)

	s.logger.InfoContext(ctx, "route analyzed",
		"route", routeID,
		"samples", ser.Len(),
		"forecast_points", len(points),
		"anomalies", len(anomalies),
	)
	return report, nil
}

func (s *PipelineService) query(ctx context.Context) ([]model.Measurement, error) {
	start := time.Now()
	rows, err := s.repo.List(ctx)
	s.stageDone(ctx, "", metrics.StageQuery, start)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	s.logger.DebugContext(ctx, "measurements loaded", "rows", len(rows))
	return rows, nil
}

// cached returns the stored report for key. Cache failures only cost a recomputation.
func (s *PipelineService) cached(ctx context.Context, key string) *model.RouteReport {
	if s.cache == nil {
		return nil
	}

	report, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.RecordCacheLookup(cacheError)
		s.logger.WarnContext(ctx, "report cache lookup failed", "key", key, "error", err)
		return nil
	case report == nil:
		s.metrics.RecordCacheLookup(cacheMiss)
		return nil
	default:
		s.metrics.RecordCacheLookup(cacheHit)
		report.FromCache = true
		s.logger.DebugContext(ctx, "report served from cache", "key", key)
		return report
	}
}

func (s *PipelineService) store(ctx context.Context, key string, report *model.RouteReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.WarnContext(ctx, "report cache store failed", "key", key, "error", err)
	}
}

func (s *PipelineService) stageDone(ctx context.Context, routeID, stage string, start time.Time) {
	d := time.Since(start)
	s.metrics.ObserveStage(stage, d)
	s.logger.DebugContext(ctx, "pipeline stage finished", "route", routeID, "stage", stage, "duration", d)
}

func (s *PipelineService) recordRun(err error, anomalies int) {
	result := "ok"
	if err != nil {
		result = obserrors.Classify(err)
	}
	s.metrics.RecordRun(result, anomalies)
}
