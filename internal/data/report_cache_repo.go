package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/routewatch/routewatch/internal/core"
	"github.com/routewatch/routewatch/internal/domain/model"
)

// DefaultReportTTL is how long a cached report lives when no TTL is configured.
const DefaultReportTTL = 10 * time.Minute

// ReportCacheRepo stores route reports as JSON on top of a byte cache.
type ReportCacheRepo struct {
	cache core.CacheRepository
	ttl   time.Duration
}

var _ core.ReportCache = (*ReportCacheRepo)(nil)

// NewReportCacheRepo wraps cache. A non-positive ttl falls back to DefaultReportTTL.
func NewReportCacheRepo(cache core.CacheRepository, ttl time.Duration) (*ReportCacheRepo, error) {
	if cache == nil {
		return nil, errors.New("cache repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCacheRepo{cache: cache, ttl: ttl}, nil
}

// Get returns the report stored under key, or nil when the key is absent.
func (r *ReportCacheRepo) Get(ctx context.Context, key string) (*model.RouteReport, error) {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var report model.RouteReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	report.FromCache = true
	return &report, nil
}

// Set stores report under key. Raw rows are never written.
func (r *ReportCacheRepo) Set(ctx context.Context, key string, report *model.RouteReport) error {
	if report == nil {
		return errors.New("report is required")
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		return fmt.Errorf("set cached report: %w", err)
	}
	return nil
}
