package core

import (
	"context"

	"github.com/routewatch/routewatch/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// MeasurementRepository reads the route-speed history.
type MeasurementRepository interface {
	// List returns every measurement ordered by timestamp.
	List(ctx context.Context) ([]model.Measurement, error)
}

// ReportCache stores computed route reports.
type ReportCache interface {
	// Get returns the cached report for key, or nil when there is none.
	Get(ctx context.Context, key string) (*model.RouteReport, error)
	// Set stores report under key.
	Set(ctx context.Context, key string, report *model.RouteReport) error
}
