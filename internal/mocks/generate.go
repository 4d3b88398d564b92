// Package mocks provides gomock implementations of the repository and metrics ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockMeasurementRepository(ctrl)
//	repo.EXPECT().List(gomock.Any()).Return(rows, nil)
package mocks

// MeasurementRepository: List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=measurement_repository_mock.go github.com/routewatch/routewatch/internal/core MeasurementRepository

// ReportCache: Get, Set
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_cache_mock.go github.com/routewatch/routewatch/internal/core ReportCache

// CacheRepository: Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/routewatch/routewatch/internal/core CacheRepository

// Sink: Count, Gauge, Timing
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=sink_mock.go github.com/routewatch/routewatch/internal/observability/statsd Sink
