// Package series turns raw route measurements into a cleaned, bounded speed series.
package series

import (
	"sort"

	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// Defaults used when the caller has no configuration of its own.
const (
	DefaultMaxSamples   = 1000
	DefaultSpeedCeiling = 150.0
	DefaultMinSamples   = 10
)

// Options bounds and cleans a route series.
type Options struct {
	// MaxSamples keeps only the most recent rows of the route.
	MaxSamples int
	// SpeedCeiling drops readings at or above this speed.
	SpeedCeiling float64
	// MinSamples is the smallest series a model may be fitted on.
	MinSamples int
}

// DefaultOptions returns the standard preparation limits.
func DefaultOptions() Options {
	return Options{
		MaxSamples:   DefaultMaxSamples,
		SpeedCeiling: DefaultSpeedCeiling,
		MinSamples:   DefaultMinSamples,
	}
}

// Validate rejects non-positive limits.
func (o Options) Validate() error {
	switch {
	case o.MaxSamples <= 0:
		return apperrors.ValidationField("max_samples", "must be positive")
	case o.SpeedCeiling <= 0:
		return apperrors.ValidationField("speed_ceiling", "must be positive")
	case o.MinSamples <= 0:
		return apperrors.ValidationField("min_samples", "must be positive")
	}
	return nil
}

// Prepare selects routeID's rows, orders them by time, keeps the most recent
// opts.MaxSamples, then drops missing and implausible speeds. It returns an
// insufficient_data error when fewer than opts.MinSamples rows survive.
func Prepare(rows []model.Measurement, routeID string, opts Options) (model.Series, error) {
	if err := opts.Validate(); err != nil {
		return model.Series{}, err
	}

	selected := Recent(ForRoute(rows, routeID), opts.MaxSamples)

	points := make([]model.SeriesPoint, 0, len(selected))
	for _, m := range selected {
		if !m.HasSpeed() || *m.Speed >= opts.SpeedCeiling {
			continue
		}
		points = append(points, model.SeriesPoint{
			MeasurementID: m.ID,
			Timestamp:     m.Timestamp,
			Speed:         *m.Speed,
		})
	}

	if len(points) < opts.MinSamples {
		return model.Series{}, apperrors.InsufficientData(len(points), opts.MinSamples)
	}

	return model.Series{RouteID: routeID, Points: points}, nil
}

// ForRoute returns routeID's rows stable-sorted by timestamp. The input is not modified.
func ForRoute(rows []model.Measurement, routeID string) []model.Measurement {
	out := make([]model.Measurement, 0, len(rows))
	for _, m := range rows {
		if m.RouteID == routeID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Recent returns the last n rows.
func Recent(rows []model.Measurement, n int) []model.Measurement {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}

// Routes lists the distinct route IDs in order of first appearance.
func Routes(rows []model.Measurement) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range rows {
		if _, ok := seen[m.RouteID]; ok {
			continue
		}
		seen[m.RouteID] = struct{}{}
		out = append(out, m.RouteID)
	}
	return out
}
