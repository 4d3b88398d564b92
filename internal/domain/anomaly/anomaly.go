// Package anomaly flags abrupt speed changes between consecutive samples of a series.
package anomaly

import (
	"math"

	"github.com/routewatch/routewatch/internal/domain/model"
)

// DefaultThreshold is the speed change, in km/h, above which a sample is flagged.
const DefaultThreshold = 30.0

// Detect compares every sample with the one before it and returns a record for each
// absolute change strictly greater than threshold, in series order. The first sample has
// no predecessor and is never flagged.
func Detect(s model.Series, threshold float64) []model.AnomalyRecord {
	var out []model.AnomalyRecord
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1], s.Points[i]
		delta := math.Abs(cur.Speed - prev.Speed)
		if delta <= threshold {
			continue
		}
		out = append(out, model.AnomalyRecord{
			Index:         i,
			MeasurementID: cur.MeasurementID,
			Timestamp:     cur.Timestamp,
			Speed:         cur.Speed,
			AbsoluteDelta: delta,
		})
	}
	return out
}
