package model

import (
	"strconv"
	"time"
)

// SeriesPoint is a cleaned sample of a route series.
type SeriesPoint struct {
	MeasurementID int64     `json:"measurement_id"`
	Timestamp     time.Time `json:"timestamp"`
	Speed         float64   `json:"speed"`
}

// Series is the ordered, cleaned speed history of one route.
type Series struct {
	RouteID string        `json:"route_id"`
	Points  []SeriesPoint `json:"points"`
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Points) }

// Last returns the most recent sample; ok is false for an empty series.
func (s Series) Last() (p SeriesPoint, ok bool) {
	if len(s.Points) == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Speeds returns the speed column.
func (s Series) Speeds() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Speed
	}
	return out
}

// Timestamps returns the timestamp column.
func (s Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Timestamp
	}
	return out
}

// CacheKey identifies the series by route, last sample time and sample count, so any new
// measurement for the route produces a different key.
func (s Series) CacheKey() string {
	var last int64
	if p, ok := s.Last(); ok {
		last = p.Timestamp.UTC().UnixNano()
	}
	return "report:" + s.RouteID + ":" + strconv.FormatInt(last, 10) + ":" + strconv.Itoa(len(s.Points))
}
