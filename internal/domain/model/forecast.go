package model

import "time"

// ForecastPoint is the model output for one timestamp, historical or future.
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedSpeed float64   `json:"predicted_speed"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
	Trend          float64   `json:"trend"`
	Seasonal       float64   `json:"seasonal"`
	// Future marks points past the last observed timestamp.
	Future bool `json:"future"`
}

// AnomalyRecord flags a sample whose speed jumped by more than the threshold since the previous one.
type AnomalyRecord struct {
	// Index is the position of the sample in its Series.
	Index         int       `json:"index"`
	MeasurementID int64     `json:"measurement_id"`
	Timestamp     time.Time `json:"timestamp"`
	Speed         float64   `json:"speed"`
	AbsoluteDelta float64   `json:"absolute_delta"`
}
