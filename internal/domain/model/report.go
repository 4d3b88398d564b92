package model

import "time"

// RouteReport bundles everything the report page shows for one route.
type RouteReport struct {
	RouteID string `json:"route_id"`
	// Raw holds every row read from the store. It is not cached.
	Raw         []Measurement   `json:"-"`
	Series      Series          `json:"series"`
	Forecast    []ForecastPoint `json:"forecast"`
	Anomalies   []AnomalyRecord `json:"anomalies"`
	GeneratedAt time.Time       `json:"generated_at"`
	// FromCache is set when the model output came from the report cache.
	FromCache bool `json:"-"`
}
