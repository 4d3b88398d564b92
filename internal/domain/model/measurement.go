// Package model defines the data types shared by the route pipeline, the report server and
// the maintenance batch.
package model

import (
	"math"
	"time"
)

// Measurement is one row of the route-speed history, exactly as read from the store.
type Measurement struct {
	ID        int64     `json:"id"                 db:"id"`
	RouteID   string    `json:"route_id"           db:"route_id"`
	Timestamp time.Time `json:"timestamp"          db:"data"`
	// Speed is nil when the store holds no reading.
	Speed *float64 `json:"speed,omitempty"    db:"velocidade"`
	// Duration is the travel time in seconds.
	Duration *int64 `json:"duration,omitempty" db:"tempo"`
}

// HasSpeed reports whether the row carries a usable speed reading.
func (m Measurement) HasSpeed() bool {
	return m.Speed != nil && !math.IsNaN(*m.Speed) && !math.IsInf(*m.Speed, 0)
}
