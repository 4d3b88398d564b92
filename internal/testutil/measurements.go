package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/routewatch/routewatch/internal/domain/model"
)

// Step is the sampling interval used by the fixture builders.
const Step = 3 * time.Minute

// CreateMeasurementTable creates the route history table using column types all supported
// drivers accept.
func CreateMeasurementTable(t TestingTB, db *sql.DB, table string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmt := `CREATE TABLE ` + table + ` (
		id INTEGER PRIMARY KEY,
		route_id VARCHAR(64) NOT NULL,
		data TIMESTAMP NOT NULL,
		velocidade DOUBLE PRECISION NULL,
		tempo INTEGER NULL
	)`
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		t.Fatalf("Failed to create table %s: %v", table, err)
	}
}

// InsertMeasurements writes rows using "?" placeholders, or "$n" when dollar is true.
func InsertMeasurements(t TestingTB, db *sql.DB, table string, dollar bool, rows ...model.Measurement) {
	t.Helper()

	ph := func(i int) string {
		if dollar {
			return fmt.Sprintf("$%d", i)
		}
		return "?"
	}
	cols := make([]string, 5)
	for i := range cols {
		cols[i] = ph(i + 1)
	}
	stmt := "INSERT INTO " + table + " (id, route_id, data, velocidade, tempo) VALUES (" +
		strings.Join(cols, ", ") + ")"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, m := range rows {
		var speed sql.NullFloat64
		if m.Speed != nil {
			speed = sql.NullFloat64{Float64: *m.Speed, Valid: true}
		}
		var duration sql.NullInt64
		if m.Duration != nil {
			duration = sql.NullInt64{Int64: *m.Duration, Valid: true}
		}
		if _, err := db.ExecContext(ctx, stmt, m.ID, m.RouteID, m.Timestamp.UTC(), speed, duration); err != nil {
			t.Fatalf("Failed to insert measurement %d: %v", m.ID, err)
		}
	}
}

// RouteRows builds one measurement per speed for routeID, Step apart starting at start.
// IDs start at firstID. A NaN speed becomes a missing reading.
func RouteRows(routeID string, firstID int64, start time.Time, speeds ...float64) []model.Measurement {
	rows := make([]model.Measurement, len(speeds))
	for i, s := range speeds {
		rows[i] = model.Measurement{
			ID:        firstID + int64(i),
			RouteID:   routeID,
			Timestamp: start.Add(time.Duration(i) * Step),
			Duration:  Ptr(int64(120 + i)),
		}
		if !math.IsNaN(s) {
			rows[i].Speed = Ptr(s)
		}
	}
	return rows
}

// ConstantSpeeds returns n copies of v.
func ConstantSpeeds(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ScenarioR1 is twenty readings for route "R1" whose only jump above 30 km/h is the
// 38 km/h rise at index 4.
func ScenarioR1() []model.Measurement {
	speeds := []float64{
		40, 42, 41, 43, 81, 80, 78, 79, 77, 76,
		75, 74, 73, 72, 71, 70, 69, 68, 67, 66,
	}
	return RouteRows("R1", 1, TestTime(), speeds...)
}
