// Package devseed fills an empty measurement table with synthetic route readings so the
// report and the batch can be tried out without a production store.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	defaultSamples  = 240
	defaultInterval = 3 * time.Minute
	// routeLengthKm converts a speed reading into a travel time.
	routeLengthKm = 4.2
)

// DefaultRoutes are the routes seeded when Options.Routes is empty.
var DefaultRoutes = []string{"R1", "R2", "R3"}

// Options configures a seeding run.
type Options struct {
	// Driver decides the placeholder style: postgres uses $n, the others ?.
	Driver string
	Table  string

	// Optional: defaults to DefaultRoutes.
	Routes []string
	// Optional: readings per route, defaults to 240 (twelve hours at three minutes).
	Samples int
	// Optional: the last reading's time, defaults to time.Now truncated to the minute.
	Now    func() time.Time
	Logger *slog.Logger
}

// Run seeds opts.Table when it is empty and returns the number of rows written. A table that
// already holds rows is left untouched.
func Run(ctx context.Context, db *sql.DB, opts Options) (int, error) {
	if db == nil {
		return 0, errors.New("devseed: database is required")
	}
	if opts.Table == "" {
		return 0, errors.New("devseed: table is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var existing int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+opts.Table).Scan(&existing); err != nil {
		return 0, fmt.Errorf("count measurements: %w", err)
	}
	if existing > 0 {
		logger.InfoContext(ctx, "skipping dev seed", "reason", "table not empty", "rows", existing)
		return 0, nil
	}

	rows := buildRows(opts)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback dev seed", "error", rollbackErr)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertStatement(opts.Driver, opts.Table))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.id, r.route, r.at, r.speed, r.duration); err != nil {
			return 0, fmt.Errorf("insert measurement %d: %w", r.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit dev seed: %w", err)
	}

	logger.InfoContext(ctx, "dev seed complete", "table", opts.Table, "rows", len(rows))
	return len(rows), nil
}

type seedRow struct {
	id       int64
	route    string
	at       time.Time
	speed    sql.NullFloat64
	duration sql.NullInt64
}

func insertStatement(driver, table string) string {
	ph := []string{"?", "?", "?", "?", "?"}
	if driver == "postgres" {
		ph = []string{"$1", "$2", "$3", "$4", "$5"}
	}
	return "INSERT INTO " + table + " (id, route_id, data, velocidade, tempo) VALUES (" +
		strings.Join(ph, ", ") + ")"
}

// buildRows generates a daily speed cycle per route with light noise, one sudden jam and a
// few missing readings. The generator is seeded so every run writes the same data.
func buildRows(opts Options) []seedRow {
	routes := opts.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	samples := opts.Samples
	if samples <= 0 {
		samples = defaultSamples
	}
	now := time.Now().UTC().Truncate(time.Minute)
	if opts.Now != nil {
		now = opts.Now().UTC()
	}
	start := now.Add(-time.Duration(samples-1) * defaultInterval)

	rng := rand.New(rand.NewPCG(42, 1024))
	out := make([]seedRow, 0, len(routes)*samples)
	var id int64
	for ri, route := range routes {
		base := 55.0 + 10*float64(ri)
		jamAt := samples * 2 / 3
		for i := range samples {
			id++
			at := start.Add(time.Duration(i) * defaultInterval)
			hour := float64(at.Hour()) + float64(at.Minute())/60
			speed := base + 12*math.Sin(2*math.Pi*hour/24) + rng.NormFloat64()*2
			if i >= jamAt && i < jamAt+5 {
				speed -= 35
			}
			speed = math.Max(5, math.Round(speed*10)/10)

			row := seedRow{id: id, route: route, at: at}
			if i%37 != 36 {
				row.speed = sql.NullFloat64{Float64: speed, Valid: true}
				row.duration = sql.NullInt64{Int64: int64(math.Round(routeLengthKm / speed * 3600)), Valid: true}
			}
			out = append(out, row)
		}
	}
	return out
}
