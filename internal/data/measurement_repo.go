// Package data implements the store-facing repositories: the route history reader and the
// Redis-backed report cache.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/routewatch/routewatch/internal/core"
	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// DefaultMeasurementTable is the table read when none is configured.
const DefaultMeasurementTable = "historic_routes"

// ErrNoStore is the cause reported when the repository has no database handle.
var ErrNoStore = errors.New("measurement store is not connected")

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// MeasurementRepoOptions configures MeasurementRepo.
type MeasurementRepoOptions struct {
	// Table is a plain or schema-qualified identifier. Defaults to historic_routes.
	Table string
}

// MeasurementRepo reads the route history with a single ordered query.
type MeasurementRepo struct {
	db    *sql.DB
	query string
}

var _ core.MeasurementRepository = (*MeasurementRepo)(nil)

// NewMeasurementRepo validates the table name and builds the list query.
func NewMeasurementRepo(db *sql.DB, opts MeasurementRepoOptions) (*MeasurementRepo, error) {
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultMeasurementTable
	}
	if !tableName.MatchString(table) {
		return nil, apperrors.ValidationField("table", fmt.Sprintf("invalid table name %q", table))
	}

	return &MeasurementRepo{
		db:    db,
		query: "SELECT id, route_id, data, velocidade, tempo FROM " + table + " ORDER BY data",
	}, nil
}

// List returns every row ordered by timestamp. Store failures are reported as
// data_source, timeout or canceled errors.
func (r *MeasurementRepo) List(ctx context.Context) ([]model.Measurement, error) {
	if r.db == nil {
		return nil, apperrors.DataSource("measurement store unavailable", ErrNoStore)
	}

	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []model.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("list measurements: %w", apperrors.MapDBError(err))
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list measurements: %w", apperrors.MapDBError(err))
	}

	return out, nil
}

func scanMeasurement(rows *sql.Rows) (model.Measurement, error) {
	var (
		m        model.Measurement
		ts       sqlTime
		speed    sql.NullFloat64
		duration sql.NullFloat64
	)
	if err := rows.Scan(&m.ID, &m.RouteID, &ts, &speed, &duration); err != nil {
		return model.Measurement{}, fmt.Errorf("scan measurement: %w", err)
	}

	m.Timestamp = ts.Time
	if speed.Valid {
		v := speed.Float64
		m.Speed = &v
	}
	if duration.Valid && !math.IsNaN(duration.Float64) {
		v := int64(math.Round(duration.Float64))
		m.Duration = &v
	}
	return m, nil
}

// sqlTime scans timestamps whether the driver returns time.Time or text.
type sqlTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Scan implements sql.Scanner.
func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return errors.New("timestamp is NULL")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *sqlTime) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
