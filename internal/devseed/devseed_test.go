package devseed

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/routewatch/routewatch/internal/data"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

func TestRun_SeedsEmptyTable(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")
	ctx := context.Background()

	n, err := Run(ctx, db, Options{
		Driver:  "sqlite",
		Table:   "historic_routes",
		Samples: 50,
		Now:     fixedNow,
		Logger:  slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	assert.Equal(t, 150, n)

	repo, err := data.NewMeasurementRepo(db, data.MeasurementRepoOptions{})
	require.NoError(t, err)
	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 150)

	var last time.Time
	missing := 0
	for _, r := range rows {
		assert.False(t, r.Timestamp.Before(last), "rows are ordered by time")
		last = r.Timestamp
		if !r.HasSpeed() {
			missing++
			assert.Nil(t, r.Duration)
		}
	}
	assert.True(t, fixedNow().Equal(last), "last reading at %v", last)
	// Index 36 of each route has no reading.
	assert.Equal(t, 3, missing)
}

func TestRun_SkipsPopulatedTable(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")
	testutil.InsertMeasurements(t, db, "historic_routes", false, testutil.ScenarioR1()...)

	n, err := Run(context.Background(), db, Options{Driver: "sqlite", Table: "historic_routes"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{Table: "t"})
	require.Error(t, err)

	db := testutil.SetupSQLiteDB(t, "historic_routes")
	_, err = Run(context.Background(), db, Options{Driver: "sqlite"})
	require.Error(t, err)

	_, err = Run(context.Background(), db, Options{Driver: "sqlite", Table: "missing_table"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count measurements")
}

func TestBuildRows_Deterministic(t *testing.T) {
	opts := Options{Routes: []string{"A"}, Samples: 100, Now: fixedNow}
	first := buildRows(opts)
	second := buildRows(opts)
	require.Equal(t, first, second)

	// The jam drops speed well below the preceding reading.
	jam := first[66]
	before := first[65]
	require.True(t, jam.speed.Valid)
	require.True(t, before.speed.Valid)
	assert.Greater(t, before.speed.Float64-jam.speed.Float64, 20.0)
	assert.Equal(t, sql.NullFloat64{}, first[36].speed)
}

func TestInsertStatement(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO t (id, route_id, data, velocidade, tempo) VALUES ($1, $2, $3, $4, $5)",
		insertStatement("postgres", "t"))
	assert.Equal(t,
		"INSERT INTO t (id, route_id, data, velocidade, tempo) VALUES (?, ?, ?, ?, ?)",
		insertStatement("mysql", "t"))
}
