package data

import (
	"context"
	"math"
	"testing"
	"time"

	apperrors "github.com/routewatch/routewatch/internal/errors"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeasurementRepo_TableValidation(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "default", table: ""},
		{name: "plain", table: "historic_routes"},
		{name: "schema qualified", table: "traffic.historic_routes"},
		{name: "injection", table: "routes; DROP TABLE x", wantErr: true},
		{name: "leading digit", table: "1routes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewMeasurementRepo(nil, MeasurementRepoOptions{Table: tt.table})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, "table", apperrors.GetField(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, repo)
		})
	}
}

func TestMeasurementRepo_List_SQLite(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")

	start := testutil.TestTime()
	r2 := testutil.RouteRows("R2", 100, start.Add(-time.Hour), 55, math.NaN())
	r1 := testutil.RouteRows("R1", 1, start, 40, 42)
	testutil.InsertMeasurements(t, db, "historic_routes", false, append(r1, r2...)...)

	repo, err := NewMeasurementRepo(db, MeasurementRepoOptions{})
	require.NoError(t, err)

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Ordered by timestamp regardless of insert order.
	assert.Equal(t, int64(100), rows[0].ID)
	assert.Equal(t, "R2", rows[0].RouteID)
	assert.True(t, rows[0].Timestamp.Equal(start.Add(-time.Hour)))
	require.NotNil(t, rows[0].Speed)
	assert.InDelta(t, 55.0, *rows[0].Speed, 1e-9)
	require.NotNil(t, rows[0].Duration)
	assert.Equal(t, int64(120), *rows[0].Duration)

	assert.Equal(t, int64(101), rows[1].ID)
	assert.Nil(t, rows[1].Speed)

	assert.Equal(t, "R1", rows[2].RouteID)
	assert.True(t, rows[3].Timestamp.Equal(start.Add(testutil.Step)))
}

func TestMeasurementRepo_List_Empty(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")

	repo, err := NewMeasurementRepo(db, MeasurementRepoOptions{})
	require.NoError(t, err)

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMeasurementRepo_List_Errors(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		repo, err := NewMeasurementRepo(nil, MeasurementRepoOptions{})
		require.NoError(t, err)

		_, err = repo.List(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsDataSource(err))
		assert.ErrorIs(t, err, ErrNoStore)
	})

	t.Run("missing table", func(t *testing.T) {
		db := testutil.SetupSQLiteDB(t, "historic_routes")
		repo, err := NewMeasurementRepo(db, MeasurementRepoOptions{Table: "other_routes"})
		require.NoError(t, err)

		_, err = repo.List(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsDataSource(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		db := testutil.SetupSQLiteDB(t, "historic_routes")
		repo, err := NewMeasurementRepo(db, MeasurementRepoOptions{})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = repo.List(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsCanceled(err))
	})
}

func TestMeasurementRepo_List_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t, "historic_routes_test")
	testutil.InsertMeasurements(t, db, "historic_routes_test", true, testutil.ScenarioR1()...)

	repo, err := NewMeasurementRepo(db, MeasurementRepoOptions{Table: "historic_routes_test"})
	require.NoError(t, err)

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 20)
	assert.InDelta(t, 81.0, *rows[4].Speed, 1e-9)
}

func TestSQLTime_Scan(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, src := range []any{
		want,
		"2024-01-01 12:00:00",
		"2024-01-01T12:00:00Z",
		[]byte("2024-01-01 12:00:00+00:00"),
	} {
		var ts sqlTime
		require.NoError(t, ts.Scan(src), "%v", src)
		assert.True(t, ts.Equal(want), "%v parsed as %v", src, ts.Time)
	}

	var ts sqlTime
	assert.Error(t, ts.Scan(nil))
	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("yesterday"))
}
