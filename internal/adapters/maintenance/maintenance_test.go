package maintenance

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/routewatch/routewatch/internal/domain/job"
	apperrors "github.com/routewatch/routewatch/internal/errors"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Order(t *testing.T) {
	reg := NewRegistry(RegistryOptions{})
	assert.Equal(t, []string{
		"traffic_alerts",
		"notifications",
		"notification_worker",
		"traffic_jams",
		"cemaden_rainfall",
		"cemaden_hydrology",
		"xml_export",
		"email_alerts",
	}, reg.Names())

	withOptional := NewRegistry(RegistryOptions{IncludeOptional: true})
	require.Equal(t, 10, withOptional.Len())
	assert.Equal(t, []string{"json_export", "route_history"}, withOptional.Names()[8:])

	// Building the optional list must not grow the shared default table.
	assert.Len(t, DefaultJobs, 8)
}

func TestJob_Degraded(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	res := NewJob(DefaultJobs[0], logger, 0).Execute(context.Background(), job.ExecutionContext{})

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err(), ErrStoreUnavailable)
	assert.Equal(t, "data store unavailable", res.Err().Error())
	assert.Contains(t, logs.String(), "job=traffic_alerts")
	assert.Contains(t, logs.String(), "task skipped")
}

func TestJob_PingsStore(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	res := NewJob(Spec{Name: XMLExport}, logger, 0).Execute(context.Background(), job.ExecutionContext{DB: db})

	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	assert.Contains(t, logs.String(), "task finished")
}

func TestJob_ClosedStore(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	res := NewJob(Spec{Name: EmailAlerts}, nil, 0).Execute(context.Background(), job.ExecutionContext{DB: db})

	require.False(t, res.OK())
	assert.True(t, apperrors.IsDataSource(res.Err()))
}
