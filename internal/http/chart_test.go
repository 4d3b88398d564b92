package httpx

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/routewatch/routewatch"
	"github.com/routewatch/routewatch/internal/domain/model"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedTemplates(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(routewatch.TemplateFS, "web/templates")
	require.NoError(t, err)
	return sub
}

func TestForecastChart(t *testing.T) {
	start := testutil.TestTime()
	rep := &model.RouteReport{
		RouteID: "R1",
		Series: model.Series{RouteID: "R1", Points: []model.SeriesPoint{
			{Timestamp: start, Speed: 40},
			{Timestamp: start.Add(time.Minute), Speed: 80},
		}},
		Forecast: []model.ForecastPoint{
			{Timestamp: start, PredictedSpeed: 40, LowerBound: 35, UpperBound: 45},
			{Timestamp: start.Add(time.Minute), PredictedSpeed: 80, LowerBound: 75, UpperBound: 85},
			{Timestamp: start.Add(2 * time.Minute), PredictedSpeed: 90, LowerBound: 80, UpperBound: 100, Future: true},
		},
		Anomalies: []model.AnomalyRecord{{Index: 1, Timestamp: start.Add(time.Minute), Speed: 80, AbsoluteDelta: 40}},
	}

	v := forecastChart(rep)
	require.NotNil(t, v)

	assert.Len(t, strings.Fields(v.Line), 2)
	// The future curve starts at the last fitted point.
	future := strings.Fields(v.Future)
	require.Len(t, future, 2)
	assert.Equal(t, strings.Fields(v.Line)[1], future[0])
	assert.Len(t, strings.Fields(v.Band), 6)
	assert.Len(t, v.Points, 2)
	require.Len(t, v.Anomalies, 1)
	assert.Equal(t, "change of 40.0 km/h", v.Anomalies[0].Label)

	// Time runs left to right and speed bottom to top.
	assert.InDelta(t, v.PlotLeft, v.Points[0].X, 0.1)
	assert.Less(t, v.Points[1].Y, v.Points[0].Y)
	for _, p := range v.Points {
		assert.GreaterOrEqual(t, p.Y, v.PlotTop)
		assert.LessOrEqual(t, p.Y, v.PlotBottom)
	}
	assert.Len(t, v.YTicks, chartTicks)
	assert.Equal(t, "12:00", v.XTicks[0].Label)
}

func TestForecastChart_Empty(t *testing.T) {
	assert.Nil(t, forecastChart(nil))
	assert.Nil(t, forecastChart(&model.RouteReport{}))
	assert.Nil(t, speedChart(model.Series{}))
}

func TestSpeedChart_SinglePoint(t *testing.T) {
	v := speedChart(model.Series{RouteID: "R1", Points: []model.SeriesPoint{{Timestamp: testutil.TestTime(), Speed: 50}}})
	require.NotNil(t, v)

	assert.Equal(t, "500,170", v.Line)
	assert.Len(t, v.XTicks, 1)
}
