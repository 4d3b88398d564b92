package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
	"github.com/routewatch/routewatch/internal/mocks"
	"github.com/routewatch/routewatch/internal/service"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeReports is a canned ReportService.
type fakeReports struct {
	routes     []string
	rows       []model.Measurement
	routesErr  error
	report     *model.RouteReport
	analyzeErr error
	analyzed   []string
}

func (f *fakeReports) Routes(context.Context) ([]string, []model.Measurement, error) {
	return f.routes, f.rows, f.routesErr
}

func (f *fakeReports) Analyze(_ context.Context, _ []model.Measurement, routeID string) (*model.RouteReport, error) {
	f.analyzed = append(f.analyzed, routeID)
	return f.report, f.analyzeErr
}

// pipelineOver wires the real pipeline to a repository returning rows.
func pipelineOver(t *testing.T, rows []model.Measurement) *service.PipelineService {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMeasurementRepository(ctrl)
	repo.EXPECT().List(gomock.Any()).Return(rows, nil).AnyTimes()

	svc, err := service.NewPipelineService(service.PipelineServiceOptions{
		Repo:     repo,
		Settings: service.DefaultPipelineSettings(),
		Clock:    testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	return svc
}

func newTestRouter(t *testing.T, reports ReportService) http.Handler {
	t.Helper()
	h, err := NewRouter(RouterServices{Reports: reports, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	return h
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_RequiresReports(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	require.Error(t, err)
}

func TestReportPage_ScenarioR1(t *testing.T) {
	rows := append(testutil.ScenarioR1(), testutil.RouteRows("R2", 100, testutil.TestTime(), 50)...)
	h := newTestRouter(t, pipelineOver(t, rows))

	rec := get(t, h, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="R1" selected>`)
	assert.Contains(t, body, `<option value="R2">`)
	assert.Contains(t, body, "Raw data (21 rows)")
	assert.Contains(t, body, "Speed forecast for route R1")
	assert.Contains(t, body, `class="band"`)
	assert.Contains(t, body, `class="line future"`)
	assert.Equal(t, 1, strings.Count(body, `class="anomaly-row"`))
	assert.Contains(t, body, "<td>38.0</td>")
	assert.Equal(t, 2, strings.Count(body, "<svg"))
}

func TestReportPage_SelectedRoute(t *testing.T) {
	fake := &fakeReports{
		routes: []string{"R1", "R2"},
		report: &model.RouteReport{RouteID: "R2"},
	}
	h := newTestRouter(t, fake)

	rec := get(t, h, "/?route=R2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"R2"}, fake.analyzed)
	assert.Contains(t, rec.Body.String(), `<option value="R2" selected>`)
	assert.Contains(t, rec.Body.String(), "No anomalies detected.")
}

func TestReportPage_InsufficientData(t *testing.T) {
	rows := testutil.RouteRows("R1", 1, testutil.TestTime(), 40, 41, 42, 43, 44)
	h := newTestRouter(t, pipelineOver(t, rows))

	rec := get(t, h, "/?route=R1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "insufficient data to fit a model: have 5 samples, need at least 10")
	assert.NotContains(t, body, "<svg")
	assert.Contains(t, body, "Raw data (5 rows)")
}

func TestReportPage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		fake       *fakeReports
		target     string
		wantStatus int
		wantText   string
	}{
		{
			name: "store unavailable",
			fake: &fakeReports{
				routesErr: apperrors.DataSource("could not connect to measurement store", errors.New("dial tcp: refused")),
			},
			target:     "/",
			wantStatus: http.StatusServiceUnavailable,
			wantText:   "could not connect to measurement store",
		},
		{
			name:       "unknown route",
			fake:       &fakeReports{routes: []string{"R1"}},
			target:     "/?route=R9",
			wantStatus: http.StatusNotFound,
			wantText:   "Unknown route R9.",
		},
		{
			name:       "empty store",
			fake:       &fakeReports{},
			target:     "/",
			wantStatus: http.StatusOK,
			wantText:   "No measurements recorded yet.",
		},
		{
			name: "model fit failure",
			fake: &fakeReports{
				routes:     []string{"R1"},
				analyzeErr: apperrors.ModelFit(errors.New("matrix is singular")),
			},
			target:     "/",
			wantStatus: http.StatusOK,
			wantText:   "forecast model fit failed",
		},
		{
			name: "unexpected failure",
			fake: &fakeReports{
				routes:     []string{"R1"},
				analyzeErr: errors.New("boom"),
			},
			target:     "/",
			wantStatus: http.StatusInternalServerError,
			wantText:   "The report could not be generated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestRouter(t, tt.fake), tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
}

func TestReportPage_RawRowLimit(t *testing.T) {
	rows := testutil.RouteRows("R1", 1, testutil.TestTime(), testutil.ConstantSpeeds(30, 50)...)
	fake := &fakeReports{routes: []string{"R1"}, rows: rows, report: &model.RouteReport{RouteID: "R1"}}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: embeddedTemplates(t)})
	require.NoError(t, err)
	h := &ReportHandlers{Svc: fake, T: tr, RawRowLimit: 10}

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Raw data (30 rows, showing 10)")
}

func TestReportAPI(t *testing.T) {
	rows := testutil.ScenarioR1()
	h := newTestRouter(t, pipelineOver(t, rows))

	t.Run("ok", func(t *testing.T) {
		rec := get(t, h, "/api/report?route=R1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "R1", got["route_id"])
		assert.Len(t, got["forecast"], 30)
		assert.Len(t, got["anomalies"], 1)
		assert.NotContains(t, got, "Raw")
	})

	t.Run("missing route", func(t *testing.T) {
		rec := get(t, h, "/api/report")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := get(t, h, "/api/report?route=R9")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
	})
}

func TestReportAPI_InsufficientData(t *testing.T) {
	rows := testutil.RouteRows("R1", 1, testutil.TestTime(), 40, 41)
	h := newTestRouter(t, pipelineOver(t, rows))

	rec := get(t, h, "/api/report?route=R1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"insufficient_data"`)
}
