package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// DefaultRawRowLimit caps the rows listed in the raw data view.
const DefaultRawRowLimit = 500

const pageTitle = "Route speed forecast and anomalies"

// ReportService is the pipeline as seen by the report handlers.
type ReportService interface {
	Routes(ctx context.Context) ([]string, []model.Measurement, error)
	Analyze(ctx context.Context, rows []model.Measurement, routeID string) (*model.RouteReport, error)
}

// ReportHandlers serves the route report page and its JSON form.
type ReportHandlers struct {
	Svc         ReportService
	T           *TemplateRenderer
	Logger      *slog.Logger
	RawRowLimit int
}

type reportPage struct {
	Title    string
	Routes   []string
	Selected string
	Message  string
	RawRows  []model.Measurement
	RawTotal int
	Report   *model.RouteReport
	Forecast *chartView
	Speed    *chartView
}

// Page renders GET /?route=<id>. Without a route the first route is shown. A route that
// cannot be modelled still renders with its message; store failures render with 503.
func (h *ReportHandlers) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := reportPage{Title: pageTitle}

	routes, rows, err := h.Svc.Routes(ctx)
	if err != nil {
		status, _ := errorStatus(err)
		h.logError(ctx, "load routes", err)
		page.Message = userMessage(err)
		h.render(w, status, page)
		return
	}

	page.Routes = routes
	page.RawTotal = len(rows)
	page.RawRows = rows[:min(len(rows), h.rawLimit())]

	page.Selected = r.URL.Query().Get("route")
	switch {
	case len(routes) == 0:
		page.Message = "No measurements recorded yet."
		h.render(w, http.StatusOK, page)
		return
	case page.Selected == "":
		page.Selected = routes[0]
	case !slices.Contains(routes, page.Selected):
		page.Message = "Unknown route " + page.Selected + "."
		h.render(w, http.StatusNotFound, page)
		return
	}

	report, err := h.Svc.Analyze(ctx, rows, page.Selected)
	if err != nil {
		status, _ := errorStatus(err)
		if status == http.StatusUnprocessableEntity {
			// The route is shown with an explanation rather than as a failed request.
			status = http.StatusOK
		} else {
			h.logError(ctx, "analyze route", err)
		}
		page.Message = userMessage(err)
		h.render(w, status, page)
		return
	}

	page.Report = report
	page.Forecast = forecastChart(report)
	page.Speed = speedChart(report.Series)
	h.render(w, http.StatusOK, page)
}

// API serves GET /api/report?route=<id> as JSON.
func (h *ReportHandlers) API(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routeID := r.URL.Query().Get("route")
	if routeID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     apperrors.ValidationField("route", "route is required"),
		})
		return
	}

	routes, rows, err := h.Svc.Routes(ctx)
	if err == nil && !slices.Contains(routes, routeID) {
		err = apperrors.NotFoundf("route %s not found", routeID)
	}
	var report *model.RouteReport
	if err == nil {
		report, err = h.Svc.Analyze(ctx, rows, routeID)
	}
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logError(ctx, "report api", err)
		}
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

func (h *ReportHandlers) render(w http.ResponseWriter, status int, page reportPage) {
	if err := h.T.Render(w, status, reportTemplate, page); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *ReportHandlers) rawLimit() int {
	if h.RawRowLimit > 0 {
		return h.RawRowLimit
	}
	return DefaultRawRowLimit
}

func (h *ReportHandlers) logError(ctx context.Context, op string, err error) {
	if h.Logger != nil {
		h.Logger.ErrorContext(ctx, op+" failed", "error", err)
	}
}
