package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/routewatch/routewatch"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Reports ReportService // Required
	// Optional: /healthz also pings the store when set.
	Store Pinger
	// Optional: served on /metrics when set.
	Metrics prometheus.Gatherer
	// Optional: defaults to the embedded templates.
	TemplateFS fs.FS
	Logger     *slog.Logger
}

// NewRouter creates the report server's routes.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Reports == nil {
		return nil, errors.New("report service is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS := services.TemplateFS
	if templateFS == nil {
		sub, err := fs.Sub(routewatch.TemplateFS, "web/templates")
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		templateFS = sub
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	reports := &ReportHandlers{Svc: services.Reports, T: tr, Logger: logger}
	health := &HealthHandler{Store: services.Store, Logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", reports.Page)
	mux.HandleFunc("GET /api/report", reports.API)
	mux.Handle("GET /healthz", health)
	if services.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(services.Metrics, promhttp.HandlerOpts{}))
	}

	return mux, nil
}
