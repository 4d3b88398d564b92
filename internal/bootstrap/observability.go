package bootstrap

import (
	"log/slog"
	"os"

	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/observability/notify/pagerduty"
	"github.com/routewatch/routewatch/internal/observability/notify/slack"
	"github.com/routewatch/routewatch/internal/observability/statsd"
	"github.com/routewatch/routewatch/internal/service/failurenotifier"
)

// NewMetricsSink builds the StatsD client for batch metrics. A disabled or unreachable
// sink yields a client that drops every metric.
func NewMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// NewFailureNotifier builds the batch failure notifier from the enabled sinks. A sink that
// cannot be built is logged and skipped.
func NewFailureNotifier(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) *failurenotifier.Service {
	if logger == nil {
		logger = slog.Default()
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	var metadata map[string]string
	if host, err := os.Hostname(); err == nil && host != "" {
		metadata = map[string]string{"host": host}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:   logger,
		Sinks:    sinks,
		Metadata: metadata,
	})
}
