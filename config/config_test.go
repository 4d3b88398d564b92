package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("DEBUG", "")
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Debug {
		t.Fatalf("expected debug to default to false")
	}
	if cfg.Pipeline.MaxSamples != 1000 || cfg.Pipeline.MinSamples != 10 {
		t.Fatalf("unexpected sample limits: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.SpeedCeiling != 150 || cfg.Pipeline.AnomalyThreshold != 30 {
		t.Fatalf("unexpected speed limits: %+v", cfg.Pipeline)
	}
	if cfg.Forecast.HorizonSteps != 10 || cfg.Forecast.Frequency != 3*time.Minute {
		t.Fatalf("unexpected horizon: %+v", cfg.Forecast)
	}
	if cfg.Forecast.NChangepoints != 25 || !cfg.Forecast.DailySeasonality {
		t.Fatalf("unexpected forecast defaults: %+v", cfg.Forecast)
	}
	if cfg.Store.Table != "historic_routes" {
		t.Fatalf("unexpected table %q", cfg.Store.Table)
	}
	if cfg.Logging.Path() != "logs/debug.log" {
		t.Fatalf("unexpected log path %q", cfg.Logging.Path())
	}
}

func TestAppConfig_ParseStoreEnv(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_PASS", "s3cret")
	t.Setenv("DB_NAME", "portal")
	t.Setenv("DB_PORT", "")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if !cfg.Debug {
		t.Fatalf("expected debug to be enabled")
	}
	want := DBConfig{
		Driver:         DriverMySQL,
		Host:           "db.internal",
		Port:           3306,
		User:           "portal",
		Password:       "s3cret",
		Name:           "portal",
		SSLMode:        "disable",
		Path:           "routewatch.db",
		Table:          "historic_routes",
		ConnectTimeout: 5 * time.Second,
	}
	if cfg.Store != want {
		t.Fatalf("unexpected store configuration:\nexpected: %#v\ngot:      %#v", want, cfg.Store)
	}
}

func TestDBConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name       string
		in         DBConfig
		wantDriver string
		wantPort   int
		wantTable  string
	}{
		{
			name:       "postgres alias",
			in:         DBConfig{Driver: "pgx", Table: "historic_routes"},
			wantDriver: DriverPostgres,
			wantPort:   5432,
			wantTable:  "historic_routes",
		},
		{
			name:       "unknown driver falls back to postgres",
			in:         DBConfig{Driver: "oracle", Table: "routes"},
			wantDriver: DriverPostgres,
			wantPort:   5432,
			wantTable:  "routes",
		},
		{
			name:       "sqlite keeps zero port",
			in:         DBConfig{Driver: "sqlite3", Table: "public.historic_routes"},
			wantDriver: DriverSQLite,
			wantPort:   0,
			wantTable:  "public.historic_routes",
		},
		{
			name:       "injection attempt resets table",
			in:         DBConfig{Driver: "mysql", Table: "routes; DROP TABLE users"},
			wantDriver: DriverMySQL,
			wantPort:   3306,
			wantTable:  "historic_routes",
		},
		{
			name:       "explicit port kept",
			in:         DBConfig{Driver: "postgres", Port: 6543, Table: "t"},
			wantDriver: DriverPostgres,
			wantPort:   6543,
			wantTable:  "t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Sanitize()
			if cfg.Driver != tt.wantDriver {
				t.Errorf("driver = %q, want %q", cfg.Driver, tt.wantDriver)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.Table != tt.wantTable {
				t.Errorf("table = %q, want %q", cfg.Table, tt.wantTable)
			}
		})
	}
}

func TestForecastConfig_Sanitize(t *testing.T) {
	cfg := ForecastConfig{
		ChangepointPriorScale: -1,
		NChangepoints:         -3,
		ChangepointRange:      1.5,
		IntervalWidth:         1,
	}
	cfg.Sanitize()

	if cfg.ChangepointPriorScale != 0.05 {
		t.Fatalf("expected default changepoint prior, got %v", cfg.ChangepointPriorScale)
	}
	if cfg.SeasonalityPriorScale != 0.1 {
		t.Fatalf("expected default seasonality prior, got %v", cfg.SeasonalityPriorScale)
	}
	if cfg.NChangepoints != 0 {
		t.Fatalf("expected changepoints clamped to zero, got %d", cfg.NChangepoints)
	}
	if cfg.ChangepointRange != 0.8 || cfg.IntervalWidth != 0.8 {
		t.Fatalf("expected range and width defaults, got %v %v", cfg.ChangepointRange, cfg.IntervalWidth)
	}
	if cfg.HorizonSteps != 10 || cfg.Frequency != 3*time.Minute {
		t.Fatalf("expected horizon defaults, got %d %v", cfg.HorizonSteps, cfg.Frequency)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{ReadTimeout: 30 * time.Second, WriteTimeout: time.Second}
	cfg.Sanitize()

	if cfg.Addr != ":8501" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("expected write timeout raised to read timeout, got %v", cfg.WriteTimeout)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Username:   " ",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Fatalf("expected retry limit to be clamped to 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled || cfg.Slack.Username != "routewatch" {
		t.Fatalf("expected slack disabled with default username, got %+v", cfg.Slack)
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != "routewatch" || cfg.PagerDuty.Component != "routewatch-batch" {
		t.Fatalf("expected pagerduty defaults, got %+v", cfg.PagerDuty)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/test"},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "abc"},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatal("expected sinks to be disabled when top-level notifications disabled")
	}
}
