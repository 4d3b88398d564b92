package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: measurement store and report cache configuration
//   - logging.go: log verbosity and the rotating debug file
//   - pipeline.go: series preparation, anomaly and forecast parameters
//   - http.go: report server configuration
//   - batch.go: maintenance job batch configuration
type AppConfig struct {
	// Debug selects debug verbosity for every log sink. Set DEBUG=true.
	Debug bool `env:"DEBUG" envDefault:"false"`

	Logging LogConfig

	// Database configuration
	Store DBConfig    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`
	Cache CacheConfig

	Pipeline PipelineConfig
	Forecast ForecastConfig

	// HTTP server configuration
	HTTP HTTPConfig

	Batch BatchConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Logging.Sanitize()
	c.Store.Sanitize()
	c.Cache.Sanitize()
	c.Pipeline.Sanitize()
	c.Forecast.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
}
