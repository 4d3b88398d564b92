package config

import "time"

// PipelineConfig controls series preparation and anomaly detection.
type PipelineConfig struct {
	// MaxSamples caps the series to the most recent samples of a route.
	MaxSamples int `env:"PIPELINE_MAX_SAMPLES" envDefault:"1000"`
	// SpeedCeiling drops implausible readings (speed >= ceiling) before modelling.
	SpeedCeiling float64 `env:"PIPELINE_SPEED_CEILING" envDefault:"150"`
	// MinSamples is the smallest cleaned series a model may be fitted on.
	MinSamples int `env:"PIPELINE_MIN_SAMPLES" envDefault:"10"`
	// AnomalyThreshold is the speed change between consecutive samples above which a sample is flagged.
	AnomalyThreshold float64 `env:"PIPELINE_ANOMALY_THRESHOLD" envDefault:"30"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (c *PipelineConfig) Sanitize() {
	if c.MaxSamples <= 0 {
		c.MaxSamples = 1000
	}
	if c.SpeedCeiling <= 0 {
		c.SpeedCeiling = 150
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 10
	}
	if c.AnomalyThreshold < 0 {
		c.AnomalyThreshold = 30
	}
}

// ForecastConfig exposes the forecast model parameters.
type ForecastConfig struct {
	ChangepointPriorScale float64       `env:"FORECAST_CHANGEPOINT_PRIOR_SCALE" envDefault:"0.05"`
	SeasonalityPriorScale float64       `env:"FORECAST_SEASONALITY_PRIOR_SCALE" envDefault:"0.1"`
	NChangepoints         int           `env:"FORECAST_N_CHANGEPOINTS"          envDefault:"25"`
	DailySeasonality      bool          `env:"FORECAST_DAILY_SEASONALITY"       envDefault:"true"`
	ChangepointRange      float64       `env:"FORECAST_CHANGEPOINT_RANGE"       envDefault:"0.8"`
	IntervalWidth         float64       `env:"FORECAST_INTERVAL_WIDTH"          envDefault:"0.8"`
	HorizonSteps          int           `env:"FORECAST_HORIZON_STEPS"           envDefault:"10"`
	Frequency             time.Duration `env:"FORECAST_FREQUENCY"               envDefault:"3m"`
}

// Sanitize applies guardrails to forecast configuration values.
func (c *ForecastConfig) Sanitize() {
	if c.ChangepointPriorScale <= 0 {
		c.ChangepointPriorScale = 0.05
	}
	if c.SeasonalityPriorScale <= 0 {
		c.SeasonalityPriorScale = 0.1
	}
	if c.NChangepoints < 0 {
		c.NChangepoints = 0
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		c.ChangepointRange = 0.8
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		c.IntervalWidth = 0.8
	}
	if c.HorizonSteps <= 0 {
		c.HorizonSteps = 10
	}
	if c.Frequency <= 0 {
		c.Frequency = 3 * time.Minute
	}
}
