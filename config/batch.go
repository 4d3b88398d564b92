package config

// BatchConfig controls the maintenance job batch.
type BatchConfig struct {
	// IncludeOptionalJobs appends the JSON export and route history jobs after the default list.
	IncludeOptionalJobs bool `env:"BATCH_INCLUDE_OPTIONAL_JOBS" envDefault:"false"`
}
