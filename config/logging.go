package config

import (
	"path/filepath"
	"strings"
)

// LogConfig controls the debug log file written next to the console output.
type LogConfig struct {
	Dir           string `env:"LOG_DIR"             envDefault:"logs"`
	File          string `env:"LOG_FILE"            envDefault:"debug.log"`
	MaxSizeMB     int    `env:"LOG_MAX_SIZE_MB"     envDefault:"10"`
	MaxBackups    int    `env:"LOG_MAX_BACKUPS"     envDefault:"5"`
	MaxAgeDays    int    `env:"LOG_MAX_AGE_DAYS"    envDefault:"30"`
	RotateOnStart bool   `env:"LOG_ROTATE_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to logging configuration values.
func (c *LogConfig) Sanitize() {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.Dir == "" {
		c.Dir = "logs"
	}
	c.File = strings.TrimSpace(c.File)
	if c.File == "" {
		c.File = "debug.log"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 0
	}
	if c.MaxAgeDays < 0 {
		c.MaxAgeDays = 0
	}
}

// Path returns the full path of the debug log file.
func (c LogConfig) Path() string {
	return filepath.Join(c.Dir, c.File)
}
