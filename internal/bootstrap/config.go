// Package bootstrap wires configuration, logging, stores and servers for the entrypoints.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/observability/logging"
)

// InitLogger builds the process logger: line records on stdout and in the rotating debug
// file. If the file cannot be opened the console logger is returned with the error.
func InitLogger(cfg config.AppConfig) (*slog.Logger, error) {
	return logging.Setup(logging.Options{
		Debug:         cfg.Debug,
		Console:       os.Stdout,
		FilePath:      cfg.Logging.Path(),
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxBackups:    cfg.Logging.MaxBackups,
		MaxAgeDays:    cfg.Logging.MaxAgeDays,
		RotateOnStart: cfg.Logging.RotateOnStart,
	})
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
