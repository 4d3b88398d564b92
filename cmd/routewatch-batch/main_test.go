package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/routewatch/routewatch/config"
	"github.com/stretchr/testify/assert"
)

func TestRun_DegradedStore(t *testing.T) {
	cfg := &config.AppConfig{
		// A sqlite store without a path cannot be opened.
		Store: config.DBConfig{Driver: config.DriverSQLite},
	}
	var out bytes.Buffer

	run(context.Background(), cfg, slog.New(slog.DiscardHandler), &out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Reference time: "))
	// Reference time, eight jobs and the total.
	assert.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Total batch time: "))
}

func TestRun_WithStore(t *testing.T) {
	cfg := &config.AppConfig{
		Store: config.DBConfig{Driver: config.DriverSQLite, Path: t.TempDir() + "/routes.db"},
		Batch: config.BatchConfig{IncludeOptionalJobs: true},
	}
	var out bytes.Buffer

	run(context.Background(), cfg, slog.New(slog.DiscardHandler), &out)

	assert.Equal(t, 10, strings.Count(out.String(), "Job "))
	assert.Contains(t, out.String(), "Total batch time: ")
}
