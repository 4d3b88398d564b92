package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelDebug))

	logger.Info("job finished", "job", "xml_export", "elapsed", 1500*time.Millisecond)

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))
	line = strings.TrimSuffix(line, "\n")

	ts, rest, ok := strings.Cut(line, " [")
	require.True(t, ok, "line %q", line)
	_, err := time.Parse(TimeLayout, ts)
	require.NoError(t, err)
	assert.Equal(t, "INFO] job finished | {job: xml_export, elapsed: 1.5s}", rest)
}

func TestLineHandler_NoAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelInfo))

	logger.Warn("store unavailable")

	assert.True(t, strings.HasSuffix(buf.String(), " [WARNING] store unavailable\n"), buf.String())
}

func TestLineHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestLineHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelDebug)).
		With("run_id", "abc").
		WithGroup("stage")

	logger.Error("fit failed", "name", "forecast", slog.Any("error", errors.New("singular")))

	assert.Contains(t, buf.String(), "[ERROR] fit failed | {run_id: abc, stage.name: forecast, stage.error: singular}")
}

func TestLineHandler_InlineGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, slog.LevelDebug))

	logger.Info("report", slog.Group("series", "route", "R1", "len", 20))

	assert.Contains(t, buf.String(), "| {series.route: R1, series.len: 20}")
}

func TestLineHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewLineHandler(&buf, slog.LevelDebug))
	child := base.With("job", "a")

	base.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "job: a")
	assert.Contains(t, lines[1], "job: a")
}
