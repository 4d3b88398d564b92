package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	Debug bool
	// Console receives every line in addition to the file. Defaults to os.Stdout.
	Console io.Writer

	FilePath      string
	MaxSizeMB     int
	MaxBackups    int
	MaxAgeDays    int
	RotateOnStart bool
}

var (
	setupOnce sync.Once
	logger    *slog.Logger
	logFile   *lumberjack.Logger
	setupErr  error
)

// Setup builds the process logger the first time it is called and installs it as the slog
// default. Later calls return the same logger and ignore their options, so sinks are never
// attached twice.
func Setup(opts Options) (*slog.Logger, error) {
	setupOnce.Do(func() {
		logger, logFile, setupErr = build(opts)
		if setupErr == nil {
			slog.SetDefault(logger)
		}
	})
	return logger, setupErr
}

// Close flushes and closes the debug log file, if one was opened.
func Close() error {
	if logFile == nil {
		return nil
	}
	return logFile.Close()
}

func build(opts Options) (*slog.Logger, *lumberjack.Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	if opts.FilePath == "" {
		return slog.New(NewLineHandler(console, level)), nil, nil
	}

	file, err := openFile(opts)
	if err != nil {
		// Keep console logging alive so the failure itself is visible.
		fallback := slog.New(NewLineHandler(console, level))
		return fallback, nil, err
	}

	return slog.New(NewLineHandler(io.MultiWriter(console, file), level)), file, nil
}

func openFile(opts Options) (*lumberjack.Logger, error) {
	file := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	if opts.RotateOnStart {
		if info, err := os.Stat(opts.FilePath); err == nil && info.Size() > 0 {
			if err := file.Rotate(); err != nil {
				return nil, fmt.Errorf("rotate log file %s: %w", opts.FilePath, err)
			}
		}
	}

	return file, nil
}
