// Package batchrunner wires the maintenance job registry to the orchestrator.
package batchrunner

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/routewatch/routewatch/config"
	"github.com/routewatch/routewatch/internal/adapters/maintenance"
	"github.com/routewatch/routewatch/internal/domain/job"
	"github.com/routewatch/routewatch/internal/domain/model"
	"github.com/routewatch/routewatch/internal/observability/statsd"
	"github.com/routewatch/routewatch/internal/service"
)

// FailureNotifier is told about every finished batch.
type FailureNotifier interface {
	NotifyBatch(ctx context.Context, run model.BatchRun)
}

// Runner runs one batch over the maintenance jobs.
type Runner struct {
	orchestrator *service.Orchestrator
	jobs         []job.Descriptor
	ec           job.ExecutionContext
	notifier     FailureNotifier
	logger       *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	// DB may be nil; the batch then runs in degraded mode.
	DB     *sql.DB
	Config config.BatchConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Jobs     []job.Descriptor
	Metrics  statsd.Sink
	Out      io.Writer
	Notifier FailureNotifier
}

// NewRunner creates a batch runner. Without explicit Jobs the maintenance registry is used.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	jobs := opts.Jobs
	if jobs == nil {
		jobs = maintenance.NewRegistry(maintenance.RegistryOptions{
			IncludeOptional: opts.Config.IncludeOptionalJobs,
			Logger:          opts.Logger,
		}).Descriptors()
	}

	return &Runner{
		orchestrator: service.NewOrchestrator(service.OrchestratorOptions{
			Logger:  opts.Logger,
			Metrics: opts.Metrics,
			Out:     opts.Out,
		}),
		jobs:     jobs,
		ec:       job.ExecutionContext{DB: opts.DB},
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
}

// Jobs returns the job names in run order.
func (r *Runner) Jobs() []string {
	names := make([]string, len(r.jobs))
	for i, d := range r.jobs {
		names[i] = d.Name
	}
	return names
}

// Run executes the batch once.
func (r *Runner) Run(ctx context.Context) model.BatchRun {
	if r.ec.Degraded() {
		r.logger.WarnContext(ctx, "running batch without a data store")
	}
	run := r.orchestrator.RunAll(ctx, r.jobs, r.ec)
	if r.notifier != nil {
		r.notifier.NotifyBatch(ctx, run)
	}
	return run
}
