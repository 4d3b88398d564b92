package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/routewatch/routewatch/internal/domain/job"
	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
	obserrors "github.com/routewatch/routewatch/internal/observability/errors"
	"github.com/routewatch/routewatch/internal/observability/metrics"
	"github.com/routewatch/routewatch/internal/observability/statsd"
)

// OrchestratorOptions groups dependencies for Orchestrator.
type OrchestratorOptions struct {
	Logger  *slog.Logger     // Optional: structured logger
	Metrics statsd.Sink      // Optional: metrics sink (StatsD-compatible)
	Out     io.Writer        // Optional: receives the timing lines; nil discards them
	Clock   func() time.Time // Optional: defaults to time.Now
}

// Orchestrator runs a job list once, in order, containing every failure.
type Orchestrator struct {
	logger  *slog.Logger
	metrics statsd.Sink
	out     io.Writer
	clock   func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{
		logger:  opts.Logger,
		metrics: opts.Metrics,
		out:     opts.Out,
		clock:   opts.Clock,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	o.logger = o.logger.With("component", "orchestrator")
	if o.out == nil {
		o.out = io.Discard
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	return o
}

// RunAll executes every descriptor sequentially and returns one record per descriptor, in
// order. A failing or panicking job is logged and the batch moves on; RunAll never stops
// early and has no failed state of its own.
func (o *Orchestrator) RunAll(ctx context.Context, jobs []job.Descriptor, ec job.ExecutionContext) model.BatchRun {
	run := model.BatchRun{
		RunID:     uuid.New(),
		StartedAt: o.clock(),
		Records:   make([]model.JobRunRecord, 0, len(jobs)),
	}

	o.logger.InfoContext(ctx, "batch started",
		"run_id", run.RunID.String(),
		"jobs", len(jobs),
		"degraded", ec.Degraded(),
	)

	failed := 0
	for _, d := range jobs {
		rec := o.runOne(ctx, run.RunID, d, ec)
		if rec.Outcome == model.JobOutcomeFailure {
			failed++
		}
		run.Records = append(run.Records, rec)
	}

	run.Duration = o.clock().Sub(run.StartedAt)
	o.printf("Total batch time: %s\n", formatSeconds(run.Duration))
	o.logger.InfoContext(ctx, "batch finished",
		"run_id", run.RunID.String(),
		"jobs", len(jobs),
		"failed", failed,
		"duration", run.Duration,
	)
	metrics.EmitBatch(o.metrics, metrics.BatchSummary{
		Jobs:     len(jobs),
		Failed:   failed,
		Duration: run.Duration,
	})

	return run
}

func (o *Orchestrator) runOne(
	ctx context.Context,
	runID uuid.UUID,
	d job.Descriptor,
	ec job.ExecutionContext,
) model.JobRunRecord {
	rec := model.JobRunRecord{
		RunID:     runID,
		Name:      d.Name,
		StartedAt: o.clock(),
	}

	o.logger.InfoContext(ctx, "job started", "job", d.Name)
	res := invoke(ctx, d, ec)
	rec.Duration = o.clock().Sub(rec.StartedAt)

	if res.OK() {
		rec.Outcome = model.JobOutcomeSuccess
		o.logger.InfoContext(ctx, "job finished", "job", d.Name, "duration", rec.Duration)
	} else {
		jobErr := apperrors.JobExecution(d.Name, res.Err())
		rec.Outcome = model.JobOutcomeFailure
		rec.Message = res.Err().Error()
		rec.ErrorClass = obserrors.Classify(res.Err())
		rec.Panicked = res.DidPanic()
		o.logger.ErrorContext(ctx, "job failed",
			"job", d.Name,
			"error", jobErr,
			"panicked", rec.Panicked,
			"duration", rec.Duration,
		)
	}

	o.printf("Job %s finished in %s (%s)\n", d.Name, formatSeconds(rec.Duration), rec.Outcome)
	metrics.EmitJobRun(o.metrics, metrics.JobRun{
		Name:     d.Name,
		Outcome:  string(rec.Outcome),
		Duration: rec.Duration,
		Panicked: rec.Panicked,
		Err:      res.Err(),
	})

	return rec
}

// invoke calls the job with its own recovery so a job that lets a panic escape still
// yields a failure result.
func invoke(ctx context.Context, d job.Descriptor, ec job.ExecutionContext) (res job.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = job.Panicked(r)
		}
	}()
	if d.Job == nil {
		return job.Failure(fmt.Errorf("job %s has no implementation", d.Name))
	}
	return d.Job.Execute(ctx, ec)
}

func (o *Orchestrator) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(o.out, format, args...); err != nil {
		o.logger.Warn("failed to write batch progress", "error", err)
	}
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
