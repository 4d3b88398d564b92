// Package metrics holds the metric vocabulary of the batch runner (StatsD) and the report
// server (Prometheus).
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/routewatch/routewatch/internal/observability/errors"
	"github.com/routewatch/routewatch/internal/observability/statsd"
)

// Outcome tags for job metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// JobRun captures one finished job for metric emission.
type JobRun struct {
	Name     string
	Outcome  string
	Duration time.Duration
	Panicked bool
	Err      error
}

// EmitJobRun emits the per-job counter and timing.
func EmitJobRun(sink statsd.Sink, in JobRun) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job":     in.Name,
		"outcome": in.Outcome,
	}
	if in.Outcome == OutcomeFailure {
		tags["panicked"] = strconv.FormatBool(in.Panicked)
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.run", 1, tags)
	sink.Timing("job.duration", in.Duration, CloneTags(tags))
}

// BatchSummary describes a completed batch.
type BatchSummary struct {
	Jobs     int
	Failed   int
	Duration time.Duration
}

// EmitBatch emits the batch total time and failure gauge.
func EmitBatch(sink statsd.Sink, in BatchSummary) {
	if sink == nil {
		return
	}
	sink.Timing("batch.duration", in.Duration, nil)
	sink.Gauge("batch.jobs", float64(in.Jobs), nil)
	sink.Gauge("batch.failed_jobs", float64(in.Failed), nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
