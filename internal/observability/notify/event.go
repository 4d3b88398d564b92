// Package notify defines the payload and sink contract for batch job failure notifications.
package notify

import (
	"context"
	"time"

	"github.com/routewatch/routewatch/internal/domain/model"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
)

// JobFailurePayload captures the canonical data we emit for job failure notifications.
type JobFailurePayload struct {
	RunID      string
	Job        string
	Error      string
	ErrorClass string
	Panicked   bool
	Duration   time.Duration
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// FromRecord builds the payload for a failed job record. Panics are critical, returned
// errors are plain errors.
func FromRecord(rec model.JobRunRecord) JobFailurePayload {
	severity := SeverityError
	if rec.Panicked {
		severity = SeverityCritical
	}
	return JobFailurePayload{
		RunID:      rec.RunID.String(),
		Job:        rec.Name,
		Error:      rec.Message,
		ErrorClass: rec.ErrorClass,
		Panicked:   rec.Panicked,
		Duration:   rec.Duration,
		Severity:   severity,
		OccurredAt: rec.StartedAt.Add(rec.Duration),
	}
}

// Sink describes a destination capable of consuming job failure notifications.
type Sink interface {
	SendJobFailure(ctx context.Context, payload JobFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload JobFailurePayload) error

// SendJobFailure implements the Sink interface.
func (f SinkFunc) SendJobFailure(ctx context.Context, payload JobFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
