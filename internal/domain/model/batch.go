package model

import (
	"time"

	"github.com/google/uuid"
)

// JobOutcome is the terminal state of one job in a batch.
type JobOutcome string

const (
	// JobOutcomeSuccess indicates the job returned without error.
	JobOutcomeSuccess JobOutcome = "success"
	// JobOutcomeFailure indicates the job returned an error or panicked.
	JobOutcomeFailure JobOutcome = "failure"
)

// Valid returns true if the outcome is known.
func (o JobOutcome) Valid() bool {
	return o == JobOutcomeSuccess || o == JobOutcomeFailure
}

// JobRunRecord describes one job execution inside a batch.
type JobRunRecord struct {
	RunID     uuid.UUID     `json:"run_id"`
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcome   JobOutcome    `json:"outcome"`
	// Message carries the failure text; empty on success.
	Message string `json:"message,omitempty"`
	// ErrorClass is the low-cardinality class of the failure, as used in metric tags.
	ErrorClass string `json:"error_class,omitempty"`
	// Panicked is set when the failure was a recovered panic.
	Panicked bool `json:"panicked,omitempty"`
}

// BatchRun is the result of one pass over the job list. It has no aggregate success flag.
type BatchRun struct {
	RunID     uuid.UUID      `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Records   []JobRunRecord `json:"records"`
}

// Failures returns the records whose outcome is failure, in batch order.
func (b BatchRun) Failures() []JobRunRecord {
	var out []JobRunRecord
	for _, r := range b.Records {
		if r.Outcome == JobOutcomeFailure {
			out = append(out, r)
		}
	}
	return out
}
