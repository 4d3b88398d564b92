// Package job defines the contract between the batch orchestrator and the maintenance jobs
// it runs, plus the ordered registry the batch is built from.
package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ExecutionContext is shared by every job of a batch. DB is nil when the store could not
// be reached; jobs must tolerate that. The batch entrypoint owns and closes DB.
type ExecutionContext struct {
	DB *sql.DB
}

// Degraded reports whether the batch is running without a data store.
func (ec ExecutionContext) Degraded() bool { return ec.DB == nil }

// Result is the outcome a job reports back. The zero value is a success.
type Result struct {
	err      error
	panicked bool
}

// Success reports a completed job.
func Success() Result { return Result{} }

// Failure reports a failed job. A nil err is still a failure.
func Failure(err error) Result {
	if err == nil {
		err = errUnspecified
	}
	return Result{err: err}
}

// Panicked reports a job that panicked with v.
func Panicked(v any) Result {
	return Result{err: fmt.Errorf("panic: %v", v), panicked: true}
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.err == nil }

// Err returns the failure cause, or nil on success.
func (r Result) Err() error { return r.err }

// DidPanic reports whether the failure came from a recovered panic.
func (r Result) DidPanic() bool { return r.panicked }

var errUnspecified = errors.New("job failed without an error")

// Job is one named unit of maintenance work. Execute must contain its own failures,
// panics included, and report them through the Result.
type Job interface {
	Execute(ctx context.Context, ec ExecutionContext) Result
}

// Func adapts a plain function to Job. Returned errors become failures and panics are
// recovered into failures.
type Func func(ctx context.Context, ec ExecutionContext) error

// Execute implements Job.
func (f Func) Execute(ctx context.Context, ec ExecutionContext) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Panicked(r)
		}
	}()
	if err := f(ctx, ec); err != nil {
		return Failure(err)
	}
	return Success()
}

// Descriptor names a job for the registry.
type Descriptor struct {
	Name string
	Job  Job
}
