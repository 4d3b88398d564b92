package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/routewatch/routewatch/internal/domain/job"
	"github.com/routewatch/routewatch/internal/domain/model"
	"github.com/routewatch/routewatch/internal/mocks"
	"github.com/routewatch/routewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

// panickingJob panics straight out of Execute, bypassing job.Func recovery.
type panickingJob struct{}

func (panickingJob) Execute(context.Context, job.ExecutionContext) job.Result {
	panic("unexpected state")
}

func recordingJob(name string, calls *[]string, err error) job.Descriptor {
	return job.Descriptor{
		Name: name,
		Job: job.Func(func(context.Context, job.ExecutionContext) error {
			*calls = append(*calls, name)
			return err
		}),
	}
}

func TestOrchestrator_RunAll_AllSucceed(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	o := NewOrchestrator(OrchestratorOptions{
		Out:   &out,
		Clock: steppingClock(testutil.TestTime(), time.Second),
	})

	jobs := []job.Descriptor{
		recordingJob("traffic_alerts", &calls, nil),
		recordingJob("notifications", &calls, nil),
		recordingJob("traffic_jams", &calls, nil),
	}

	run := o.RunAll(context.Background(), jobs, job.ExecutionContext{})

	assert.Equal(t, []string{"traffic_alerts", "notifications", "traffic_jams"}, calls)
	assert.NotEqual(t, uuid.Nil, run.RunID)
	assert.True(t, run.StartedAt.Equal(testutil.TestTime()))
	require.Len(t, run.Records, 3)
	for i, rec := range run.Records {
		assert.Equal(t, jobs[i].Name, rec.Name)
		assert.Equal(t, model.JobOutcomeSuccess, rec.Outcome)
		assert.Equal(t, run.RunID, rec.RunID)
		assert.Equal(t, time.Second, rec.Duration)
		assert.Empty(t, rec.Message)
	}
	assert.Empty(t, run.Failures())
	// One tick for the start, two per job.
	assert.Equal(t, 7*time.Second, run.Duration)

	printed := out.String()
	assert.Contains(t, printed, "Job traffic_alerts finished in 1.00s (success)")
	assert.Contains(t, printed, "Total batch time: 7.00s")
}

func TestOrchestrator_RunAll_ContinuesAfterFailures(t *testing.T) {
	tests := []struct {
		name        string
		failing     job.Job
		wantMessage string
		wantPanic   bool
	}{
		{
			name: "returned error",
			failing: job.Func(func(context.Context, job.ExecutionContext) error {
				return errors.New("data store unavailable")
			}),
			wantMessage: "data store unavailable",
		},
		{
			name: "panic inside job.Func",
			failing: job.Func(func(context.Context, job.ExecutionContext) error {
				panic("boom")
			}),
			wantMessage: "panic: boom",
			wantPanic:   true,
		},
		{
			name:        "panic escaping Execute",
			failing:     panickingJob{},
			wantMessage: "panic: unexpected state",
			wantPanic:   true,
		},
		{
			name:        "missing implementation",
			failing:     nil,
			wantMessage: "job broken has no implementation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			var logs bytes.Buffer
			o := NewOrchestrator(OrchestratorOptions{
				Logger: slog.New(slog.NewTextHandler(&logs, nil)),
			})

			jobs := []job.Descriptor{
				recordingJob("first", &calls, nil),
				{Name: "broken", Job: tt.failing},
				recordingJob("last", &calls, nil),
			}

			run := o.RunAll(context.Background(), jobs, job.ExecutionContext{})

			assert.Equal(t, []string{"first", "last"}, calls)
			require.Len(t, run.Records, 3)
			assert.Equal(t, []string{"first", "broken", "last"}, []string{
				run.Records[0].Name, run.Records[1].Name, run.Records[2].Name,
			})

			broken := run.Records[1]
			assert.Equal(t, model.JobOutcomeFailure, broken.Outcome)
			assert.Equal(t, tt.wantMessage, broken.Message)
			assert.Equal(t, tt.wantPanic, broken.Panicked)
			assert.NotEmpty(t, broken.ErrorClass)
			assert.Equal(t, model.JobOutcomeSuccess, run.Records[2].Outcome)
			assert.Len(t, run.Failures(), 1)

			assert.Contains(t, logs.String(), "job failed")
			assert.Contains(t, logs.String(), "job=broken")
		})
	}
}

func TestOrchestrator_RunAll_Empty(t *testing.T) {
	var out bytes.Buffer
	o := NewOrchestrator(OrchestratorOptions{Out: &out})

	run := o.RunAll(context.Background(), nil, job.ExecutionContext{})

	assert.Empty(t, run.Records)
	assert.True(t, strings.HasPrefix(out.String(), "Total batch time:"))
}

func TestOrchestrator_RunAll_PassesExecutionContext(t *testing.T) {
	db := testutil.SetupSQLiteDB(t, "historic_routes")
	ec := job.ExecutionContext{DB: db}

	var seen job.ExecutionContext
	o := NewOrchestrator(OrchestratorOptions{})
	o.RunAll(context.Background(), []job.Descriptor{{
		Name: "probe",
		Job: job.Func(func(_ context.Context, got job.ExecutionContext) error {
			seen = got
			return nil
		}),
	}}, ec)

	assert.Same(t, db, seen.DB)
}

func TestOrchestrator_RunAll_EmitsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	sink.EXPECT().Count("job.run", int64(1), map[string]string{"job": "ok", "outcome": "success"})
	sink.EXPECT().Timing("job.duration", 2*time.Second, map[string]string{"job": "ok", "outcome": "success"})
	sink.EXPECT().Count("job.run", int64(1), map[string]string{
		"job":         "bad",
		"outcome":     "failure",
		"panicked":    "false",
		"error_class": "errors_errorstring",
	})
	sink.EXPECT().Timing("job.duration", 2*time.Second, gomock.Any())
	sink.EXPECT().Timing("batch.duration", 10*time.Second, gomock.Nil())
	sink.EXPECT().Gauge("batch.jobs", float64(2), gomock.Nil())
	sink.EXPECT().Gauge("batch.failed_jobs", float64(1), gomock.Nil())

	o := NewOrchestrator(OrchestratorOptions{
		Metrics: sink,
		Clock:   steppingClock(testutil.TestTime(), 2*time.Second),
	})

	var calls []string
	run := o.RunAll(context.Background(), []job.Descriptor{
		recordingJob("ok", &calls, nil),
		recordingJob("bad", &calls, errors.New("nope")),
	}, job.ExecutionContext{})

	require.Len(t, run.Records, 2)
}
