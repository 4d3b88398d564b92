package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stage names.
const (
	StageQuery   = "query"
	StagePrepare = "prepare"
	StageFit     = "fit"
	StagePredict = "predict"
	StageDetect  = "detect"
)

// PipelineMetrics are the report server's Prometheus instruments.
type PipelineMetrics struct {
	Runs          *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Anomalies     prometheus.Counter
	CacheLookups  *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline instruments with reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routewatch_pipeline_runs_total",
				Help: "Pipeline runs by result (ok or an error code)",
			},
			[]string{"result"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routewatch_pipeline_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
			},
			[]string{"stage"},
		),
		Anomalies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "routewatch_anomalies_detected_total",
				Help: "Anomalies flagged across all pipeline runs",
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routewatch_report_cache_lookups_total",
				Help: "Report cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
	}
}

// ObserveStage records how long a stage took. Safe on a nil receiver.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run. Safe on a nil receiver.
func (m *PipelineMetrics) RecordRun(result string, anomalies int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result).Inc()
	if anomalies > 0 {
		m.Anomalies.Add(float64(anomalies))
	}
}

// RecordCacheLookup counts a cache lookup. Safe on a nil receiver.
func (m *PipelineMetrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
