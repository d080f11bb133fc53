// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the cleaning pipeline.
//
// The package exposes a narrow interface (Backend) of counters and timings and
// a global, pluggable backend that defaults to a no-op implementation, so
// instrumentation calls are always safe even when nothing is configured.
// Concrete systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal    = "studentetl_step_total"
	StepDuration = "studentetl_step_duration_seconds"
	RecordsTotal = "studentetl_records_total"
	RunsTotal    = "studentetl_runs_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
// Call it during start-up, before any pipeline runs.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline stage
// (normalize, dedupe, classify, validate, impute).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds mirror pipeline.Stats:
//   - "processed"
//   - "rejected"
//   - "deduplicated"
//   - "imputed"
//   - "imputed_zero"
//   - "output"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordRun counts one finished pipeline run under the schema it was
// classified as (e.g. "SecondaryEducation", "Unrecognized").
func RecordRun(job, schema string) {
	backend.IncCounter(RunsTotal, 1, Labels{
		"job":    job,
		"schema": schema,
	})
}
