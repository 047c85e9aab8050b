// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the sales ETL run.
//
// Backends (Prometheus Pushgateway, DogStatsD) live in subpackages and are
// installed with SetBackend. Until one is installed every call goes to a
// no-op backend, so instrumentation is always safe to call.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StageTotal    = "salesetl_stage_total"
	StageDuration = "salesetl_stage_duration_seconds"
	RowsTotal     = "salesetl_rows_total"
	FilledTotal   = "salesetl_filled_values_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
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
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Swap installs b and returns the backend it replaced. A nil b installs the
// no-op backend.
func Swap(b Backend) Backend {
	prev := backend
	if b == nil {
		b = nopBackend{}
	}
	backend = b
	return prev
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage counts one execution of a pipeline stage and observes its
// duration, labeled with the outcome.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds n to the row counter of the given kind. Kinds used by the
// pipeline:
//   - "merged": rows after the join
//   - "cleaned": rows in the cleaned table
//   - "months": rows in the aggregate table
func RecordRows(job, kind string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(n), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFill adds n to the count of missing values filled in column.
func RecordFill(job, column string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(FilledTotal, float64(n), Labels{
		"job":    job,
		"column": column,
	})
}
