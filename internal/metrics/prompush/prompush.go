// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch run is too short-lived to be scraped, so the collectors live in a
// private registry that Flush pushes to the gateway once the run finishes.
// The job name is the Pushgateway job; further grouping labels (such as the
// run id) can be added with Grouping.
package prompush

import (
	"fmt"
	"sort"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	grouping   map[string]string
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // salesetl_stage_total
	stageDuration *prometheus.SummaryVec // salesetl_stage_duration_seconds
	rowCounter    *prometheus.CounterVec // salesetl_rows_total
	fillCounter   *prometheus.CounterVec // salesetl_filled_values_total
}

// NewBackend constructs a Pushgateway backend pushing to gatewayURL under
// jobName.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "salesetl"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows produced per kind (merged, cleaned, months).",
		},
		[]string{"kind"},
	)
	fillCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.FilledTotal,
			Help: "Missing values replaced by the column mean or mode.",
		},
		[]string{"column"},
	)

	for name, c := range map[string]prometheus.Collector{
		"stage counter": stageCounter,
		"stage summary": stageDuration,
		"row counter":   rowCounter,
		"fill counter":  fillCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		grouping:      map[string]string{},
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		rowCounter:    rowCounter,
		fillCounter:   fillCounter,
	}, nil
}

// Grouping adds a Pushgateway grouping label and returns b.
func (b *Backend) Grouping(name, value string) *Backend {
	if b.grouping == nil {
		b.grouping = map[string]string{}
	}
	b.grouping[name] = value
	return b
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter == nil {
			return
		}
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.FilledTotal:
		if b.fillCounter == nil {
			return
		}
		b.fillCounter.WithLabelValues(labels["column"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// metrics previously pushed for the same grouping key.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)

	keys := make([]string, 0, len(b.grouping))
	for k := range b.grouping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p = p.Grouping(k, b.grouping[k])
	}

	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
