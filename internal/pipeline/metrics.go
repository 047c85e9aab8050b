package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/config"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/metrics"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/metrics/datadog"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/metrics/prompush"
)

// NewMetricsBackend builds the backend selected by m. It returns nil for
// "none" (or empty) and an error for an unknown name.
func NewMetricsBackend(m config.Metrics, job, runID string) (metrics.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
		return nil, nil
	case "pushgateway":
		b, err := prompush.NewBackend(job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b.Grouping("run_id", runID), nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: []string{"job:" + job, "run_id:" + runID},
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("pipeline: unknown metrics backend %q", m.Backend)
	}
}

// installMetrics installs the configured backend for the duration of a run.
// The returned func flushes it and restores the previous backend. With no
// backend configured, or one that cannot be built, the current backend is
// left in place.
func installMetrics(m config.Metrics, job, runID string, log *slog.Logger) func() {
	b, err := NewMetricsBackend(m, job, runID)
	if err != nil {
		log.Warn("metrics disabled", "backend", m.Backend, "error", err.Error())
	}
	if b == nil {
		return func() {}
	}

	log.Info("metrics enabled", "backend", m.Backend)
	prev := metrics.Swap(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "backend", m.Backend, "error", err.Error())
		}
		metrics.Swap(prev)
	}
}
