// Package pipeline runs the sales ETL end to end: extract, transform,
// aggregate, load, then check that the cleaned file exists.
//
// Stages run one after another on one goroutine. Each stage is logged with
// its row count and duration and recorded through the metrics package; the
// first failing stage aborts the run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/aggregate"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/config"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/extract"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/load"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/logger"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/metrics"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/transform"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
)

// Stage names used in logs and metrics.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageAggregate = "aggregate"
	StageLoad      = "load"
	StageValidate  = "validate"
)

// ErrOutputMissing is returned when the cleaned file is not on disk after a
// load that reported success.
var ErrOutputMissing = errors.New("pipeline: cleaned output does not exist")

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID string `json:"run_id"`
	Job   string `json:"job"`

	MergedRows  int `json:"merged_rows"`
	CleanedRows int `json:"cleaned_rows"`
	Months      int `json:"months"`

	HolidayMonths  []int            `json:"holiday_months"`
	RelevantMonths []int            `json:"relevant_months"`
	Fills          []transform.Fill `json:"fills,omitempty"`
	Synthesized    []string         `json:"synthesized,omitempty"`

	// Cleaned and Aggregate describe the written files.
	Cleaned   load.Report `json:"cleaned"`
	Aggregate load.Report `json:"aggregate"`

	// FailedStage names the stage that aborted the run, if any.
	FailedStage string        `json:"failed_stage,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type runner struct {
	cfg config.Pipeline
	log *slog.Logger
	sum Summary
}

// Run executes the pipeline described by cfg. The returned Summary is
// filled as far as the run got, also on error.
func Run(ctx context.Context, cfg config.Pipeline) (Summary, error) {
	runID := uuid.NewString()
	r := &runner{
		cfg: cfg,
		log: logger.WithRun(runID, cfg.Job),
		sum: Summary{RunID: runID, Job: cfg.Job},
	}
	done := installMetrics(cfg.Metrics, cfg.Job, runID, r.log)
	defer done()

	start := time.Now()
	err := r.run(ctx)
	r.sum.Duration = time.Since(start)

	if err != nil {
		r.log.Error("run failed",
			"stage", r.sum.FailedStage,
			"kind", string(etlerr.KindOf(err)),
			"error", err.Error(),
		)
		return r.sum, err
	}
	r.log.Info("run completed",
		"cleaned_rows", r.sum.CleanedRows,
		"months", r.sum.Months,
		"duration_ms", r.sum.Duration.Milliseconds(),
	)
	return r.sum, nil
}

func (r *runner) run(ctx context.Context) error {
	var merged, cleaned, agg dataframe.DataFrame

	err := r.stage(StageExtract, func() (int, error) {
		var err error
		merged, err = extract.Extract(ctx, extract.Sources{
			Locator:      r.cfg.Source.Relational.Locator,
			Table:        r.cfg.Source.Relational.Table,
			ColumnarPath: r.cfg.Source.Columnar.Path,
		})
		r.sum.MergedRows = merged.Nrow()
		return merged.Nrow(), err
	})
	if err != nil {
		return err
	}
	metrics.RecordRows(r.cfg.Job, "merged", r.sum.MergedRows)

	err = r.stage(StageTransform, func() (int, error) {
		res, err := transform.Run(merged, transform.Options{
			StrictSchema: r.cfg.Transform.StrictSchema,
			Logger:       r.log,
		})
		if err != nil {
			return 0, err
		}
		cleaned = res.Data
		r.sum.CleanedRows = cleaned.Nrow()
		r.sum.HolidayMonths = res.HolidayMonths
		r.sum.RelevantMonths = res.RelevantMonths
		r.sum.Fills = res.Fills
		r.sum.Synthesized = res.Synthesized
		return cleaned.Nrow(), nil
	})
	if err != nil {
		return err
	}
	metrics.RecordRows(r.cfg.Job, "cleaned", r.sum.CleanedRows)
	for _, f := range r.sum.Fills {
		metrics.RecordFill(r.cfg.Job, f.Column, f.Filled)
	}

	err = r.stage(StageAggregate, func() (int, error) {
		var err error
		agg, err = aggregate.MonthlyAverage(cleaned)
		r.sum.Months = agg.Nrow()
		return agg.Nrow(), err
	})
	if err != nil {
		return err
	}
	metrics.RecordRows(r.cfg.Job, "months", r.sum.Months)

	err = r.stage(StageLoad, func() (int, error) {
		err := load.Load(ctx, cleaned, agg, load.Paths{
			Cleaned:   r.cfg.Output.Cleaned,
			Aggregate: r.cfg.Output.Aggregate,
			Report:    r.cfg.Output.Report,
		})
		return cleaned.Nrow() + agg.Nrow(), err
	})
	if err != nil {
		return err
	}

	return r.stage(StageValidate, func() (int, error) {
		if !load.ValidateWith(r.log, r.cfg.Output.Cleaned) {
			return 0, ErrOutputMissing
		}
		var err error
		if r.sum.Cleaned, err = load.Inspect(r.cfg.Output.Cleaned); err != nil {
			return 0, err
		}
		if r.sum.Aggregate, err = load.Inspect(r.cfg.Output.Aggregate); err != nil {
			return 0, err
		}
		return r.sum.Cleaned.Rows, nil
	})
}

// stage runs fn as the named stage, logging and recording its outcome.
func (r *runner) stage(name string, fn func() (int, error)) error {
	logger.StageStart(r.log, name)
	start := time.Now()
	rows, err := fn()
	d := time.Since(start)
	logger.StageEnd(r.log, name, rows, d, err)
	metrics.RecordStage(r.cfg.Job, name, err, d)
	if err != nil {
		r.sum.FailedStage = name
	}
	return err
}
