// Package transform turns the merged sales table into the cleaned table:
// missing-value fill, month derivation, the holiday-window filter and the
// final projection.
package transform

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/logger"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// SalesThreshold is the exclusive lower bound on Weekly_Sales for a row to
// be kept.
const SalesThreshold = 10000.0

// Column names used by the transform.
const (
	ColStoreID      = "Store_ID"
	ColDept         = "Dept"
	ColDate         = "Date"
	ColWeeklySales  = "Weekly_Sales"
	ColIsHoliday    = "IsHoliday"
	ColMonth        = "Month"
	ColType         = "Type"
	ColSize         = "Size"
	ColCPI          = "CPI"
	ColUnemployment = "Unemployment"
)

// Required lists the merged-table columns the transform cannot work without.
var Required = []string{ColStoreID, ColDept, ColDate, ColWeeklySales, ColIsHoliday}

// Output is the exact column order of the cleaned table.
var Output = []string{ColStoreID, ColMonth, ColDept, ColIsHoliday, ColWeeklySales, ColCPI, ColUnemployment}

// Optional columns and the statistic used to fill their missing values.
var (
	meanFilled = []string{ColUnemployment, ColCPI}
	modeFilled = []string{ColType, ColSize}
)

// Options tunes the transform.
type Options struct {
	// StrictSchema fails projection with a schema error when CPI or
	// Unemployment is absent. Otherwise the column is emitted with every
	// value missing.
	StrictSchema bool

	// Logger receives fill and filter details. Nil uses logger.Logger.
	Logger *slog.Logger
}

// Fill records one null-fill applied to a column.
type Fill struct {
	Column string
	Value  any
	Filled int // number of values replaced
}

// Result is the cleaned table plus what the transform decided on the way.
type Result struct {
	Data           dataframe.DataFrame
	Fills          []Fill
	HolidayMonths  []int
	RelevantMonths []int
	// Synthesized lists output columns emitted as all-missing because the
	// input lacked them.
	Synthesized []string
}

// Transform runs the transform with default options and returns the cleaned
// table.
func Transform(merged dataframe.DataFrame) (dataframe.DataFrame, error) {
	res, err := Run(merged, Options{})
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return res.Data, nil
}

// Run fills, derives, filters and projects merged. Fill values are computed
// over the whole merged table, before filtering.
func Run(merged dataframe.DataFrame, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Logger
	}
	if merged.Err != nil {
		return Result{}, etlerr.Schema("transform: input", merged.Err)
	}
	if missing := frame.Missing(merged, Required...); len(missing) > 0 {
		return Result{}, etlerr.Schema("transform: input", fmt.Errorf("missing required columns %s", strings.Join(missing, ", ")))
	}

	df, fills, err := FillMissing(merged)
	if err != nil {
		return Result{}, err
	}
	for _, f := range fills {
		log.Debug("filled missing values", "column", f.Column, "value", f.Value, "count", f.Filled)
	}

	months, err := DeriveMonth(df.Col(ColDate))
	if err != nil {
		return Result{}, err
	}
	df = df.Mutate(months).Mutate(frame.AsFloat(df.Col(ColWeeklySales)))
	if df.Err != nil {
		return Result{}, etlerr.Schema("transform: derive", df.Err)
	}

	holidays := HolidayMonths(df)
	relevant := RelevantMonths(holidays)
	log.Debug("holiday window", "holiday_months", holidays, "relevant_months", relevant)

	df = Filter(df, relevant)
	if df.Err != nil {
		return Result{}, etlerr.Schema("transform: filter", df.Err)
	}

	out, synthesized, err := Project(df, opts.StrictSchema)
	if err != nil {
		return Result{}, err
	}
	for _, c := range synthesized {
		log.Warn("output column absent from input; emitting missing values", "column", c)
	}

	return Result{
		Data:           out,
		Fills:          fills,
		HolidayMonths:  holidays,
		RelevantMonths: relevant,
		Synthesized:    synthesized,
	}, nil
}

// FillMissing replaces missing values of Unemployment and CPI with the
// column mean, and of Type and Size with the column mode. Columns that are
// absent are skipped; a column with no values at all is left as is.
func FillMissing(df dataframe.DataFrame) (dataframe.DataFrame, []Fill, error) {
	var fills []Fill
	apply := func(col string, stat func(series.Series) (any, bool), prep func(series.Series) series.Series) {
		if !frame.Has(df, col) {
			return
		}
		s := prep(df.Col(col))
		v, ok := stat(s)
		if !ok {
			return
		}
		n := countNA(s)
		if n == 0 {
			return
		}
		df = df.Mutate(frame.FillNA(s, v))
		fills = append(fills, Fill{Column: col, Value: v, Filled: n})
	}

	for _, c := range meanFilled {
		apply(c, func(s series.Series) (any, bool) { return frame.Mean(s) }, frame.AsFloat)
	}
	for _, c := range modeFilled {
		apply(c, frame.Mode, func(s series.Series) series.Series { return s })
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, nil, etlerr.Schema("transform: fill", df.Err)
	}
	return df, fills, nil
}

// DeriveMonth parses every Date value as YYYY-MM-DD and returns the Month
// column. Missing dates give a missing month; any other value that does not
// parse is an error.
func DeriveMonth(dates series.Series) (series.Series, error) {
	vals := make([]any, dates.Len())
	for i := range vals {
		e := dates.Elem(i)
		if e.IsNA() {
			continue
		}
		raw := strings.TrimSpace(e.String())
		d, err := time.Parse(frame.DateLayout, raw)
		if err != nil {
			return series.Series{}, etlerr.Parse("transform: parse date", fmt.Errorf("row %d: %q is not a YYYY-MM-DD date", i, raw))
		}
		vals[i] = int(d.Month())
	}
	return series.New(vals, series.Int, ColMonth), nil
}

// HolidayMonths returns the distinct months, ascending, of rows whose
// IsHoliday flag is set. df must have Month and IsHoliday columns.
func HolidayMonths(df dataframe.DataFrame) []int {
	flags := df.Col(ColIsHoliday)
	months := df.Col(ColMonth)
	set := make(map[int]struct{})
	for i := 0; i < df.Nrow(); i++ {
		if !frame.Truthy(flags.Elem(i)) {
			continue
		}
		m, err := months.Elem(i).Int()
		if err != nil {
			continue
		}
		set[m] = struct{}{}
	}
	return sortedKeys(set)
}

// RelevantMonths expands holiday months with their neighbors, wrapping
// December to January and back. The result is deduplicated and ascending.
func RelevantMonths(holidays []int) []int {
	set := make(map[int]struct{}, 3*len(holidays))
	for _, m := range holidays {
		prev := m - 1
		if prev < 1 {
			prev = 12
		}
		next := m + 1
		if next > 12 {
			next = 1
		}
		set[prev] = struct{}{}
		set[m] = struct{}{}
		set[next] = struct{}{}
	}
	return sortedKeys(set)
}

// Filter keeps rows with Weekly_Sales above SalesThreshold whose Month is in
// relevant. Rows with a missing Weekly_Sales or Month are dropped.
func Filter(df dataframe.DataFrame, relevant []int) dataframe.DataFrame {
	if relevant == nil {
		relevant = []int{}
	}
	return df.FilterAggregation(dataframe.And,
		dataframe.F{Colname: ColWeeklySales, Comparator: series.Greater, Comparando: SalesThreshold},
		dataframe.F{Colname: ColMonth, Comparator: series.In, Comparando: relevant},
	)
}

// Project returns exactly the Output columns, typed Int for identifiers,
// Month and the holiday flag, and Float for the measures. Any other column,
// including a materialized row index, is dropped. A missing CPI or
// Unemployment is synthesized as all-missing unless strict is set.
func Project(df dataframe.DataFrame, strict bool) (dataframe.DataFrame, []string, error) {
	var synthesized []string
	cols := make([]series.Series, 0, len(Output))
	for _, name := range Output {
		if !frame.Has(df, name) {
			if strict {
				return dataframe.DataFrame{}, nil, etlerr.Schema("transform: project", fmt.Errorf("column %s is absent", name))
			}
			if name != ColCPI && name != ColUnemployment {
				return dataframe.DataFrame{}, nil, etlerr.Schema("transform: project", fmt.Errorf("required column %s is absent", name))
			}
			synthesized = append(synthesized, name)
			cols = append(cols, frame.AllNA(name, series.Float, df.Nrow()))
			continue
		}
		s := df.Col(name)
		switch name {
		case ColIsHoliday:
			cols = append(cols, holidayFlag(s))
		case ColStoreID, ColDept, ColMonth:
			cols = append(cols, frame.AsInt(s))
		default:
			cols = append(cols, frame.AsFloat(s))
		}
	}
	out := dataframe.New(cols...)
	if out.Err != nil {
		return dataframe.DataFrame{}, nil, etlerr.Schema("transform: project", out.Err)
	}
	return out, synthesized, nil
}

// holidayFlag normalizes a holiday column to 1/0, keeping missing values.
func holidayFlag(s series.Series) series.Series {
	vals := make([]any, s.Len())
	for i := range vals {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if frame.Truthy(e) {
			vals[i] = 1
		} else {
			vals[i] = 0
		}
	}
	return series.New(vals, series.Int, s.Name)
}

func countNA(s series.Series) int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			n++
		}
	}
	return n
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
