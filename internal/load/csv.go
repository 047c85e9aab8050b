// Package load writes the cleaned and aggregate tables to CSV, checks the
// results on disk, and optionally bundles both tables into a workbook.
//
// Files are written to a temporary sibling and renamed into place, so a
// failed write never leaves a truncated output behind. Cell formatting is
// deterministic: running the pipeline twice on the same inputs yields
// byte-identical files.
package load

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Paths names the files written by Load. Report is optional.
type Paths struct {
	Cleaned   string
	Aggregate string
	Report    string
}

// Load writes cleaned to paths.Cleaned and aggregate to paths.Aggregate, then
// the workbook when paths.Report is set. Writing stops at the first failure.
func Load(ctx context.Context, cleaned, aggregate dataframe.DataFrame, paths Paths) error {
	if err := ctx.Err(); err != nil {
		return etlerr.IO("load", err)
	}
	if err := WriteCSV(cleaned, paths.Cleaned); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return etlerr.IO("load", err)
	}
	if err := WriteCSV(aggregate, paths.Aggregate); err != nil {
		return err
	}
	if paths.Report == "" {
		return nil
	}
	return WriteReport(paths.Report,
		Sheet{Name: SheetCleaned, Data: cleaned},
		Sheet{Name: SheetAggregate, Data: aggregate},
	)
}

// WriteCSV writes df as comma-separated text with a header row and no row
// index. Missing values are empty cells.
func WriteCSV(df dataframe.DataFrame, path string) error {
	if df.Err != nil {
		return etlerr.IO("load: write "+path, df.Err)
	}
	return writeAtomic(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(df.Names()); err != nil {
			return err
		}
		cols := make([]series.Series, df.Ncol())
		for i, n := range df.Names() {
			cols[i] = df.Col(n)
		}
		record := make([]string, len(cols))
		for r := 0; r < df.Nrow(); r++ {
			for c, s := range cols {
				record[c] = FormatCell(s.Elem(r))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// writeAtomic creates path's parent directories, streams fill into a
// temporary file next to path and renames it into place.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	if path == "" {
		return etlerr.IO("load: write", fmt.Errorf("empty output path"))
	}
	op := "load: write " + path

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return etlerr.IO(op, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return etlerr.IO(op, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		return etlerr.IO(op, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return etlerr.IO(op, err)
	}
	if err := tmp.Close(); err != nil {
		return etlerr.IO(op, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return etlerr.IO(op, err)
	}
	return nil
}

// FormatCell renders one element the way the CSV files carry it: integers in
// base 10, floats in their shortest exact form with ".0" kept on whole
// numbers, booleans as True/False, and missing values as "".
func FormatCell(e series.Element) string {
	if e.IsNA() {
		return ""
	}
	switch e.Type() {
	case series.Int:
		i, err := e.Int()
		if err != nil {
			return ""
		}
		return strconv.Itoa(i)
	case series.Float:
		return FormatFloat(e.Float())
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return ""
		}
		if b {
			return "True"
		}
		return "False"
	default:
		return e.String()
	}
}

// FormatFloat formats f in shortest round-trip form, keeping a trailing ".0"
// on whole numbers.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f == math.Trunc(f) {
		s += ".0"
	}
	return s
}

// ReadCSV reads a file written by WriteCSV back into a DataFrame. types
// forces column types; columns not listed are inferred. Empty cells are
// missing values.
func ReadCSV(path string, types map[string]series.Type) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.IO("load: read "+path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, etlerr.Parse("load: read "+path, err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, etlerr.Parse("load: read "+path, fmt.Errorf("no header row"))
	}
	if len(records) == 1 {
		header := records[0]
		ts := make([]series.Type, len(header))
		for i, h := range header {
			ts[i] = series.String
			if t, ok := types[h]; ok {
				ts[i] = t
			}
		}
		return frame.Empty(header, ts), nil
	}

	opts := []dataframe.LoadOption{dataframe.NaNValues([]string{""})}
	if len(types) > 0 {
		opts = append(opts, dataframe.WithTypes(types))
	}
	df := dataframe.LoadRecords(records, opts...)
	if df.Err != nil {
		return dataframe.DataFrame{}, etlerr.Parse("load: read "+path, df.Err)
	}
	return df, nil
}
