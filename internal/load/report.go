package load

import (
	"errors"
	"io"
	"math"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Sheet names used by Load for the workbook report.
const (
	SheetCleaned   = "clean_data"
	SheetAggregate = "agg_data"
)

// Sheet is one table of a workbook report.
type Sheet struct {
	Name string
	Data dataframe.DataFrame
}

// WriteReport writes sheets, in order, to an .xlsx workbook at path. Each
// sheet starts with a header row; missing values are left blank.
func WriteReport(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return etlerr.IO("load: report "+path, errors.New("no sheets"))
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheets[0].Name); err != nil {
		return etlerr.IO("load: report "+path, err)
	}
	for _, s := range sheets[1:] {
		if _, err := f.NewSheet(s.Name); err != nil {
			return etlerr.IO("load: report "+path, err)
		}
	}
	for _, s := range sheets {
		if err := writeSheet(f, s); err != nil {
			return etlerr.IO("load: report "+path+": sheet "+s.Name, err)
		}
	}

	return writeAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

func writeSheet(f *excelize.File, s Sheet) error {
	if s.Data.Err != nil {
		return s.Data.Err
	}
	sw, err := f.NewStreamWriter(s.Name)
	if err != nil {
		return err
	}

	names := s.Data.Names()
	header := make([]any, len(names))
	cols := make([]series.Series, len(names))
	for i, n := range names {
		header[i] = n
		cols[i] = s.Data.Col(n)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	row := make([]any, len(cols))
	for r := 0; r < s.Data.Nrow(); r++ {
		for c, col := range cols {
			row[c] = cellValue(col.Elem(r))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// cellValue maps an element to the value excelize stores; nil leaves the
// cell empty.
func cellValue(e series.Element) any {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		i, err := e.Int()
		if err != nil {
			return nil
		}
		return i
	case series.Float:
		f := e.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return nil
		}
		return b
	default:
		return e.String()
	}
}
