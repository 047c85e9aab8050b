// Package extract loads the sales table and the per-store attribute file and
// joins them on Store_ID.
package extract

import (
	"context"
	"fmt"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource/columnar"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource/relational"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Key is the join column shared by both sources.
const Key = "Store_ID"

// Sources locates the two inputs.
type Sources struct {
	// Locator addresses the relational database (see relational.Open).
	Locator string
	// Table is the sales table, normally grocery_sales.
	Table string
	// ColumnarPath is the parquet file with per-store attributes.
	ColumnarPath string
}

// Source readers; tests replace them to avoid real files.
var (
	readRelational = relational.ReadTable
	readColumnar   = columnar.ReadFile
)

// Extract reads both sources fully and returns their inner join on Store_ID.
// The columnar file is read first, then the relational table.
func Extract(ctx context.Context, src Sources) (dataframe.DataFrame, error) {
	extra, err := readColumnar(ctx, src.ColumnarPath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	sales, err := readRelational(ctx, src.Locator, src.Table)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return Merge(sales, extra)
}

// Merge inner-joins sales with extra on Store_ID. Rows keep the sales
// table's order; a sales row matching several extra rows yields one row per
// match, in extra's order. Columns are the sales columns followed by the
// extra columns other than the key.
//
// A non-key column present on both sides is merged into one: the sales value
// wins and the extra value fills it where the sales value is missing.
func Merge(sales, extra dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !frame.Has(sales, Key) {
		return dataframe.DataFrame{}, etlerr.DataSource("extract: merge", fmt.Errorf("relational source has no %s column", Key))
	}
	if !frame.Has(extra, Key) {
		return dataframe.DataFrame{}, etlerr.DataSource("extract: merge", fmt.Errorf("columnar source has no %s column", Key))
	}

	left, right := alignKeys(sales.Col(Key), extra.Col(Key))

	index := make(map[string][]int, right.Len())
	for j := 0; j < right.Len(); j++ {
		e := right.Elem(j)
		if e.IsNA() {
			continue
		}
		k := e.String()
		index[k] = append(index[k], j)
	}
	li := make([]int, 0, left.Len())
	ri := make([]int, 0, left.Len())
	for i := 0; i < left.Len(); i++ {
		e := left.Elem(i)
		if e.IsNA() {
			continue
		}
		for _, j := range index[e.String()] {
			li = append(li, i)
			ri = append(ri, j)
		}
	}

	out := sales.Subset(li)
	if out.Err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("extract: merge", out.Err)
	}
	if extra.Ncol() == 1 {
		return out, nil
	}
	rest := extra.Drop(Key).Subset(ri)
	if rest.Err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("extract: merge", rest.Err)
	}

	for _, name := range rest.Names() {
		col := rest.Col(name)
		if frame.Has(out, name) {
			out = out.Mutate(coalesce(out.Col(name), col))
		} else {
			out = out.Mutate(col)
		}
		if out.Err != nil {
			return dataframe.DataFrame{}, etlerr.DataSource("extract: merge", out.Err)
		}
	}
	return out, nil
}

// alignKeys brings both key columns to one comparable representation.
// Numeric keys compare as integers; anything involving text compares as
// text.
func alignKeys(a, b series.Series) (series.Series, series.Series) {
	if a.Type() == b.Type() && a.Type() != series.Float {
		return a, b
	}
	if a.Type() != series.String && b.Type() != series.String &&
		a.Type() != series.Bool && b.Type() != series.Bool {
		return frame.AsInt(a), frame.AsInt(b)
	}
	return keyText(a), keyText(b)
}

func keyText(s series.Series) series.Series {
	if s.Type() == series.Float {
		s = frame.AsInt(s)
	}
	return series.New(s.Records(), series.String, s.Name)
}

// coalesce fills missing elements of primary from fallback. The result is
// String when either side is String, Float when either side is Float, and
// primary's type otherwise.
func coalesce(primary, fallback series.Series) series.Series {
	typ := mergedType(primary.Type(), fallback.Type())
	vals := make([]any, primary.Len())
	for i := range vals {
		e := primary.Elem(i)
		if e.IsNA() {
			e = fallback.Elem(i)
		}
		if e.IsNA() {
			continue
		}
		switch typ {
		case series.String:
			vals[i] = e.String()
		case series.Float:
			vals[i] = e.Float()
		default:
			vals[i] = e.Val()
		}
	}
	return series.New(vals, typ, primary.Name)
}

func mergedType(a, b series.Type) series.Type {
	switch {
	case a == series.String || b == series.String:
		return series.String
	case a == series.Float || b == series.Float:
		return series.Float
	}
	return a
}
