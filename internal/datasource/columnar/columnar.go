// Package columnar reads a parquet file into a DataFrame.
//
// Only flat schemas are supported: every leaf column must be non-repeated.
// Nested groups are flattened with dotted names. The index column that pandas
// writes (__index_level_0__) is skipped so the table matches what pandas
// itself would return.
package columnar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource/file"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"
)

// readBatch is the number of rows requested per ReadRows call.
const readBatch = 256

const pandasIndexPrefix = "__index_level_"

// ReadFile reads the parquet file at path.
func ReadFile(ctx context.Context, path string) (dataframe.DataFrame, error) {
	return Read(ctx, file.NewLocal(path))
}

// Read opens src and reads it fully as a parquet file.
func Read(ctx context.Context, src datasource.Source) (dataframe.DataFrame, error) {
	h, err := src.Open(ctx)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("columnar: open", err)
	}
	defer h.Close()

	pf, err := parquet.OpenFile(h, h.Size())
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("columnar: open parquet", err)
	}

	schema := pf.Schema()
	leaves, err := leafColumns(schema)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("columnar: schema", err)
	}

	n := int(pf.NumRows())
	cols := make([]frame.Column, 0, len(leaves))
	slot := make(map[int]int, len(leaves)) // parquet column index -> cols index
	for _, lc := range leaves {
		if lc.skip {
			continue
		}
		slot[lc.index] = len(cols)
		cols = append(cols, frame.Column{
			Name:   lc.name,
			Hint:   lc.hint,
			Values: make([]any, 0, n),
		})
	}
	if len(cols) == 0 {
		return dataframe.DataFrame{}, etlerr.DataSource("columnar: schema", errors.New("file has no columns"))
	}

	convs := make(map[int]func(parquet.Value) any, len(leaves))
	for _, lc := range leaves {
		convs[lc.index] = lc.conv
	}

	buf := make([]parquet.Row, readBatch)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(ctx, rg, buf, cols, slot, convs); err != nil {
			return dataframe.DataFrame{}, err
		}
	}

	df, err := frame.Build(cols)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("columnar: build", err)
	}
	return df, nil
}

func readRowGroup(
	ctx context.Context,
	rg parquet.RowGroup,
	buf []parquet.Row,
	cols []frame.Column,
	slot map[int]int,
	convs map[int]func(parquet.Value) any,
) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		if err := ctx.Err(); err != nil {
			return etlerr.DataSource("columnar: read", err)
		}
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for i := range cols {
				cols[i].Values = append(cols[i].Values, nil)
			}
			for _, v := range row {
				ci, ok := slot[v.Column()]
				if !ok || v.IsNull() {
					continue
				}
				last := len(cols[ci].Values) - 1
				cols[ci].Values[last] = convs[v.Column()](v)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return etlerr.DataSource("columnar: read", err)
		}
		if n == 0 {
			return nil
		}
	}
}

type leaf struct {
	index int
	name  string
	hint  series.Type
	conv  func(parquet.Value) any
	skip  bool
}

// leafColumns describes every leaf column in schema order, which is also the
// order of parquet column indexes.
func leafColumns(schema *parquet.Schema) ([]leaf, error) {
	paths := schema.Columns()
	out := make([]leaf, 0, len(paths))
	for i, path := range paths {
		lc, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("column %q not found in schema", strings.Join(path, "."))
		}
		name := strings.Join(path, ".")
		if lc.MaxRepetitionLevel > 0 {
			return nil, fmt.Errorf("column %q is repeated; only flat tables are supported", name)
		}
		hint, conv := converter(lc.Node.Type())
		out = append(out, leaf{
			index: i,
			name:  name,
			hint:  hint,
			conv:  conv,
			skip:  strings.HasPrefix(name, pandasIndexPrefix),
		})
	}
	return out, nil
}

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// converter picks the gota type and value conversion for a parquet column
// type. DATE columns become "YYYY-MM-DD" strings to match SQL sources.
func converter(t parquet.Type) (series.Type, func(parquet.Value) any) {
	if lt := t.LogicalType(); lt != nil && lt.Date != nil {
		return series.String, func(v parquet.Value) any {
			return epoch.AddDate(0, 0, int(v.Int32())).Format(frame.DateLayout)
		}
	}
	switch t.Kind() {
	case parquet.Boolean:
		return series.Bool, func(v parquet.Value) any { return v.Boolean() }
	case parquet.Int32:
		return series.Int, func(v parquet.Value) any { return int(v.Int32()) }
	case parquet.Int64:
		return series.Int, func(v parquet.Value) any { return int(v.Int64()) }
	case parquet.Float:
		return series.Float, func(v parquet.Value) any { return float64(v.Float()) }
	case parquet.Double:
		return series.Float, func(v parquet.Value) any { return v.Double() }
	default:
		return series.String, func(v parquet.Value) any { return v.String() }
	}
}
