// Package aggregate computes the monthly average of weekly sales over the
// cleaned table.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names of the aggregate table.
const (
	ColMonth    = "Month"
	ColAvgSales = "Avg_Sales"

	colSales = "Weekly_Sales"
)

// Columns is the aggregate table's column order.
var Columns = []string{ColMonth, ColAvgSales}

// Round2 rounds x to two decimals, resolving halves to the even neighbor.
func Round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// MonthlyAverage groups cleaned by Month and returns one row per month,
// ascending, with the mean Weekly_Sales rounded by Round2. An empty input
// gives an empty table with the same columns.
func MonthlyAverage(cleaned dataframe.DataFrame) (dataframe.DataFrame, error) {
	if missing := frame.Missing(cleaned, ColMonth, colSales); len(missing) > 0 {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: input", fmt.Errorf("missing columns %v", missing))
	}
	if cleaned.Nrow() == 0 {
		return frame.Empty(Columns, []series.Type{series.Int, series.Float}), nil
	}

	input := cleaned.Select([]string{ColMonth, colSales})
	input = input.Mutate(frame.AsInt(input.Col(ColMonth))).Mutate(frame.AsFloat(input.Col(colSales)))
	if input.Err != nil {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: input", input.Err)
	}
	if na := firstNA(input.Col(ColMonth)); na >= 0 {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: input", fmt.Errorf("row %d has no Month", na))
	}

	groups := input.GroupBy(ColMonth)
	if groups.Err != nil {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: group", groups.Err)
	}
	agg := groups.Aggregation([]dataframe.AggregationType{dataframe.Aggregation_MEAN}, []string{colSales})
	if agg.Err != nil {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: mean", agg.Err)
	}

	// Group order is unspecified and the mean column is named after the
	// aggregation, so rebuild the table explicitly.
	meanCol := ""
	for _, n := range agg.Names() {
		if n != ColMonth {
			meanCol = n
			break
		}
	}
	if meanCol == "" {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: mean", fmt.Errorf("aggregation produced no mean column"))
	}

	type monthAvg struct {
		month int
		avg   float64
	}
	rows := make([]monthAvg, 0, agg.Nrow())
	months, means := agg.Col(ColMonth), agg.Col(meanCol)
	for i := 0; i < agg.Nrow(); i++ {
		m, err := months.Elem(i).Int()
		if err != nil {
			return dataframe.DataFrame{}, etlerr.Schema("aggregate: mean", err)
		}
		rows = append(rows, monthAvg{month: m, avg: means.Elem(i).Float()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].month < rows[j].month })

	mv := make([]any, len(rows))
	av := make([]any, len(rows))
	for i, r := range rows {
		mv[i] = r.month
		if !math.IsNaN(r.avg) {
			av[i] = Round2(r.avg)
		}
	}
	out, err := frame.Build([]frame.Column{
		{Name: ColMonth, Hint: series.Int, Values: mv},
		{Name: ColAvgSales, Hint: series.Float, Values: av},
	})
	if err != nil {
		return dataframe.DataFrame{}, etlerr.Schema("aggregate: build", err)
	}
	return out, nil
}

func firstNA(s series.Series) int {
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			return i
		}
	}
	return -1
}
