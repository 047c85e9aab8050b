package transform

import (
	"errors"
	"testing"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row is one merged record; nil pointers are missing values.
type row struct {
	index   int
	store   int
	dept    int
	date    any
	sales   any
	holiday any
	typ     any
	size    any
	cpi     any
	unemp   any
}

func merged(t *testing.T, rows []row) dataframe.DataFrame {
	t.Helper()
	cols := []frame.Column{
		{Name: "index"},
		{Name: "Store_ID"},
		{Name: "Dept"},
		{Name: "Date", Hint: series.String},
		{Name: "Weekly_Sales", Hint: series.Float},
		{Name: "IsHoliday", Hint: series.Int},
		{Name: "Type", Hint: series.String},
		{Name: "Size", Hint: series.Int},
		{Name: "CPI", Hint: series.Float},
		{Name: "Unemployment", Hint: series.Float},
	}
	for i := range cols {
		cols[i].Values = make([]any, 0, len(rows))
	}
	for _, r := range rows {
		for i, v := range []any{r.index, r.store, r.dept, r.date, r.sales, r.holiday, r.typ, r.size, r.cpi, r.unemp} {
			cols[i].Values = append(cols[i].Values, v)
		}
	}
	df, err := frame.Build(cols)
	require.NoError(t, err)
	return df
}

func ints(t *testing.T, s series.Series) []int {
	t.Helper()
	out, err := s.Int()
	require.NoError(t, err)
	return out
}

func TestRelevantMonths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		holidays []int
		want     []int
	}{
		{"year boundary", []int{1, 12}, []int{1, 2, 11, 12}},
		{"single mid-year", []int{7}, []int{6, 7, 8}},
		{"january wraps back", []int{1}, []int{1, 2, 12}},
		{"december wraps forward", []int{12}, []int{1, 11, 12}},
		{"overlapping windows", []int{2, 4}, []int{1, 2, 3, 4, 5}},
		{"none", nil, []int{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RelevantMonths(tt.holidays))
		})
	}
}

func TestDeriveMonth(t *testing.T) {
	t.Parallel()

	m, err := DeriveMonth(series.New([]any{"2010-02-05", " 2010-12-31", nil}, series.String, "Date"))
	require.NoError(t, err)
	assert.Equal(t, "Month", m.Name)
	assert.Equal(t, series.Int, m.Type())
	assert.Equal(t, "2", m.Elem(0).String())
	assert.Equal(t, "12", m.Elem(1).String())
	assert.True(t, m.Elem(2).IsNA())

	for _, bad := range []string{"05/02/2010", "2010-2-5", "2010-13-01", "2010-02-05T00:00:00"} {
		_, err := DeriveMonth(series.New([]string{"2010-01-01", bad}, series.String, "Date"))
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, etlerr.ErrParse), bad)
		assert.Contains(t, err.Error(), "row 1", bad)
	}
}

func TestFillMissingUsesPreFilterStatistics(t *testing.T) {
	t.Parallel()

	df := merged(t, []row{
		{store: 1, dept: 1, date: "2010-01-01", sales: 20000.0, holiday: 1, typ: "B", size: 200, cpi: 100.0, unemp: 5.0},
		{store: 1, dept: 1, date: "2010-06-01", sales: 5.0, holiday: 0, typ: "A", size: 100, cpi: 300.0, unemp: nil},
		{store: 2, dept: 1, date: "2010-06-01", sales: 5.0, holiday: 0, typ: "B", size: 100, cpi: nil, unemp: 7.0},
		{store: 2, dept: 1, date: "2010-06-01", sales: 5.0, holiday: 0, typ: "A", size: 200, cpi: nil, unemp: nil},
		{store: 3, dept: 1, date: "2010-06-01", sales: 5.0, holiday: 0, typ: nil, size: nil, cpi: 200.0, unemp: 9.0},
	})

	filled, fills, err := FillMissing(df)
	require.NoError(t, err)

	for _, c := range []string{"CPI", "Unemployment", "Type", "Size"} {
		s := filled.Col(c)
		for i := 0; i < s.Len(); i++ {
			assert.False(t, s.Elem(i).IsNA(), "%s[%d] still missing", c, i)
		}
	}
	assert.Equal(t, []float64{100, 300, 200, 200, 200}, filled.Col("CPI").Float())
	assert.Equal(t, []float64{5, 7, 7, 7, 9}, filled.Col("Unemployment").Float())
	// A and B tie on Type, 100 and 200 tie on Size: the lowest wins.
	assert.Equal(t, "A", filled.Col("Type").Elem(4).String())
	assert.Equal(t, 100, ints(t, filled.Col("Size"))[4])

	byCol := map[string]Fill{}
	for _, f := range fills {
		byCol[f.Column] = f
	}
	assert.Equal(t, Fill{Column: "CPI", Value: 200.0, Filled: 2}, byCol["CPI"])
	assert.Equal(t, Fill{Column: "Unemployment", Value: 7.0, Filled: 2}, byCol["Unemployment"])
	assert.Equal(t, Fill{Column: "Type", Value: "A", Filled: 1}, byCol["Type"])
	assert.Equal(t, Fill{Column: "Size", Value: 100, Filled: 1}, byCol["Size"])
}

func TestFillMissingSkipsAbsentColumns(t *testing.T) {
	t.Parallel()

	df, err := frame.Build([]frame.Column{
		{Name: "Store_ID", Values: []any{1}},
		{Name: "CPI", Hint: series.Float, Values: []any{nil}},
	})
	require.NoError(t, err)

	out, fills, err := FillMissing(df)
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, []string{"Store_ID", "CPI"}, out.Names())
	assert.True(t, out.Col("CPI").Elem(0).IsNA())
}

func TestRunFiltersHolidayWindowAndThreshold(t *testing.T) {
	t.Parallel()

	df := merged(t, []row{
		{index: 0, store: 1, dept: 1, date: "2010-12-24", sales: 50000.0, holiday: 1, cpi: 211.0, unemp: 8.0},
		{index: 1, store: 1, dept: 2, date: "2010-11-05", sales: 10001.0, holiday: 0, cpi: 211.0, unemp: 8.0},
		{index: 2, store: 1, dept: 3, date: "2011-01-07", sales: 10000.0, holiday: 0, cpi: 211.0, unemp: 8.0},
		{index: 3, store: 1, dept: 4, date: "2010-06-04", sales: 90000.0, holiday: 0, cpi: 211.0, unemp: 8.0},
		{index: 4, store: 1, dept: 5, date: "2011-01-14", sales: nil, holiday: 0, cpi: 211.0, unemp: 8.0},
		{index: 5, store: 2, dept: 6, date: "2011-01-21", sales: 12000.5, holiday: nil, cpi: nil, unemp: 8.0},
	})

	res, err := Run(df, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{12}, res.HolidayMonths)
	assert.Equal(t, []int{1, 11, 12}, res.RelevantMonths)

	out := res.Data
	assert.Equal(t, Output, out.Names())
	assert.Equal(t, []series.Type{
		series.Int, series.Int, series.Int, series.Int, series.Float, series.Float, series.Float,
	}, out.Types())

	// 10000 is excluded, 10001 is kept, June is outside the window, missing
	// sales never pass the threshold.
	assert.Equal(t, []int{1, 2, 6}, ints(t, out.Col("Dept")))
	assert.Equal(t, []int{12, 11, 1}, ints(t, out.Col("Month")))
	assert.Equal(t, []float64{50000, 10001, 12000.5}, out.Col("Weekly_Sales").Float())
	assert.Equal(t, "1", out.Col("IsHoliday").Elem(0).String())
	assert.True(t, out.Col("IsHoliday").Elem(2).IsNA())
	// CPI was filled with the mean of all rows before filtering.
	assert.Equal(t, 211.0, out.Col("CPI").Elem(2).Float())
}

func TestRunNoHolidaysYieldsEmptyTable(t *testing.T) {
	t.Parallel()

	df := merged(t, []row{
		{store: 1, dept: 1, date: "2010-12-24", sales: 50000.0, holiday: 0, cpi: 1.0, unemp: 1.0},
		{store: 1, dept: 1, date: "2010-01-24", sales: 50000.0, holiday: 0, cpi: 1.0, unemp: 1.0},
	})

	res, err := Run(df, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.HolidayMonths)
	assert.Empty(t, res.RelevantMonths)
	assert.Equal(t, 0, res.Data.Nrow())
	assert.Equal(t, Output, res.Data.Names())
}

func TestRunTruthyHolidayFlags(t *testing.T) {
	t.Parallel()

	df, err := frame.Build([]frame.Column{
		{Name: "Store_ID", Values: []any{1, 1}},
		{Name: "Dept", Values: []any{1, 2}},
		{Name: "Date", Values: []any{"2010-07-02", "2010-08-06"}},
		{Name: "Weekly_Sales", Values: []any{20000.0, 20000.0}},
		{Name: "IsHoliday", Values: []any{true, false}},
		{Name: "CPI", Values: []any{1.0, 2.0}},
		{Name: "Unemployment", Values: []any{1.0, 2.0}},
	})
	require.NoError(t, err)

	res, err := Run(df, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, res.HolidayMonths)
	assert.Equal(t, []int{1, 0}, ints(t, res.Data.Col("IsHoliday")))
}

func TestRunMissingOptionalOutputColumns(t *testing.T) {
	t.Parallel()

	build := func() dataframe.DataFrame {
		df, err := frame.Build([]frame.Column{
			{Name: "Store_ID", Values: []any{1}},
			{Name: "Dept", Values: []any{1}},
			{Name: "Date", Values: []any{"2010-12-24"}},
			{Name: "Weekly_Sales", Values: []any{20000.0}},
			{Name: "IsHoliday", Values: []any{1}},
			{Name: "Unemployment", Values: []any{8.1}},
		})
		require.NoError(t, err)
		return df
	}

	res, err := Run(build(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CPI"}, res.Synthesized)
	assert.Equal(t, series.Float, res.Data.Col("CPI").Type())
	assert.True(t, res.Data.Col("CPI").Elem(0).IsNA())

	_, err = Run(build(), Options{StrictSchema: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrSchema))
}

func TestRunMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	df, err := frame.Build([]frame.Column{
		{Name: "Store_ID", Values: []any{1}},
		{Name: "Dept", Values: []any{1}},
		{Name: "Weekly_Sales", Values: []any{20000.0}},
		{Name: "IsHoliday", Values: []any{1}},
	})
	require.NoError(t, err)

	_, err = Transform(df)
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrSchema))
	assert.Contains(t, err.Error(), "Date")
}

func TestRunBadDateIsParseError(t *testing.T) {
	t.Parallel()

	df := merged(t, []row{
		{store: 1, dept: 1, date: "2010-12-24", sales: 50000.0, holiday: 1},
		{store: 1, dept: 1, date: "24/12/2010", sales: 50000.0, holiday: 1},
	})
	_, err := Transform(df)
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrParse))
}
