package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, cols ...frame.Column) dataframe.DataFrame {
	t.Helper()
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

func TestMergeInnerJoin(t *testing.T) {
	t.Parallel()

	sales := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2, 3, 1}},
		frame.Column{Name: "Weekly_Sales", Values: []any{100.0, 200.0, 300.0, 400.0}},
	)
	extra := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 3, 4}},
		frame.Column{Name: "Type", Values: []any{"A", "B", "C"}},
	)

	merged, err := Merge(sales, extra)
	require.NoError(t, err)

	assert.Equal(t, []string{"Store_ID", "Weekly_Sales", "Type"}, merged.Names())
	// store 2 has no attributes and store 4 has no sales
	assert.Equal(t, []int{1, 3, 1}, ints(t, merged.Col("Store_ID")))
	assert.Equal(t, []float64{100, 300, 400}, merged.Col("Weekly_Sales").Float())
	assert.Equal(t, []string{"A", "B", "A"}, merged.Col("Type").Records())
}

func TestMergeOnePerMatchingPair(t *testing.T) {
	t.Parallel()

	sales := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2}},
		frame.Column{Name: "Dept", Values: []any{10, 20}},
	)
	extra := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 1, 2}},
		frame.Column{Name: "Size", Values: []any{100, 200, 300}},
	)

	merged, err := Merge(sales, extra)
	require.NoError(t, err)
	require.Equal(t, 3, merged.Nrow())
	assert.Equal(t, []int{1, 1, 2}, ints(t, merged.Col("Store_ID")))
	assert.Equal(t, []int{10, 10, 20}, ints(t, merged.Col("Dept")))
	assert.Equal(t, []int{100, 200, 300}, ints(t, merged.Col("Size")))
}

func TestMergeCoalescesSharedColumns(t *testing.T) {
	t.Parallel()

	sales := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2}},
		frame.Column{Name: "CPI", Hint: series.Float, Values: []any{nil, 210.5}},
	)
	extra := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2}},
		frame.Column{Name: "CPI", Values: []any{211, 999}},
	)

	merged, err := Merge(sales, extra)
	require.NoError(t, err)
	assert.Equal(t, []string{"Store_ID", "CPI"}, merged.Names())
	assert.Equal(t, series.Float, merged.Col("CPI").Type())
	assert.Equal(t, []float64{211, 210.5}, merged.Col("CPI").Float())
}

func TestMergeCoalesceWidensColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sales     frame.Column
		extra     frame.Column
		wantType  series.Type
		wantValue []string
	}{
		{
			name:      "int sales, float fallback",
			sales:     frame.Column{Name: "CPI", Hint: series.Int, Values: []any{211, nil}},
			extra:     frame.Column{Name: "CPI", Values: []any{211.25, 215.75}},
			wantType:  series.Float,
			wantValue: []string{"211.000000", "215.750000"},
		},
		{
			name:      "int sales, string fallback",
			sales:     frame.Column{Name: "Size", Hint: series.Int, Values: []any{nil, 200}},
			extra:     frame.Column{Name: "Size", Values: []any{"large", "small"}},
			wantType:  series.String,
			wantValue: []string{"large", "200"},
		},
		{
			name:      "int on both sides",
			sales:     frame.Column{Name: "Size", Hint: series.Int, Values: []any{nil, 200}},
			extra:     frame.Column{Name: "Size", Values: []any{150, 999}},
			wantType:  series.Int,
			wantValue: []string{"150", "200"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sales := mustBuild(t, frame.Column{Name: "Store_ID", Values: []any{1, 2}}, tt.sales)
			extra := mustBuild(t, frame.Column{Name: "Store_ID", Values: []any{1, 2}}, tt.extra)

			merged, err := Merge(sales, extra)
			require.NoError(t, err)
			col := merged.Col(tt.sales.Name)
			assert.Equal(t, tt.wantType, col.Type())
			assert.Equal(t, tt.wantValue, col.Records())
		})
	}
}

func TestMergeAlignsKeyTypes(t *testing.T) {
	t.Parallel()

	sales := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2}},
		frame.Column{Name: "Dept", Values: []any{1, 1}},
	)
	extra := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{"2", "1"}},
		frame.Column{Name: "Type", Values: []any{"B", "A"}},
	)
	merged, err := Merge(sales, extra)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, merged.Col("Type").Records())

	floatExtra := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{2.0, 1.0}},
		frame.Column{Name: "Type", Values: []any{"B", "A"}},
	)
	merged, err = Merge(sales, floatExtra)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, merged.Col("Type").Records())
}

func TestMergeKeyOnlyAndNoMatches(t *testing.T) {
	t.Parallel()

	sales := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{1, 2, nil}},
		frame.Column{Name: "Dept", Values: []any{1, 2, 3}},
	)

	keyOnly := mustBuild(t, frame.Column{Name: "Store_ID", Values: []any{2, nil}})
	merged, err := Merge(sales, keyOnly)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ints(t, merged.Col("Dept")))

	disjoint := mustBuild(t,
		frame.Column{Name: "Store_ID", Values: []any{9}},
		frame.Column{Name: "Type", Values: []any{"A"}},
	)
	merged, err = Merge(sales, disjoint)
	require.NoError(t, err)
	assert.Equal(t, 0, merged.Nrow())
	assert.Equal(t, []string{"Store_ID", "Dept", "Type"}, merged.Names())
}

func TestMergeMissingKey(t *testing.T) {
	t.Parallel()

	withKey := mustBuild(t, frame.Column{Name: "Store_ID", Values: []any{1}})
	without := mustBuild(t, frame.Column{Name: "Store", Values: []any{1}})

	_, err := Merge(without, withKey)
	assert.True(t, errors.Is(err, etlerr.ErrDataSource), "got %v", err)

	_, err = Merge(withKey, without)
	assert.True(t, errors.Is(err, etlerr.ErrDataSource), "got %v", err)
}

// Extract cannot run in parallel with other tests because it swaps the
// package-level readers.
func TestExtractUsesBothSources(t *testing.T) {
	origRel, origCol := readRelational, readColumnar
	t.Cleanup(func() { readRelational, readColumnar = origRel, origCol })

	var calls []string
	readColumnar = func(ctx context.Context, path string) (dataframe.DataFrame, error) {
		calls = append(calls, "columnar:"+path)
		return frame.Build([]frame.Column{
			{Name: "Store_ID", Values: []any{1}},
			{Name: "Type", Values: []any{"A"}},
		})
	}
	readRelational = func(ctx context.Context, locator, table string) (dataframe.DataFrame, error) {
		calls = append(calls, "relational:"+locator+"/"+table)
		return frame.Build([]frame.Column{
			{Name: "Store_ID", Values: []any{1, 2}},
			{Name: "Weekly_Sales", Values: []any{1.0, 2.0}},
		})
	}

	df, err := Extract(context.Background(), Sources{
		Locator:      "grocery_sales.db",
		Table:        "grocery_sales",
		ColumnarPath: "extra_data.parquet",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, df.Nrow())
	assert.Equal(t, []string{"columnar:extra_data.parquet", "relational:grocery_sales.db/grocery_sales"}, calls)
}

func TestExtractPropagatesSourceErrors(t *testing.T) {
	origRel, origCol := readRelational, readColumnar
	t.Cleanup(func() { readRelational, readColumnar = origRel, origCol })

	boom := etlerr.DataSource("columnar: open", errors.New("boom"))
	readColumnar = func(context.Context, string) (dataframe.DataFrame, error) {
		return dataframe.DataFrame{}, boom
	}
	readRelational = func(context.Context, string, string) (dataframe.DataFrame, error) {
		t.Fatal("relational source read after columnar failure")
		return dataframe.DataFrame{}, nil
	}

	_, err := Extract(context.Background(), Sources{})
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.Is(err, etlerr.ErrDataSource))
}
