// Package frame holds the small set of helpers the pipeline needs on top of
// gota dataframes: building typed tables from loosely typed source values,
// column capability checks, and NA-aware column statistics.
//
// Source adapters (SQL rows, parquet values) hand over []any columns. Build
// normalizes the Go values drivers return (int64, []byte, time.Time, ...)
// into the handful of types gota understands; anything gota cannot store is
// converted before it reaches series.New, since gota silently turns unknown
// value types into NA.
package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the layout used when a driver hands back a time.Time for a
// date-only value.
const DateLayout = "2006-01-02"

// Column is one source column before type resolution.
type Column struct {
	// Name is the column name as reported by the source.
	Name string

	// Hint is the type declared by the source schema, used when the values
	// alone cannot decide (all-NA columns) and to widen Int to Float.
	// Empty means "infer only".
	Hint series.Type

	// Values holds one entry per row; nil means missing.
	Values []any
}

// Build turns source columns into a DataFrame. Column names are normalized
// with NormalizeName. All columns must have the same length.
func Build(cols []Column) (dataframe.DataFrame, error) {
	if len(cols) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("frame: no columns")
	}
	n := len(cols[0].Values)
	ss := make([]series.Series, 0, len(cols))
	seen := make(map[string]struct{}, len(cols))

	for _, c := range cols {
		if len(c.Values) != n {
			return dataframe.DataFrame{}, fmt.Errorf("frame: column %q has %d values, want %d", c.Name, len(c.Values), n)
		}
		name := NormalizeName(c.Name)
		if name == "" {
			return dataframe.DataFrame{}, fmt.Errorf("frame: empty column name")
		}
		if _, dup := seen[name]; dup {
			return dataframe.DataFrame{}, fmt.Errorf("frame: duplicate column %q", name)
		}
		seen[name] = struct{}{}

		vals := make([]any, n)
		for i, v := range c.Values {
			vals[i] = normalizeValue(v)
		}
		t := resolveType(vals, c.Hint)
		ss = append(ss, series.New(coerce(vals, t), t, name))
	}

	df := dataframe.New(ss...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("frame: build: %w", df.Err)
	}
	return df, nil
}

// Empty returns a zero-row DataFrame with the given columns and types.
func Empty(names []string, types []series.Type) dataframe.DataFrame {
	ss := make([]series.Series, len(names))
	for i, name := range names {
		ss[i] = series.New([]any{}, types[i], name)
	}
	return dataframe.New(ss...)
}

// Has reports whether df has a column named col.
func Has(df dataframe.DataFrame, col string) bool {
	for _, n := range df.Names() {
		if n == col {
			return true
		}
	}
	return false
}

// Missing returns the columns of want that df does not have, in want order.
func Missing(df dataframe.DataFrame, want ...string) []string {
	var out []string
	for _, c := range want {
		if !Has(df, c) {
			out = append(out, c)
		}
	}
	return out
}

var nameCleaner = transform.Chain(
	runes.Remove(runes.In(unicode.Cf)), // BOM, zero-width joiners
	norm.NFC,
)

// NormalizeName trims surrounding space, drops invisible format runes such as
// a UTF-8 BOM, and composes the name to NFC so "Store_ID" from a BOM-prefixed
// export matches "Store_ID" from a database catalog.
func NormalizeName(s string) string {
	out, _, err := transform.String(nameCleaner, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// Truthy interprets a holiday-style flag element. NA is false.
func Truthy(e series.Element) bool {
	if e.IsNA() {
		return false
	}
	switch e.Type() {
	case series.Bool:
		b, err := e.Bool()
		return err == nil && b
	case series.Int:
		i, err := e.Int()
		return err == nil && i != 0
	case series.Float:
		f := e.Float()
		return !math.IsNaN(f) && f != 0
	default:
		s := strings.ToLower(strings.TrimSpace(e.String()))
		switch s {
		case "true", "t", "yes", "y":
			return true
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f != 0
	}
}

// Mean is the arithmetic mean of the non-missing numeric values of s.
// ok is false when s has no such value.
func Mean(s series.Series) (mean float64, ok bool) {
	var (
		sum float64
		n   int
	)
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		f := e.Float()
		if math.IsNaN(f) {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return math.NaN(), false
	}
	return sum / float64(n), true
}

// Mode is the most frequent non-missing value of s. Ties resolve to the
// lowest value in the natural order of the column type (numeric for Int and
// Float, lexicographic for String, false before true for Bool).
func Mode(s series.Series) (mode any, ok bool) {
	counts := make(map[any]int)
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		counts[e.Val()]++
	}
	if len(counts) == 0 {
		return nil, false
	}

	keys := make([]any, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })

	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

// FillNA returns a copy of s with every missing element replaced by v.
// The series keeps its name and type.
func FillNA(s series.Series, v any) series.Series {
	vals := make([]any, s.Len())
	for i := range vals {
		e := s.Elem(i)
		if e.IsNA() {
			vals[i] = v
			continue
		}
		vals[i] = e.Val()
	}
	return series.New(vals, s.Type(), s.Name)
}

// AsFloat converts s to a Float series. Values that cannot be read as a
// number become NA.
func AsFloat(s series.Series) series.Series {
	if s.Type() == series.Float {
		return s.Copy()
	}
	return series.New(s.Float(), series.Float, s.Name)
}

// AsInt converts s to an Int series. Non-integral or unparsable values become
// NA.
func AsInt(s series.Series) series.Series {
	if s.Type() == series.Int {
		return s.Copy()
	}
	vals := make([]any, s.Len())
	for i := range vals {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if e.Type() == series.Bool {
			if b, err := e.Bool(); err == nil {
				vals[i] = boolToInt(b)
			}
			continue
		}
		f := e.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			continue
		}
		vals[i] = int(f)
	}
	return series.New(vals, series.Int, s.Name)
}

// AllNA returns an n-row series of type t whose elements are all missing.
func AllNA(name string, t series.Type, n int) series.Series {
	return series.New(make([]any, n), t, name)
}

// normalizeValue maps driver values onto the Go types gota stores.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return float64(x)
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case bool:
		return x
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// resolveType picks the narrowest gota type that holds every value.
func resolveType(vals []any, hint series.Type) series.Type {
	var nInt, nFloat, nBool, nStr int
	for _, v := range vals {
		switch v.(type) {
		case nil:
		case int:
			nInt++
		case float64:
			nFloat++
		case bool:
			nBool++
		default:
			nStr++
		}
	}
	total := nInt + nFloat + nBool + nStr
	switch {
	case total == 0:
		if hint != "" {
			return hint
		}
		return series.String
	case nStr > 0:
		return series.String
	case nBool == total:
		return series.Bool
	case nBool > 0:
		return series.String
	case nFloat > 0 || hint == series.Float:
		return series.Float
	default:
		return series.Int
	}
}

// coerce converts normalized values to the representation series.New
// expects for t.
func coerce(vals []any, t series.Type) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		switch t {
		case series.Float:
			switch x := v.(type) {
			case int:
				out[i] = float64(x)
			default:
				out[i] = x
			}
		case series.String:
			switch x := v.(type) {
			case string:
				out[i] = x
			case float64:
				out[i] = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				out[i] = fmt.Sprint(x)
			}
		default:
			out[i] = v
		}
	}
	return out
}

func less(a, b any) bool {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case bool:
		if y, ok := b.(bool); ok {
			return !x && y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
