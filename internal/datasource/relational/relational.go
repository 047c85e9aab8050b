// Package relational reads a whole table from a SQL database into a
// DataFrame.
//
// Databases are addressed by a locator string. The locator's scheme selects a
// Dialect registered by an init function in this package:
//
//	grocery_sales.db                    SQLite file (modernc.org/sqlite)
//	file:grocery_sales.db?mode=ro       SQLite URI
//	postgres://user:pw@host/db          PostgreSQL (pgx stdlib)
//	sqlserver://user:pw@host?database=x SQL Server (go-mssqldb)
//
// Callers stay dialect-agnostic; they pass a locator and a table name to
// ReadTable and get a typed DataFrame back.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Dialect describes how to reach one kind of database through database/sql.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// DSN converts a locator into the driver's data source name. Nil means
	// the locator is passed through unchanged.
	DSN func(locator string) string

	// Check is an optional pre-open check, e.g. that a SQLite file exists so
	// the driver does not create an empty database in its place.
	Check func(locator string) error

	// Quote quotes one identifier part. Nil means ANSI double quotes.
	Quote func(ident string) string
}

var (
	mu       sync.RWMutex
	dialects = make(map[string]Dialect)
)

// Register makes a Dialect available for locators with the given scheme. The
// empty scheme matches plain file paths. Registering a scheme twice replaces
// the previous dialect.
func Register(scheme string, d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[strings.ToLower(scheme)] = d
}

// Schemes returns the registered schemes in sorted order.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Scheme extracts the scheme of a locator: the part before "://", "file" for
// SQLite URIs, and "" for plain paths.
func Scheme(locator string) string {
	l := strings.TrimSpace(locator)
	if i := strings.Index(l, "://"); i > 0 {
		return strings.ToLower(l[:i])
	}
	if strings.HasPrefix(strings.ToLower(l), "file:") {
		return "file"
	}
	return ""
}

// Resolve returns the dialect registered for the locator's scheme.
func Resolve(locator string) (Dialect, error) {
	s := Scheme(locator)
	mu.RLock()
	d, ok := dialects[s]
	mu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("relational: unsupported locator scheme %q (registered: %v)", s, Schemes())
	}
	return d, nil
}

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTable reports whether name is a plain or schema-qualified identifier
// that can be interpolated into a SELECT after quoting.
func ValidTable(name string) bool {
	return tableRe.MatchString(name)
}

// openDB is a test hook.
var openDB = sql.Open

// pingTimeout bounds the connectivity check after opening.
const pingTimeout = 5 * time.Second

// Open resolves the locator and returns a pinged *sql.DB along with the
// dialect used.
func Open(ctx context.Context, locator string) (*sql.DB, Dialect, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, Dialect{}, etlerr.DataSource("relational: open", fmt.Errorf("empty locator"))
	}
	d, err := Resolve(locator)
	if err != nil {
		return nil, Dialect{}, etlerr.DataSource("relational: open", err)
	}
	if d.Check != nil {
		if err := d.Check(locator); err != nil {
			return nil, Dialect{}, etlerr.DataSource("relational: open", err)
		}
	}
	dsn := locator
	if d.DSN != nil {
		dsn = d.DSN(locator)
	}

	db, err := openDB(d.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, etlerr.DataSource("relational: open", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, Dialect{}, etlerr.DataSource("relational: ping", err)
	}
	return db, d, nil
}

// ReadTable returns every row of table as a DataFrame. Column types follow
// the database's declared types where the driver reports them, falling back
// to the values themselves.
func ReadTable(ctx context.Context, locator, table string) (dataframe.DataFrame, error) {
	if !ValidTable(table) {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: read", fmt.Errorf("invalid table name %q", table))
	}
	db, d, err := Open(ctx, locator)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer db.Close()

	return Query(ctx, db, "SELECT * FROM "+quoteTable(d, table))
}

// Query runs a query on db and materializes its result set.
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (dataframe.DataFrame, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: query", err)
	}
	defer rows.Close()

	cts, err := rows.ColumnTypes()
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: column types", err)
	}
	cols := make([]frame.Column, len(cts))
	for i, ct := range cts {
		cols[i] = frame.Column{Name: ct.Name(), Hint: hintFor(ct.DatabaseTypeName())}
	}

	dest := make([]any, len(cts))
	ptrs := make([]any, len(cts))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, etlerr.DataSource("relational: scan", err)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return dataframe.DataFrame{}, etlerr.DataSource("relational: scan", err)
		}
		for i, v := range dest {
			if b, ok := v.([]byte); ok {
				// drivers may reuse the buffer on the next Scan
				v = string(b)
			}
			cols[i].Values = append(cols[i].Values, v)
			dest[i] = nil
		}
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: rows", err)
	}

	if len(cols) == 0 {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: query", fmt.Errorf("result has no columns"))
	}
	for i := range cols {
		if cols[i].Values == nil {
			cols[i].Values = []any{}
		}
	}
	df, err := frame.Build(cols)
	if err != nil {
		return dataframe.DataFrame{}, etlerr.DataSource("relational: build", err)
	}
	return df, nil
}

// hintFor maps a declared column type onto a gota type. It follows SQLite's
// type affinity rules, which also cover the usual Postgres and SQL Server
// names.
func hintFor(dbType string) series.Type {
	t := strings.ToUpper(dbType)
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "INT"):
		return series.Int
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return series.String
	case strings.Contains(t, "BOOL"), t == "BIT":
		return series.Bool
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"), strings.Contains(t, "MONEY"):
		return series.Float
	default:
		return ""
	}
}

func quoteTable(d Dialect, table string) string {
	q := d.Quote
	if q == nil {
		q = quoteANSI
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = q(p)
	}
	return strings.Join(parts, ".")
}

func quoteANSI(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
