package relational

import (
	"fmt"
	"os"
	"strings"

	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

func init() {
	d := Dialect{
		Driver: "sqlite",
		Check:  checkSQLiteFile,
	}
	Register("", d)
	Register("file", d)
}

// checkSQLiteFile fails when the database file is missing. Opening a missing
// path with the sqlite driver would silently create an empty database.
func checkSQLiteFile(locator string) error {
	path := locator
	if strings.HasPrefix(strings.ToLower(path), "file:") {
		path = path[len("file:"):]
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" || path == ":memory:" {
			return nil
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("sqlite: %s is a directory", path)
	}
	return nil
}
