package relational

import (
	"strings"

	// SQL Server driver, registered as "sqlserver".
	_ "github.com/microsoft/go-mssqldb"
)

func init() {
	Register("sqlserver", Dialect{
		Driver: "sqlserver",
		Quote: func(ident string) string {
			return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
		},
	})
}
