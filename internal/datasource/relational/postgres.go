package relational

import (
	// PostgreSQL through pgx's database/sql adapter, registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	d := Dialect{Driver: "pgx"}
	Register("postgres", d)
	Register("postgresql", d)
}
