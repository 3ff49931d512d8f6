package provider

import (
	"fmt"
	"strings"

	// Drivers the live source may be opened with.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// driverAliases maps configured driver names onto registered database/sql drivers.
var driverAliases = map[string]string{
	"sqlserver":  "sqlserver",
	"mssql":      "sqlserver",
	"pgx":        "pgx",
	"postgres":   "pgx",
	"postgresql": "pgx",
	"duckdb":     "duckdb",
	"sqlite":     "sqlite",
}

// sqlDriverName resolves a configured live source driver to its registered name.
func sqlDriverName(name string) (string, error) {
	driver, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unsupported live source driver %q", name)
	}
	return driver, nil
}
