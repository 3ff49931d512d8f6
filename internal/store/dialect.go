package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes the SQL flavour of a layout database.
type Dialect struct {
	Name   string
	Driver string

	dollarParams bool
	// layoutRef is appended to components.layout_id. DuckDB rejects a foreign
	// key that is deleted from in the same transaction, so it carries none.
	layoutRef string
	// recreateOnReplace drops and recreates the tables in ReplaceAll. DuckDB
	// checks unique keys against rows deleted earlier in the same transaction.
	recreateOnReplace bool
}

var dialects = map[string]Dialect{
	"sqlite": {
		Name:      "sqlite",
		Driver:    "sqlite",
		layoutRef: "REFERENCES layouts(id) ON DELETE CASCADE",
	},
	"postgres": {
		Name:         "postgres",
		Driver:       "pgx",
		dollarParams: true,
		layoutRef:    "REFERENCES layouts(id) ON DELETE CASCADE",
	},
	"duckdb": {
		Name:              "duckdb",
		Driver:            "duckdb",
		recreateOnReplace: true,
	},
}

// DialectFor looks up a dialect by name. "pgx" is accepted for postgres.
func DialectFor(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "pgx" {
		key = "postgres"
	}
	d, ok := dialects[key]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
	return d, nil
}

// Rebind rewrites ? placeholders into the dialect's parameter syntax.
func (d Dialect) Rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Schema returns the DDL statements creating the layout tables.
func (d Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id       TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role     TEXT NOT NULL DEFAULT 'worker'
		)`,
		`CREATE TABLE IF NOT EXISTS layouts (
			id     TEXT PRIMARY KEY,
			name   TEXT NOT NULL,
			width  INTEGER NOT NULL DEFAULT 800,
			height INTEGER NOT NULL DEFAULT 600,
			floor  TEXT,
			area   TEXT
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS components (
			id           TEXT PRIMARY KEY,
			layout_id    TEXT NOT NULL %s,
			type         TEXT NOT NULL,
			x            DOUBLE PRECISION NOT NULL DEFAULT 0,
			y            DOUBLE PRECISION NOT NULL DEFAULT 0,
			width        DOUBLE PRECISION NOT NULL DEFAULT 100,
			height       DOUBLE PRECISION NOT NULL DEFAULT 100,
			rotation     DOUBLE PRECISION NOT NULL DEFAULT 0,
			shape_points TEXT,
			code         TEXT,
			props        TEXT DEFAULT '{}',
			created_at   BIGINT NOT NULL
		)`, d.layoutRef),
		`CREATE INDEX IF NOT EXISTS idx_components_layout ON components(layout_id)`,
	}
}
