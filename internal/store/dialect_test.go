package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"sqlite", "postgres", "pgx", "duckdb", " SQLite "} {
		_, err := DialectFor(name)
		assert.NoError(t, err, name)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestDialect_Rebind(t *testing.T) {
	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", pg.Rebind("UPDATE t SET a = ?, b = ? WHERE id = ?"))

	lite, err := DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = ?", lite.Rebind("SELECT * FROM t WHERE id = ?"))
}

func TestDialect_Schema(t *testing.T) {
	duck, err := DialectFor("duckdb")
	require.NoError(t, err)
	for _, stmt := range duck.Schema() {
		assert.NotContains(t, stmt, "REFERENCES")
	}

	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Contains(t, pg.Schema()[2], "ON DELETE CASCADE")
}
