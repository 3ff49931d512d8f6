package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilder_Placeholders(t *testing.T) {
	q := selectIn{
		Columns: []string{"location", "cassette_id"},
		Table:   "cst",
		Key:     "location",
	}

	tests := []struct {
		driver string
		want   string
	}{
		{driver: "sqlite", want: "SELECT location, cassette_id FROM cst WHERE location IN (?, ?)"},
		{driver: "pgx", want: "SELECT location, cassette_id FROM cst WHERE location IN ($1, $2)"},
		{driver: "sqlserver", want: "SELECT location, cassette_id FROM cst WHERE location IN (@p1, @p2)"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			stmt, args, err := queryBuilder{driver: tt.driver}.build(q, []string{"A-01", "B'02"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt)
			assert.Equal(t, []any{"A-01", "B'02"}, args)
		})
	}
}

func TestQueryBuilder_GroupBy(t *testing.T) {
	q := selectIn{
		Columns: []string{"location", "COUNT(cassette_id)"},
		Table:   "beolpptsn.r_cst_cst",
		Key:     "location",
		GroupBy: "location",
	}
	stmt, _, err := queryBuilder{}.build(q, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT location, COUNT(cassette_id) FROM beolpptsn.r_cst_cst WHERE location IN (?) GROUP BY location", stmt)
}

func TestQueryBuilder_OpenQueryEscapesBothLevels(t *testing.T) {
	q := selectIn{
		Columns: []string{"location"},
		Table:   "cst",
		Key:     "location",
	}
	stmt, args, err := queryBuilder{link: "ORALINK", driver: "sqlserver"}.build(q, []string{"A-01", "O'Brien"})
	require.NoError(t, err)
	assert.Nil(t, args)
	assert.Equal(t,
		`SELECT * FROM OPENQUERY(ORALINK, 'SELECT location FROM cst WHERE location IN (''A-01'', ''O''''Brien'')')`,
		stmt)
}

func TestQueryBuilder_NoValues(t *testing.T) {
	_, _, err := queryBuilder{}.build(selectIn{Table: "cst"}, nil)
	assert.Error(t, err)
}

func TestValidIdent(t *testing.T) {
	for _, s := range []string{"cst", "beolpptsn.r_cst_cst", "_x1", "A$B"} {
		assert.True(t, validIdent(s), s)
	}
	for _, s := range []string{"", "1abc", "a.b.c", "a b", "a;b", "a'", "a--", "a.", "(x)"} {
		assert.False(t, validIdent(s), s)
	}
}

func TestChunks(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks(values, 2))
	assert.Equal(t, [][]string{values}, chunks(values, 0))
	assert.Equal(t, [][]string{values}, chunks(values, 10))
	assert.Nil(t, chunks(nil, 3))
}
