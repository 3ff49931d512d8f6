package provider

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]*(\.[A-Za-z_][A-Za-z0-9_$#]*)?$`)

// validIdent reports whether s is a plain or schema-qualified SQL identifier.
func validIdent(s string) bool {
	return identPattern.MatchString(s)
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var (
	selectInTmpl = template.Must(template.New("select").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(
		`SELECT {{join .Columns ", "}} FROM {{.Table}} WHERE {{.Key}} IN ({{join .Values ", "}})` +
			`{{with .GroupBy}} GROUP BY {{.}}{{end}}`))

	openQueryTmpl = template.Must(template.New("openquery").Funcs(template.FuncMap{
		"literal": quoteLiteral,
	}).Parse(`SELECT * FROM OPENQUERY({{.Link}}, {{literal .Inner}})`))
)

// selectIn describes SELECT columns FROM table WHERE key IN (values...).
// Columns, Table, Key and GroupBy must be validated identifiers or
// expressions built from them.
type selectIn struct {
	Columns []string
	Table   string
	Key     string
	GroupBy string
}

// queryBuilder renders selectIn statements either as parameterized SQL for
// the configured driver or, when link is set, as a linked-server OPENQUERY
// passthrough whose values are embedded as escaped literals.
type queryBuilder struct {
	link   string
	driver string
}

// build renders q for values and returns the SQL text with its arguments.
func (b queryBuilder) build(q selectIn, values []string) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("build query on %s: no values", q.Table)
	}

	var args []any
	rendered := make([]string, len(values))
	for i, v := range values {
		if b.link != "" {
			rendered[i] = quoteLiteral(v)
			continue
		}
		rendered[i] = b.placeholder(i + 1)
		args = append(args, v)
	}

	var inner strings.Builder
	data := struct {
		Columns []string
		Table   string
		Key     string
		GroupBy string
		Values  []string
	}{q.Columns, q.Table, q.Key, q.GroupBy, rendered}
	if err := selectInTmpl.Execute(&inner, data); err != nil {
		return "", nil, fmt.Errorf("render query on %s: %w", q.Table, err)
	}
	if b.link == "" {
		return inner.String(), args, nil
	}

	var outer strings.Builder
	if err := openQueryTmpl.Execute(&outer, struct {
		Link  string
		Inner string
	}{b.link, inner.String()}); err != nil {
		return "", nil, fmt.Errorf("render passthrough on %s: %w", q.Table, err)
	}
	return outer.String(), nil, nil
}

// placeholder returns the n-th (1-based) bind parameter marker.
func (b queryBuilder) placeholder(n int) string {
	switch b.driver {
	case "sqlserver":
		return fmt.Sprintf("@p%d", n)
	case "pgx":
		return fmt.Sprintf("$%d", n)
	default:
		return "?"
	}
}

// chunks splits values into consecutive slices of at most size elements.
func chunks(values []string, size int) [][]string {
	if size <= 0 {
		size = len(values)
	}
	var out [][]string
	for len(values) > size {
		out = append(out, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		out = append(out, values)
	}
	return out
}
