package listquery

import (
	"fmt"
	"strings"
)

// Dialect covers the SQL differences between supported databases.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// Contains returns a case-insensitive LIKE match of column against a
	// bound pattern.
	Contains(column, placeholder string) string
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) Contains(column, placeholder string) string {
	return fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", column, placeholder)
}

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Contains(column, placeholder string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s) ESCAPE '\\'", column, placeholder)
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// SelectBuilder renders a predicate and order into parameterized count and
// data queries for one schema. It implements Builder.
type SelectBuilder struct {
	dialect Dialect
	schema  *Schema
	args    []interface{}
	root    *sqlScope
	orderBy []string
	ordered bool
}

// NewSelect creates a SelectBuilder for s.
func NewSelect(d Dialect, s *Schema) *SelectBuilder {
	q := &SelectBuilder{dialect: d, schema: s}
	q.root = &sqlScope{q: q, alias: s.def.Alias}
	return q
}

func (q *SelectBuilder) bind(v interface{}) string {
	q.args = append(q.args, v)
	return q.dialect.Placeholder(len(q.args))
}

func (q *SelectBuilder) In(column string, values []string)      { q.root.In(column, values) }
func (q *SelectBuilder) Contains(column, term string)           { q.root.Contains(column, term) }
func (q *SelectBuilder) Related(rel Relation, fn func(Builder)) { q.root.Related(rel, fn) }
func (q *SelectBuilder) Any(fn func(Builder))                   { q.root.Any(fn) }

// OrderBy appends an ordering directive.
func (q *SelectBuilder) OrderBy(o Order) {
	q.ordered = true
	base := q.schema.def.Alias
	dir := "ASC"
	if o.Direction == Desc {
		dir = "DESC"
	}
	if o.Relation == nil {
		q.orderBy = append(q.orderBy, fmt.Sprintf("%s.%s %s", base, o.Column, dir))
		return
	}
	r := o.Relation
	q.orderBy = append(q.orderBy, fmt.Sprintf("(SELECT %s.%s FROM %s %s WHERE %s.%s = %s.%s) %s",
		r.Alias, o.Column, r.Table, r.Alias, r.Alias, r.ForeignColumn, base, r.LocalColumn, dir))
}

func (q *SelectBuilder) where() string {
	if len(q.root.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.root.parts, " AND ")
}

func (q *SelectBuilder) order() string {
	if !q.ordered {
		q.OrderBy(q.schema.defaultOrder)
	}
	parts := append([]string(nil), q.orderBy...)
	key := q.schema.def.Alias + "." + q.schema.def.Key
	if !strings.HasPrefix(parts[0], key+" ") || len(parts) > 1 {
		parts = append(parts, key+" ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// CountSQL returns the count query.
func (q *SelectBuilder) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s %s%s", q.schema.def.Table, q.schema.def.Alias, q.where())
}

// CountArgs returns the arguments for the count query.
func (q *SelectBuilder) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the page query with ORDER BY and LIMIT/OFFSET.
func (q *SelectBuilder) DataSQL() string {
	d := q.schema.def
	sql := fmt.Sprintf("SELECT %s FROM %s %s", d.Columns, d.Table, d.Alias)
	if d.Joins != "" {
		sql += " " + d.Joins
	}
	sql += q.where()
	sql += q.order()
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", q.dialect.Placeholder(len(q.args)+1), q.dialect.Placeholder(len(q.args)+2))
	return sql
}

// DataArgs returns the arguments for the data query (predicate args + limit + offset).
func (q *SelectBuilder) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// sqlScope collects fragments for one nesting level. Fragments are joined
// with AND by the parent unless the scope was opened by Any.
type sqlScope struct {
	q     *SelectBuilder
	alias string
	parts []string
}

func (s *sqlScope) col(column string) string { return s.alias + "." + column }

func (s *sqlScope) In(column string, values []string) {
	if len(values) == 0 {
		s.parts = append(s.parts, "1=0")
		return
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = s.q.bind(v)
	}
	s.parts = append(s.parts, fmt.Sprintf("%s IN (%s)", s.col(column), strings.Join(ph, ", ")))
}

func (s *sqlScope) Contains(column, term string) {
	pattern := "%" + escapeLike(term) + "%"
	s.parts = append(s.parts, s.q.dialect.Contains(s.col(column), s.q.bind(pattern)))
}

func (s *sqlScope) Related(rel Relation, fn func(Builder)) {
	child := &sqlScope{q: s.q, alias: rel.Alias}
	fn(child)
	conds := append([]string{fmt.Sprintf("%s.%s = %s.%s", rel.Alias, rel.ForeignColumn, s.alias, rel.LocalColumn)}, child.parts...)
	s.parts = append(s.parts, fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s)",
		rel.Table, rel.Alias, strings.Join(conds, " AND ")))
}

func (s *sqlScope) Any(fn func(Builder)) {
	child := &sqlScope{q: s.q, alias: s.alias}
	fn(child)
	if len(child.parts) == 0 {
		return
	}
	s.parts = append(s.parts, "("+strings.Join(child.parts, " OR ")+")")
}

func (s *sqlScope) OrderBy(o Order) { s.q.OrderBy(o) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
