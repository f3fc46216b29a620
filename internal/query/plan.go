// Package query holds the fixed read shapes used by vidhub. Each shape is a
// Plan value whose stages (fields, joins, filters, ordering, window) are plain
// data, compiled to PostgreSQL through squirrel only when executed.
package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Field is one projected output column.
type Field struct {
	Alias string
	Expr  sq.Sqlizer
}

// Col projects a plain column reference.
func Col(name string) Field {
	return Field{Expr: sq.Expr(name)}
}

// Computed projects an expression under an alias.
func Computed(alias string, expr string, args ...any) Field {
	return Field{Alias: alias, Expr: sq.Expr(expr, args...)}
}

// Join is a lookup stage.
type Join struct {
	Table string
	On    string
	Left  bool
}

// SortKey is one ordering term.
type SortKey struct {
	Column string
	Desc   bool
}

func (k SortKey) String() string {
	if k.Desc {
		return k.Column + " DESC"
	}
	return k.Column + " ASC"
}

// Plan is a named, fixed read shape.
type Plan struct {
	Name   string
	From   string
	Fields []Field
	Joins  []Join
	Where  []sq.Sqlizer
	Order  []SortKey
	Limit  uint64
	Offset uint64
}

// ToSQL compiles the plan into a PostgreSQL statement and its arguments.
func (p Plan) ToSQL() (string, []any, error) {
	if p.From == "" {
		return "", nil, fmt.Errorf("plan %s: missing source", p.Name)
	}
	if len(p.Fields) == 0 {
		return "", nil, fmt.Errorf("plan %s: no fields", p.Name)
	}

	sb := psql.Select().From(p.From)
	for _, f := range p.Fields {
		if f.Alias == "" {
			sb = sb.Column(f.Expr)
			continue
		}
		sb = sb.Column(sq.Alias(f.Expr, f.Alias))
	}
	for _, j := range p.Joins {
		clause := fmt.Sprintf("%s ON %s", j.Table, j.On)
		if j.Left {
			sb = sb.LeftJoin(clause)
		} else {
			sb = sb.Join(clause)
		}
	}
	for _, w := range p.Where {
		sb = sb.Where(w)
	}
	if len(p.Order) > 0 {
		terms := make([]string, 0, len(p.Order))
		for _, k := range p.Order {
			terms = append(terms, k.String())
		}
		sb = sb.OrderBy(strings.Join(terms, ", "))
	}
	if p.Limit > 0 {
		sb = sb.Limit(p.Limit)
	}
	if p.Offset > 0 {
		sb = sb.Offset(p.Offset)
	}

	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("plan %s: %w", p.Name, err)
	}
	return sqlStr, args, nil
}

// Count derives a plan that counts the rows matched by p, ignoring
// projection, ordering and the page window.
func (p Plan) Count() Plan {
	return Plan{
		Name:   p.Name + ".count",
		From:   p.From,
		Fields: []Field{Col("COUNT(*)")},
		Joins:  p.Joins,
		Where:  p.Where,
	}
}

// viewerExists renders an EXISTS probe keyed on the viewer, or a constant
// FALSE when there is no viewer.
func viewerExists(alias, probe, viewerID string) Field {
	if viewerID == "" {
		return Computed(alias, "FALSE")
	}
	return Computed(alias, "EXISTS ("+probe+")", viewerID)
}
