// Schema and clause types for the typed store.
//
// Callers describe tables, values, filters and ordering with the types in
// this file and never see SQL. Query text is assembled here from trusted
// identifiers; every value travels as a bound parameter.

package store

import (
	"strconv"
	"strings"

	"github.com/xtxerr/beacon/internal/errors"
)

// =============================================================================
// Value - closed tagged union {Text, Integer, Real}
// =============================================================================

// Kind identifies which member of the value union is set.
type Kind int

const (
	// KindInvalid is the zero Kind. Values of this kind are rejected by
	// every store operation.
	KindInvalid Kind = iota
	KindInteger
	KindReal
	KindText
)

// String returns the SQL type name for a kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindText:
		return "TEXT"
	default:
		return "INVALID"
	}
}

// Value is one typed column value: a (column name, scalar) pair where the
// scalar is exactly one of text, integer, or real. The zero Value is
// invalid; construct values with Text, Integer, or Real.
type Value struct {
	Column string

	kind    Kind
	text    string
	integer int64
	real    float64
}

// Text creates a text value for the named column.
func Text(column, v string) Value {
	return Value{Column: column, kind: KindText, text: v}
}

// Integer creates an integer value for the named column.
func Integer(column string, v int64) Value {
	return Value{Column: column, kind: KindInteger, integer: v}
}

// Real creates a real value for the named column.
func Real(column string, v float64) Value {
	return Value{Column: column, kind: KindReal, real: v}
}

// Kind returns which union member is set.
func (v Value) Kind() Kind { return v.kind }

// Text returns the text member. Zero for non-text values.
func (v Value) Text() string { return v.text }

// Int returns the integer member. Zero for non-integer values.
func (v Value) Int() int64 { return v.integer }

// Real returns the real member. Zero for non-real values.
func (v Value) Real() float64 { return v.real }

// arg returns the value as a database/sql bind argument.
func (v Value) arg() interface{} {
	switch v.kind {
	case KindInteger:
		return v.integer
	case KindReal:
		return v.real
	default:
		return v.text
	}
}

// Row is one result row, in the column order of the select.
type Row []Value

// Get returns the value for a column name.
func (r Row) Get(column string) (Value, bool) {
	for _, v := range r {
		if v.Column == column {
			return v, true
		}
	}
	return Value{}, false
}

// =============================================================================
// Column
// =============================================================================

// Column describes one table column for CreateTable and selects.
type Column struct {
	Name       string
	Kind       Kind
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}

// =============================================================================
// Where / OrderBy
// =============================================================================

// Comparator is the filter operator of a where clause.
type Comparator int

const (
	CmpLess Comparator = iota
	CmpGreater
	CmpEqual
)

// Where is a single-predicate filter. Boolean composition is deliberately
// unsupported; callers needing more than one predicate filter in memory.
type Where struct {
	Value Value
	Cmp   Comparator
}

// WhereEq builds an equality filter on the value's column.
func WhereEq(v Value) *Where { return &Where{Value: v, Cmp: CmpEqual} }

// WhereLess builds a less-than filter on the value's column.
func WhereLess(v Value) *Where { return &Where{Value: v, Cmp: CmpLess} }

// WhereGreater builds a greater-than filter on the value's column.
func WhereGreater(v Value) *Where { return &Where{Value: v, Cmp: CmpGreater} }

// Direction is the sort direction of an order-by clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// OrderBy is a single-column sort.
type OrderBy struct {
	Column string
	Dir    Direction
}

// =============================================================================
// Query construction
// =============================================================================

// validIdent reports whether s is safe to splice into query text as an
// identifier. Identifiers come from code, not the wire, but the check keeps
// the no-interpolation guarantee honest.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// buildCreateTable assembles a CREATE TABLE IF NOT EXISTS statement.
func buildCreateTable(table string, columns []Column) (string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if !validIdent(c.Name) {
			return "", errors.NewInvalidArgument("column name " + strconv.Quote(c.Name))
		}
		if c.Kind == KindInvalid {
			return "", errors.NewInvalidArgument("column " + c.Name + ": invalid kind")
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.Kind.String())
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if c.Unique {
			b.WriteString(" UNIQUE")
		}
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
	}

	b.WriteByte(')')
	return b.String(), nil
}

// buildInsert assembles a parameterized INSERT statement and its arguments.
func buildInsert(table string, values []Value) (string, []interface{}, error) {
	var b strings.Builder
	args := make([]interface{}, 0, len(values))

	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, v := range values {
		if !validIdent(v.Column) {
			return "", nil, errors.NewInvalidArgument("column name " + strconv.Quote(v.Column))
		}
		if v.Kind() == KindInvalid {
			return "", nil, errors.NewInvalidArgument("column " + v.Column + ": invalid value kind")
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Column)
		args = append(args, v.arg())
	}

	b.WriteString(") VALUES (")
	for i := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteByte(')')

	return b.String(), args, nil
}

// buildSelect assembles a parameterized SELECT statement. limit <= 0 means
// unbounded.
func buildSelect(table string, columns []Column, where *Where, orderBy *OrderBy, limit int64) (string, []interface{}, error) {
	var b strings.Builder
	var args []interface{}

	b.WriteString("SELECT ")
	for i, c := range columns {
		if !validIdent(c.Name) {
			return "", nil, errors.NewInvalidArgument("column name " + strconv.Quote(c.Name))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
	}
	b.WriteString(" FROM ")
	b.WriteString(table)

	if where != nil {
		if !validIdent(where.Value.Column) {
			return "", nil, errors.NewInvalidArgument("where column " + strconv.Quote(where.Value.Column))
		}
		if where.Value.Kind() == KindInvalid {
			return "", nil, errors.NewInvalidArgument("where value: invalid kind")
		}
		b.WriteString(" WHERE ")
		b.WriteString(where.Value.Column)
		switch where.Cmp {
		case CmpLess:
			b.WriteString(" < ?")
		case CmpGreater:
			b.WriteString(" > ?")
		case CmpEqual:
			b.WriteString(" = ?")
		default:
			return "", nil, errors.NewInvalidArgument("unknown comparator")
		}
		args = append(args, where.Value.arg())
	}

	if orderBy != nil {
		if !validIdent(orderBy.Column) {
			return "", nil, errors.NewInvalidArgument("order-by column " + strconv.Quote(orderBy.Column))
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy.Column)
		if orderBy.Dir == Descending {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(limit, 10))
	}

	return b.String(), args, nil
}
