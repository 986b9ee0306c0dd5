package sqlwrap

import (
	"reflect"
	"strings"
)

// connector is the logical operator placed before the next emitted predicate.
type connector int

const (
	connAnd connector = iota
	connOr
)

// predicates accumulates one WHERE or HAVING scope as rendered text with its
// arguments in placeholder order.
type predicates struct {
	sql  strings.Builder
	args []any
	next connector
}

// emit appends a predicate, prefixed with the pending connector unless it is
// the first in its scope, and returns the scope to AND-pending.
func (p *predicates) emit(fragment string, args ...any) {
	if p.sql.Len() > 0 {
		if p.next == connOr {
			p.sql.WriteString(" or ")
		} else {
			p.sql.WriteString(" and ")
		}
	}
	p.sql.WriteString(fragment)
	p.args = append(p.args, args...)
	p.next = connAnd
}

// skip drops a pending OR so it cannot attach to a later predicate.
func (p *predicates) skip() {
	p.next = connAnd
}

func (p *predicates) empty() bool {
	return p.sql.Len() == 0
}

func (w *Wrapper) pred() *predicates {
	if w.target != nil {
		return w.target
	}
	return &w.where
}

// isNil reports untyped nils and nil pointers, maps, slices, funcs and interfaces.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// asQuery unwraps sub-query values.
func asQuery(v any) (Query, bool) {
	switch q := v.(type) {
	case Query:
		return q, true
	case func(*Wrapper):
		return q, true
	}
	return nil, false
}

// Or makes the next emitted predicate join with "or" instead of "and".
func (w *Wrapper) Or() *Wrapper {
	if w.err == nil {
		w.pred().next = connOr
	}
	return w
}

// And renders the predicates added by fn as one parenthesised group, joined
// with the connector pending before the group. Empty groups render nothing.
func (w *Wrapper) And(fn func(*Wrapper)) *Wrapper {
	return w.group(fn, false)
}

// OrGroup renders the predicates added by fn as one parenthesised group joined
// with "or".
func (w *Wrapper) OrGroup(fn func(*Wrapper)) *Wrapper {
	return w.group(fn, true)
}

func (w *Wrapper) group(fn func(*Wrapper), or bool) *Wrapper {
	if w.err != nil {
		return w
	}

	outer := w.pred()
	child := &predicates{}
	prev := w.target
	w.target = child
	fn(w)
	w.target = prev

	if w.err != nil {
		return w
	}
	if child.empty() {
		outer.skip()
		return w
	}
	if or {
		outer.next = connOr
	}
	outer.emit("("+child.sql.String()+")", child.args...)
	return w
}

// Eq adds "<column> = ?". Nil values are skipped.
func (w *Wrapper) Eq(table int, column string, value any) *Wrapper {
	return w.compare("=", table, column, value)
}

// Ne adds "<column> <> ?". Nil values are skipped.
func (w *Wrapper) Ne(table int, column string, value any) *Wrapper {
	return w.compare("<>", table, column, value)
}

// Gt adds "<column> > ?". Nil values are skipped.
func (w *Wrapper) Gt(table int, column string, value any) *Wrapper {
	return w.compare(">", table, column, value)
}

// Ge adds "<column> >= ?". Nil values are skipped.
func (w *Wrapper) Ge(table int, column string, value any) *Wrapper {
	return w.compare(">=", table, column, value)
}

// Lt adds "<column> < ?". Nil values are skipped.
func (w *Wrapper) Lt(table int, column string, value any) *Wrapper {
	return w.compare("<", table, column, value)
}

// Le adds "<column> <= ?". Nil values are skipped.
func (w *Wrapper) Le(table int, column string, value any) *Wrapper {
	return w.compare("<=", table, column, value)
}

// compare renders a comparison. A Query value renders as a sub-query.
func (w *Wrapper) compare(op string, table int, column string, value any) *Wrapper {
	if w.err != nil {
		return w
	}
	p := w.pred()
	if isNil(value) {
		p.skip()
		return w
	}

	col, ok := w.column(table, column)
	if !ok {
		return w
	}

	if q, ok := asQuery(value); ok {
		st, ok := w.nested(q)
		if !ok {
			return w
		}
		p.emit(col+" "+op+" ("+st.SQL+")", st.Args...)
		return w
	}

	p.emit(col+" "+op+" ?", value)
	return w
}

// EqColumn adds "<table1>.<column1> = <table2>.<column2>".
func (w *Wrapper) EqColumn(table1 int, column1 string, table2 int, column2 string) *Wrapper {
	if w.err != nil {
		return w
	}
	left, ok := w.column(table1, column1)
	if !ok {
		return w
	}
	right, ok := w.column(table2, column2)
	if !ok {
		return w
	}
	w.pred().emit(left + " = " + right)
	return w
}

// EqOuter correlates a nested statement with an enclosing one by comparing a
// local column to a column of the enclosing table registered under outerAlias.
func (w *Wrapper) EqOuter(table int, column, outerAlias, outerColumn string) *Wrapper {
	if w.err != nil {
		return w
	}
	inner, ok := w.column(table, column)
	if !ok {
		return w
	}
	outer, ok := w.outerColumn(outerAlias, outerColumn)
	if !ok {
		return w
	}
	w.pred().emit(inner + " = " + outer)
	return w
}

// IsNull adds "<column> is null". Always rendered.
func (w *Wrapper) IsNull(table int, column string) *Wrapper {
	return w.nullCheck(table, column, "is null")
}

// IsNotNull adds "<column> is not null". Always rendered.
func (w *Wrapper) IsNotNull(table int, column string) *Wrapper {
	return w.nullCheck(table, column, "is not null")
}

func (w *Wrapper) nullCheck(table int, column, check string) *Wrapper {
	if w.err != nil {
		return w
	}
	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	w.pred().emit(col + " " + check)
	return w
}

// Like adds "<column> like ?" bound to %value%. Blank values are skipped.
func (w *Wrapper) Like(table int, column, value string) *Wrapper {
	return w.pattern(table, column, "%"+value+"%", value, "like")
}

// LikeLeft adds "<column> like ?" bound to %value, matching values that end
// with value. Blank values are skipped.
func (w *Wrapper) LikeLeft(table int, column, value string) *Wrapper {
	return w.pattern(table, column, "%"+value, value, "like")
}

// LikeRight adds "<column> like ?" bound to value%, matching values that start
// with value. Blank values are skipped.
func (w *Wrapper) LikeRight(table int, column, value string) *Wrapper {
	return w.pattern(table, column, value+"%", value, "like")
}

// NotLike adds "<column> not like ?" bound to %value%. Blank values are skipped.
func (w *Wrapper) NotLike(table int, column, value string) *Wrapper {
	return w.pattern(table, column, "%"+value+"%", value, "not like")
}

func (w *Wrapper) pattern(table int, column, bound, raw, op string) *Wrapper {
	if w.err != nil {
		return w
	}
	p := w.pred()
	if strings.TrimSpace(raw) == "" {
		p.skip()
		return w
	}
	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	p.emit(col+" "+op+" ?", bound)
	return w
}

// Between adds "<column> between ? and ?". Skipped if either bound is nil.
func (w *Wrapper) Between(table int, column string, low, high any) *Wrapper {
	return w.between(table, column, low, high, "between")
}

// NotBetween adds "<column> not between ? and ?". Skipped if either bound is nil.
func (w *Wrapper) NotBetween(table int, column string, low, high any) *Wrapper {
	return w.between(table, column, low, high, "not between")
}

func (w *Wrapper) between(table int, column string, low, high any, op string) *Wrapper {
	if w.err != nil {
		return w
	}
	p := w.pred()
	if isNil(low) || isNil(high) {
		p.skip()
		return w
	}
	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	p.emit(col+" "+op+" ? and ?", low, high)
	return w
}

// In adds "<column> in (?, ...)". A single slice argument is expanded; a single
// Query renders as a sub-query. Empty lists are skipped.
func (w *Wrapper) In(table int, column string, values ...any) *Wrapper {
	return w.membership(table, column, values, "in")
}

// NotIn adds "<column> not in (?, ...)". Empty lists are skipped.
func (w *Wrapper) NotIn(table int, column string, values ...any) *Wrapper {
	return w.membership(table, column, values, "not in")
}

func (w *Wrapper) membership(table int, column string, values []any, op string) *Wrapper {
	if w.err != nil {
		return w
	}
	p := w.pred()

	if len(values) == 1 {
		if q, ok := asQuery(values[0]); ok && q != nil {
			col, ok := w.column(table, column)
			if !ok {
				return w
			}
			st, ok := w.nested(q)
			if !ok {
				return w
			}
			p.emit(col+" "+op+" ("+st.SQL+")", st.Args...)
			return w
		}
		values = expand(values[0])
	}

	if len(values) == 0 {
		p.skip()
		return w
	}

	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	p.emit(col+" "+op+" ("+marks+")", values...)
	return w
}

// expand flattens a slice or array argument. []byte is treated as a scalar.
func expand(v any) []any {
	if isNil(v) {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Exists adds "exists (<sub-query>)".
func (w *Wrapper) Exists(q Query) *Wrapper {
	return w.existence(q, "exists")
}

// NotExists adds "not exists (<sub-query>)".
func (w *Wrapper) NotExists(q Query) *Wrapper {
	return w.existence(q, "not exists")
}

func (w *Wrapper) existence(q Query, op string) *Wrapper {
	if w.err != nil {
		return w
	}
	if q == nil {
		w.pred().skip()
		return w
	}
	st, ok := w.nested(q)
	if !ok {
		return w
	}
	w.pred().emit(op+" ("+st.SQL+")", st.Args...)
	return w
}

// ExistsRaw adds "exists (<sql>)" with its own arguments.
func (w *Wrapper) ExistsRaw(sql string, args ...any) *Wrapper {
	return w.raw("exists ("+sql+")", sql, args)
}

// NotExistsRaw adds "not exists (<sql>)" with its own arguments.
func (w *Wrapper) NotExistsRaw(sql string, args ...any) *Wrapper {
	return w.raw("not exists ("+sql+")", sql, args)
}

// Where adds a raw predicate fragment with its own arguments.
func (w *Wrapper) Where(sql string, args ...any) *Wrapper {
	return w.raw(sql, sql, args)
}

func (w *Wrapper) raw(fragment, body string, args []any) *Wrapper {
	if w.err != nil {
		return w
	}
	p := w.pred()
	if strings.TrimSpace(body) == "" {
		p.skip()
		return w
	}
	p.emit(fragment, args...)
	return w
}
