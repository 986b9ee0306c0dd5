package sqlwrap

import "fmt"

// JoinKind identifies how a table joins the statement.
type JoinKind int

// Join kinds. JoinNone marks the base table.
const (
	JoinNone JoinKind = iota
	InnerJoin
	LeftJoin
	RightJoin
	FullJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "inner join"
	case LeftJoin:
		return "left join"
	case RightJoin:
		return "right join"
	case FullJoin:
		return "full join"
	default:
		return ""
	}
}

// Source is a table expression: a record type or a sub-query.
type Source interface {
	source()
}

type entitySource struct {
	schema *Schema
	err    error
}

func (entitySource) source() {}

type subquerySource struct {
	query Query
}

func (subquerySource) source() {}

// Table returns a Source backed by the record type T.
func Table[T any]() Source {
	s, err := SchemaOf[T]()
	return entitySource{schema: s, err: err}
}

// Sub returns a Source backed by a sub-query. Columns of a sub-query table are
// referenced by their output names.
func Sub(q Query) Source {
	return subquerySource{query: q}
}

// TableRef is a table registered in a statement. It is immutable once added.
type TableRef struct {
	// Index is the 1-based registration order.
	Index int

	// Alias is the name the table is referenced by in rendered SQL.
	Alias string

	// Join is JoinNone for the base table.
	Join JoinKind

	// Schema is nil for sub-query tables.
	Schema *Schema

	expr string
	args []any
	on   []string
}

// Name returns the physical table name, or an empty string for sub-queries.
func (r TableRef) Name() string {
	if r.Schema == nil {
		return ""
	}
	return r.Schema.Table
}

// IsSubquery reports whether the table is backed by a sub-query.
func (r TableRef) IsSubquery() bool {
	return r.Schema == nil
}

// Column resolves a field or column name against the table.
func (r TableRef) Column(name string) string {
	if r.Schema == nil {
		return name
	}
	return r.Schema.Column(name)
}

// From registers the base table. An empty alias is generated from the index.
func (w *Wrapper) From(src Source, alias string) *Wrapper {
	return w.addTable(src, JoinNone, alias)
}

// InnerJoin registers a table joined with "inner join". Pair it with On.
func (w *Wrapper) InnerJoin(src Source, alias string) *Wrapper {
	return w.addTable(src, InnerJoin, alias)
}

// LeftJoin registers a table joined with "left join".
func (w *Wrapper) LeftJoin(src Source, alias string) *Wrapper {
	return w.addTable(src, LeftJoin, alias)
}

// RightJoin registers a table joined with "right join".
func (w *Wrapper) RightJoin(src Source, alias string) *Wrapper {
	return w.addTable(src, RightJoin, alias)
}

// FullJoin registers a table joined with "full join".
func (w *Wrapper) FullJoin(src Source, alias string) *Wrapper {
	return w.addTable(src, FullJoin, alias)
}

func (w *Wrapper) addTable(src Source, join JoinKind, alias string) *Wrapper {
	if w.err != nil {
		return w
	}

	index := len(w.tables) + 1
	switch {
	case join == JoinNone && len(w.tables) > 0:
		w.fail(newIndexError(index, "base table already registered"))
		return w
	case join != JoinNone && len(w.tables) == 0:
		w.fail(newIndexError(index, "join registered before From"))
		return w
	}

	if alias == "" {
		alias = w.aliasFor(index)
	}
	if _, taken := w.aliases[alias]; taken {
		w.fail(newAliasError(alias, "alias already registered"))
		return w
	}

	ref := TableRef{Index: index, Alias: alias, Join: join}
	switch s := src.(type) {
	case entitySource:
		if s.err != nil {
			w.fail(s.err)
			return w
		}
		ref.Schema = s.schema
		ref.expr = s.schema.Table
	case subquerySource:
		st, ok := w.nested(s.query)
		if !ok {
			return w
		}
		ref.expr = "(" + st.SQL + ")"
		ref.args = st.Args
	default:
		w.fail(newIndexError(index, "nil table source"))
		return w
	}

	w.tables = append(w.tables, ref)
	w.aliases[alias] = index
	return w
}

// aliasFor generates t<index> at the top level and t<depth>_<index> in nested
// statements so inner aliases never shadow outer ones.
func (w *Wrapper) aliasFor(index int) string {
	if w.depth == 0 {
		return fmt.Sprintf("t%d", index)
	}
	return fmt.Sprintf("t%d_%d", w.depth, index)
}

// On adds a join condition "<table1>.<column1> = <table2>.<column2>" to the most
// recently joined table. Repeated calls are combined with "and".
func (w *Wrapper) On(table1 int, column1 string, table2 int, column2 string) *Wrapper {
	if w.err != nil {
		return w
	}
	if len(w.tables) < 2 {
		w.fail(newIndexError(len(w.tables), "On called without a joined table"))
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

	last := &w.tables[len(w.tables)-1]
	last.on = append(last.on, left+" = "+right)
	return w
}

// Table returns the table registered at a 1-based index.
func (w *Wrapper) Table(index int) (TableRef, error) {
	if index < 1 || index > len(w.tables) {
		return TableRef{}, newIndexError(index, "no table registered")
	}
	return w.tables[index-1], nil
}

// TableByAlias returns the table registered under alias.
func (w *Wrapper) TableByAlias(alias string) (TableRef, error) {
	index, ok := w.aliases[alias]
	if !ok {
		return TableRef{}, newAliasError(alias, "no table registered")
	}
	return w.tables[index-1], nil
}

// Tables returns the registered tables in index order.
func (w *Wrapper) Tables() []TableRef {
	out := make([]TableRef, len(w.tables))
	copy(out, w.tables)
	return out
}

// column renders a qualified column reference. Index 0 returns name verbatim.
// Unknown indexes record a ReferenceError and report false.
func (w *Wrapper) column(table int, name string) (string, bool) {
	if table == 0 {
		return name, true
	}
	ref, err := w.Table(table)
	if err != nil {
		w.fail(err)
		return "", false
	}
	return ref.Alias + "." + ref.Column(name), true
}

// outerColumn resolves alias against the enclosing statements, innermost first.
func (w *Wrapper) outerColumn(alias, name string) (string, bool) {
	for p := w.parent; p != nil; p = p.parent {
		if ref, err := p.TableByAlias(alias); err == nil {
			return ref.Alias + "." + ref.Column(name), true
		}
	}
	w.fail(newAliasError(alias, "no enclosing table registered"))
	return "", false
}

// baseTable names the base table for events.
func (w *Wrapper) baseTable() string {
	if len(w.tables) == 0 {
		return ""
	}
	if name := w.tables[0].Name(); name != "" {
		return name
	}
	return w.tables[0].Alias
}
