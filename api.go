// Package sqlwrap builds SELECT statements through chained calls, executes them
// through a pluggable executor and maps the returned rows onto typed records.
//
// # Quick Start
//
// Define record types with struct tags:
//
//	type Order struct {
//	    ID     int64  `db:"id" constraints:"primarykey"`
//	    Status string `db:"status"`
//	}
//
//	type Item struct {
//	    ID      int64  `db:"id" constraints:"primarykey"`
//	    OrderID int64  `db:"order_id" references:"Order(id)"`
//	    SKU     string `db:"sku"`
//	}
//
// Build and execute a statement:
//
//	w := sqlwrap.New(db).
//	    From(sqlwrap.Table[Order](), "o").
//	    InnerJoin(sqlwrap.Table[Item](), "i").
//	    On(2, "OrderID", 1, "ID").
//	    Select(1, "ID", "Status").
//	    Eq(1, "Status", "PAID").
//	    In(2, "SKU", []string{"A", "B"}).
//	    OrderByDesc(1, "ID")
//
//	orders, err := sqlwrap.QueryAll[Order](ctx, w)
//
// Tables are addressed by their 1-based registration index. Column names are
// resolved through the record's db tags; unknown names pass through verbatim.
//
// # Skipped predicates
//
// Comparisons with a nil value, blank LIKE patterns, BETWEEN with a nil bound
// and IN with an empty list are skipped silently so optional filters can be
// chained without conditionals. A nil comparison never renders "= NULL"; use
// IsNull or IsNotNull, which always render.
//
// # Features
//
//   - Multi-table statements with inner, left, right and full joins
//   - Sub-queries as tables, comparison values, IN lists and EXISTS checks
//   - Nested AND/OR groups with ordered argument binding
//   - Aggregate projections, GROUP BY and HAVING
//   - Count and page queries derived from the same statement
//   - MySQL, SQLite and PostgreSQL placeholder and pagination dialects
//   - Row coercion into records, including dates and integer booleans
//   - Integration with capitan for structured logging
package sqlwrap

// Query builds a nested statement on a child wrapper. Nested wrappers share
// the parent's dialect and can reach the parent's tables through EqOuter.
type Query func(*Wrapper)

// Wrapper accumulates one SELECT statement. It is not safe for concurrent use;
// build independent wrappers for concurrent statements.
type Wrapper struct {
	exec    Executor
	dialect Dialect
	parent  *Wrapper
	depth   int

	tables  []TableRef
	aliases map[string]int

	distinct bool
	columns  []string
	where    predicates
	having   predicates
	groupBy  []string
	orders   []string
	target   *predicates

	err error
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithDialect selects placeholder and pagination syntax. Defaults to MySQL.
func WithDialect(d Dialect) Option {
	return func(w *Wrapper) {
		w.dialect = d
	}
}

// New creates a Wrapper bound to an executor. A nil executor yields a
// render-only wrapper whose terminal queries return ErrNoExecutor.
func New(exec Executor, opts ...Option) *Wrapper {
	w := &Wrapper{
		exec:    exec,
		dialect: MySQL,
		aliases: make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reset clears the statement so the wrapper can build an unrelated query.
// The executor and dialect are kept.
func (w *Wrapper) Reset() *Wrapper {
	*w = Wrapper{
		exec:    w.exec,
		dialect: w.dialect,
		parent:  w.parent,
		depth:   w.depth,
		aliases: make(map[string]int),
	}
	return w
}

// Err returns the first construction error, if any. Once set, further builder
// calls are no-ops and every terminal query returns it.
func (w *Wrapper) Err() error {
	return w.err
}

// Dialect returns the SQL dialect the wrapper renders for.
func (w *Wrapper) Dialect() Dialect {
	return w.dialect
}

func (w *Wrapper) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// nested renders q against a child wrapper without ORDER BY. Errors raised
// inside q are recorded on w.
func (w *Wrapper) nested(q Query) (Statement, bool) {
	child := &Wrapper{
		dialect: w.dialect,
		parent:  w,
		depth:   w.depth + 1,
		aliases: make(map[string]int),
	}
	q(child)

	st, err := child.render(false)
	if err != nil {
		w.fail(err)
		return Statement{}, false
	}
	return st, true
}
