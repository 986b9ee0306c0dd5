package sqlwrap

// Aggregate names an aggregate function usable in projections and predicates.
type Aggregate string

// Supported aggregate functions.
const (
	AggCount       Aggregate = "count"
	AggSum         Aggregate = "sum"
	AggAvg         Aggregate = "avg"
	AggMax         Aggregate = "max"
	AggMin         Aggregate = "min"
	AggGroupConcat Aggregate = "group_concat"
)

// Distinct renders "select distinct".
func (w *Wrapper) Distinct() *Wrapper {
	if w.err != nil {
		return w
	}
	w.distinct = true
	return w
}

// Select projects columns of one table in order. Index 0 projects raw expressions.
func (w *Wrapper) Select(table int, columns ...string) *Wrapper {
	if w.err != nil {
		return w
	}
	for _, name := range columns {
		col, ok := w.column(table, name)
		if !ok {
			return w
		}
		w.columns = append(w.columns, col)
	}
	return w
}

// SelectAs projects one column under an output alias.
func (w *Wrapper) SelectAs(table int, column, alias string) *Wrapper {
	if w.err != nil {
		return w
	}
	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	w.columns = append(w.columns, withAlias(col, alias))
	return w
}

// SelectAll projects "<alias>.*" for each table index.
func (w *Wrapper) SelectAll(tables ...int) *Wrapper {
	if w.err != nil {
		return w
	}
	for _, index := range tables {
		ref, err := w.Table(index)
		if err != nil {
			w.fail(err)
			return w
		}
		w.columns = append(w.columns, ref.Alias+".*")
	}
	return w
}

// SelectCount projects "count(*)" under alias.
func (w *Wrapper) SelectCount(alias string) *Wrapper {
	if w.err != nil {
		return w
	}
	w.columns = append(w.columns, withAlias("count(*)", alias))
	return w
}

// Count projects count(<column>) under alias. An empty column counts rows.
func (w *Wrapper) Count(table int, column, alias string) *Wrapper {
	return w.aggregate(AggCount, table, column, alias)
}

// Sum projects sum(<column>) under alias.
func (w *Wrapper) Sum(table int, column, alias string) *Wrapper {
	return w.aggregate(AggSum, table, column, alias)
}

// Avg projects avg(<column>) under alias.
func (w *Wrapper) Avg(table int, column, alias string) *Wrapper {
	return w.aggregate(AggAvg, table, column, alias)
}

// Max projects max(<column>) under alias.
func (w *Wrapper) Max(table int, column, alias string) *Wrapper {
	return w.aggregate(AggMax, table, column, alias)
}

// Min projects min(<column>) under alias.
func (w *Wrapper) Min(table int, column, alias string) *Wrapper {
	return w.aggregate(AggMin, table, column, alias)
}

// GroupConcat projects the dialect's string aggregation of <column> under alias.
func (w *Wrapper) GroupConcat(table int, column, alias string) *Wrapper {
	return w.aggregate(AggGroupConcat, table, column, alias)
}

func (w *Wrapper) aggregate(fn Aggregate, table int, column, alias string) *Wrapper {
	if w.err != nil {
		return w
	}
	expr := w.Expr(fn, table, column)
	if expr == "" {
		return w
	}
	w.columns = append(w.columns, withAlias(expr, alias))
	return w
}

// Expr renders an aggregate expression for use as a raw column (table index 0)
// in predicates, HAVING clauses and ordering. An empty column or "*" renders
// fn(*). Returns an empty string and records an error for unknown tables.
func (w *Wrapper) Expr(fn Aggregate, table int, column string) string {
	if column == "" || column == "*" {
		return w.dialect.aggregate(fn, "*")
	}
	col, ok := w.column(table, column)
	if !ok {
		return ""
	}
	return w.dialect.aggregate(fn, col)
}

func withAlias(expr, alias string) string {
	if alias == "" {
		return expr
	}
	return expr + " as " + alias
}

// GroupBy appends grouping columns of one table.
func (w *Wrapper) GroupBy(table int, columns ...string) *Wrapper {
	if w.err != nil {
		return w
	}
	for _, name := range columns {
		col, ok := w.column(table, name)
		if !ok {
			return w
		}
		w.groupBy = append(w.groupBy, col)
	}
	return w
}

// Having routes the predicates added by fn into the HAVING clause.
func (w *Wrapper) Having(fn func(*Wrapper)) *Wrapper {
	if w.err != nil {
		return w
	}
	prev := w.target
	w.target = &w.having
	fn(w)
	w.target = prev
	return w
}

// HavingRaw adds a raw HAVING fragment with its own arguments.
func (w *Wrapper) HavingRaw(sql string, args ...any) *Wrapper {
	if w.err != nil {
		return w
	}
	prev := w.target
	w.target = &w.having
	w.Where(sql, args...)
	w.target = prev
	return w
}

// OrderBy sets the primary sort key ascending, replacing earlier keys.
func (w *Wrapper) OrderBy(table int, column string) *Wrapper {
	return w.order(table, column, "asc", true)
}

// OrderByDesc sets the primary sort key descending, replacing earlier keys.
func (w *Wrapper) OrderByDesc(table int, column string) *Wrapper {
	return w.order(table, column, "desc", true)
}

// ThenBy appends an ascending tie-breaker.
func (w *Wrapper) ThenBy(table int, column string) *Wrapper {
	return w.order(table, column, "asc", false)
}

// ThenByDesc appends a descending tie-breaker.
func (w *Wrapper) ThenByDesc(table int, column string) *Wrapper {
	return w.order(table, column, "desc", false)
}

func (w *Wrapper) order(table int, column, direction string, primary bool) *Wrapper {
	if w.err != nil {
		return w
	}
	col, ok := w.column(table, column)
	if !ok {
		return w
	}
	if primary {
		w.orders = w.orders[:0]
	}
	w.orders = append(w.orders, col+" "+direction)
	return w
}
