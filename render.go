package sqlwrap

import (
	"strings"
)

// Statement is rendered SQL with its arguments in placeholder order.
// Placeholders are always "?"; Dialect.Bind converts them for execution.
type Statement struct {
	SQL  string
	Args []any
}

// Render returns the full statement including ORDER BY. Rendering does not
// mutate the wrapper and is deterministic.
func (w *Wrapper) Render() (Statement, error) {
	return w.render(true)
}

// CountStatement returns a statement counting the rows Render would return.
// It never contains ORDER BY. Plain statements swap the select list for
// count(*); statements with projections, DISTINCT or GROUP BY are wrapped.
func (w *Wrapper) CountStatement() (Statement, error) {
	if w.err != nil {
		return Statement{}, w.err
	}
	body, args, err := w.body()
	if err != nil {
		return Statement{}, err
	}

	if len(w.columns) == 0 && !w.distinct && len(w.groupBy) == 0 {
		return Statement{SQL: "select count(*) as total" + body, Args: args}, nil
	}
	return Statement{SQL: "select count(*) as total from (" + w.head() + body + ") t", Args: args}, nil
}

// PageStatement returns the statement for a 1-based page of size rows.
func (w *Wrapper) PageStatement(page, size int) (Statement, error) {
	if size < 1 {
		return Statement{}, ErrInvalidPageSize
	}
	if page < 1 {
		page = 1
	}
	st, err := w.render(true)
	if err != nil {
		return Statement{}, err
	}
	st.SQL += w.dialect.limit((page-1)*size, size)
	return st, nil
}

func (w *Wrapper) render(ordered bool) (Statement, error) {
	if w.err != nil {
		return Statement{}, w.err
	}
	body, args, err := w.body()
	if err != nil {
		return Statement{}, err
	}

	sql := w.head() + body
	if ordered && len(w.orders) > 0 {
		sql += " order by " + strings.Join(w.orders, ", ")
	}
	return Statement{SQL: sql, Args: args}, nil
}

// head renders the select list.
func (w *Wrapper) head() string {
	var b strings.Builder
	b.WriteString("select ")
	if w.distinct {
		b.WriteString("distinct ")
	}
	if len(w.columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(w.columns, ", "))
	}
	return b.String()
}

// body renders everything from FROM through HAVING.
func (w *Wrapper) body() (string, []any, error) {
	if len(w.tables) == 0 {
		return "", nil, ErrNoTable
	}

	var (
		b    strings.Builder
		args []any
	)
	for _, ref := range w.tables {
		if ref.Join == JoinNone {
			b.WriteString(" from ")
		} else {
			b.WriteString(" " + ref.Join.String() + " ")
		}
		b.WriteString(ref.expr + " " + ref.Alias)
		if len(ref.on) > 0 {
			b.WriteString(" on " + strings.Join(ref.on, " and "))
		}
		args = append(args, ref.args...)
	}

	if !w.where.empty() {
		b.WriteString(" where " + w.where.sql.String())
		args = append(args, w.where.args...)
	}
	if len(w.groupBy) > 0 {
		b.WriteString(" group by " + strings.Join(w.groupBy, ", "))
	}
	if !w.having.empty() {
		b.WriteString(" having " + w.having.sql.String())
		args = append(args, w.having.args...)
	}

	return b.String(), args, nil
}

// countPlaceholders counts "?" outside quoted literals and identifiers.
func countPlaceholders(sql string) int {
	n := 0
	walkQuoted(sql, func(r rune, quoted bool) {
		if r == '?' && !quoted {
			n++
		}
	})
	return n
}

// walkQuoted calls fn for each rune of sql, reporting whether it lies inside
// a quoted literal or identifier. Quote characters count as quoted.
func walkQuoted(sql string, fn func(r rune, quoted bool)) {
	var quote rune
	for _, r := range sql {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			fn(r, true)
		case r == '\'' || r == '"' || r == '`':
			quote = r
			fn(r, true)
		default:
			fn(r, false)
		}
	}
}

// checkAlignment verifies the placeholder count matches the argument count.
func checkAlignment(st Statement) error {
	if n := countPlaceholders(st.SQL); n != len(st.Args) {
		return &ArgumentAlignmentError{SQL: st.SQL, Placeholders: n, Args: len(st.Args)}
	}
	return nil
}
