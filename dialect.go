package sqlwrap

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect selects placeholder, pagination and aggregate syntax.
type Dialect int

// Supported dialects.
const (
	MySQL Dialect = iota
	SQLite
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "mysql"
	}
}

// ParseDialect maps a dialect or driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return MySQL, fmt.Errorf("sqlwrap: unknown dialect %q", name)
}

// Driver returns the database/sql driver name registered for the dialect.
func (d Dialect) Driver() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case Postgres:
		return "postgres"
	default:
		return "mysql"
	}
}

// quotedMark stands in for "?" inside quoted text while placeholders are
// rewritten, so numbering follows the same rules as the alignment check.
const quotedMark = "\x00"

// Bind converts "?" placeholders to the dialect's placeholder format. A "?"
// inside a quoted literal or identifier is left as is.
func (d Dialect) Bind(sql string) (string, error) {
	if d != Postgres {
		return squirrel.Question.ReplacePlaceholders(sql)
	}

	var b strings.Builder
	b.Grow(len(sql))
	walkQuoted(sql, func(r rune, quoted bool) {
		if r == '?' && quoted {
			b.WriteString(quotedMark)
			return
		}
		b.WriteRune(r)
	})

	bound, err := squirrel.Dollar.ReplacePlaceholders(b.String())
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(bound, quotedMark, "?"), nil
}

// limit renders the pagination suffix for a zero-based offset.
func (d Dialect) limit(offset, count int) string {
	if d == Postgres {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", count, offset)
	}
	return fmt.Sprintf(" LIMIT %d,%d", offset, count)
}

func (d Dialect) aggregate(fn Aggregate, expr string) string {
	if fn == AggGroupConcat && d == Postgres {
		return "string_agg(" + expr + "::text, ',')"
	}
	return string(fn) + "(" + expr + ")"
}
