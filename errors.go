package sqlwrap

import (
	"errors"
	"fmt"

	"github.com/zoobzio/sqlwrap/internal/scanner"
)

// Common errors returned by query execution.
var (
	// ErrNoResult is returned by single-record queries when the statement matched no rows.
	ErrNoResult = errors.New("sqlwrap: no result")

	// ErrNoExecutor is returned when a terminal query is called on a render-only wrapper.
	ErrNoExecutor = errors.New("sqlwrap: no executor configured")

	// ErrInvalidPageSize is returned when a page query is requested with a size below one.
	ErrInvalidPageSize = errors.New("sqlwrap: page size must be positive")

	// ErrNoTable is returned when a statement is rendered before From was called.
	ErrNoTable = errors.New("sqlwrap: no base table registered")
)

// ReferenceError reports a table index or alias that is not registered in the statement.
type ReferenceError struct {
	Index int
	Alias string
	Msg   string
}

func (e *ReferenceError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("sqlwrap: table alias %q: %s", e.Alias, e.Msg)
	}
	return fmt.Sprintf("sqlwrap: table index %d: %s", e.Index, e.Msg)
}

func newIndexError(index int, msg string) *ReferenceError {
	return &ReferenceError{Index: index, Msg: msg}
}

func newAliasError(alias, msg string) *ReferenceError {
	return &ReferenceError{Alias: alias, Msg: msg}
}

// ExecutionError wraps a failure reported by the executor.
type ExecutionError struct {
	Op    string
	SQL   string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sqlwrap: %s failed: %v", e.Op, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func newExecutionError(op, sql string, err error) *ExecutionError {
	return &ExecutionError{Op: op, SQL: sql, Cause: err}
}

// ArgumentAlignmentError reports a rendered statement whose placeholder count
// differs from its argument count.
type ArgumentAlignmentError struct {
	SQL          string
	Placeholders int
	Args         int
}

func (e *ArgumentAlignmentError) Error() string {
	return fmt.Sprintf("sqlwrap: statement has %d placeholders but %d arguments", e.Placeholders, e.Args)
}

// CoercionError reports a row value that could not be assigned to its record field.
type CoercionError = scanner.CoercionError
