package executor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// DriverError carries the driver-specific code of a database failure.
type DriverError struct {
	Driver string
	Code   string
	Err    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s error %s: %v", e.Driver, e.Code, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// UndefinedObject reports whether the failure names a missing table or column,
// the usual outcome of an unresolved column passed through verbatim.
func (e *DriverError) UndefinedObject() bool {
	switch e.Driver {
	case "mysql":
		// ER_NO_SUCH_TABLE, ER_BAD_FIELD_ERROR
		return e.Code == "1146" || e.Code == "1054"
	case "postgres":
		// undefined_table, undefined_column
		return e.Code == "42P01" || e.Code == "42703"
	}
	return false
}

// classify wraps driver errors in DriverError; other errors pass through.
func classify(driver string, err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return &DriverError{Driver: "mysql", Code: strconv.Itoa(int(mysqlErr.Number)), Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DriverError{Driver: "postgres", Code: string(pqErr.Code), Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return &DriverError{Driver: "sqlite3", Code: strconv.Itoa(int(sqliteErr.Code)), Err: err}
	}

	return err
}
