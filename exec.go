package sqlwrap

import (
	"context"
	"reflect"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sqlwrap/internal/scanner"
)

// Operation names reported in events and errors.
const (
	opCount = "COUNT"
	opOne   = "ONE"
	opAll   = "ALL"
	opMap   = "MAP"
	opMaps  = "MAPS"
	opPage  = "PAGE"
)

// Executor runs a rendered statement and returns its rows. Statements arrive
// with placeholders already converted for the wrapper's dialect.
type Executor interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Row is one result row as ordered column names and driver values.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of a column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as a column-keyed map. Values are passed through as
// returned by the driver.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			m[c] = r.Values[i]
		}
	}
	return m
}

// Page is one page of records with the totals computed by its count query.
type Page[T any] struct {
	Total   int64
	Pages   int64
	Current int
	Size    int
	Records []T
}

// fetch validates, binds and executes a statement, emitting started and failed
// events. Executor failures are wrapped in ExecutionError.
func (w *Wrapper) fetch(ctx context.Context, op string, st Statement) ([]Row, time.Time, error) {
	table := w.baseTable()

	if w.exec == nil {
		return nil, time.Time{}, ErrNoExecutor
	}

	if err := checkAlignment(st); err != nil {
		capitan.Error(ctx, ArgumentMismatch,
			TableKey.Field(table),
			OperationKey.Field(op),
			SQLKey.Field(st.SQL),
			ArgsKey.Field(len(st.Args)),
		)
		return nil, time.Time{}, err
	}

	query, err := w.dialect.Bind(st.SQL)
	if err != nil {
		return nil, time.Time{}, newExecutionError(op, st.SQL, err)
	}

	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(table),
		OperationKey.Field(op),
		SQLKey.Field(query),
		ArgsKey.Field(len(st.Args)),
	)

	startTime := time.Now()

	rows, err := w.exec.QueryRows(ctx, query, st.Args...)
	if err != nil {
		w.failed(ctx, op, startTime, err)
		return nil, startTime, newExecutionError(op, query, err)
	}

	return rows, startTime, nil
}

func (w *Wrapper) failed(ctx context.Context, op string, startTime time.Time, err error) {
	capitan.Error(ctx, QueryFailed,
		TableKey.Field(w.baseTable()),
		OperationKey.Field(op),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		ErrorKey.Field(err.Error()),
	)
}

func (w *Wrapper) completed(ctx context.Context, op string, startTime time.Time, rows int) {
	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(w.baseTable()),
		OperationKey.Field(op),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(rows),
	)
}

// QueryCount executes the count form of the statement.
func (w *Wrapper) QueryCount(ctx context.Context) (int64, error) {
	st, err := w.CountStatement()
	if err != nil {
		return 0, err
	}

	rows, startTime, err := w.fetch(ctx, opCount, st)
	if err != nil {
		return 0, err
	}

	var total int64
	if len(rows) > 0 && len(rows[0].Values) > 0 {
		if err := scanner.Coerce(rows[0].Values[0], reflect.ValueOf(&total).Elem()); err != nil {
			w.failed(ctx, opCount, startTime, err)
			return 0, newExecutionError(opCount, st.SQL, err)
		}
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(w.baseTable()),
		OperationKey.Field(opCount),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		ResultValueKey.Field(total),
	)
	return total, nil
}

// QueryMaps executes the statement and returns every row as a map.
func (w *Wrapper) QueryMaps(ctx context.Context) ([]map[string]any, error) {
	rows, startTime, err := w.queryRows(ctx, opMaps)
	if err != nil {
		return nil, err
	}
	w.completed(ctx, opMaps, startTime, len(rows))
	return rowMaps(rows), nil
}

// QueryMap executes the statement and returns the first row as a map.
// Returns ErrNoResult when no row matched.
func (w *Wrapper) QueryMap(ctx context.Context) (map[string]any, error) {
	rows, startTime, err := w.queryRows(ctx, opMap)
	if err != nil {
		return nil, err
	}
	w.completed(ctx, opMap, startTime, len(rows))
	if len(rows) == 0 {
		return nil, ErrNoResult
	}
	return rows[0].Map(), nil
}

// QueryMapPage executes a count query and then one page of the statement.
func (w *Wrapper) QueryMapPage(ctx context.Context, page, size int) (*Page[map[string]any], error) {
	p, rows, startTime, err := w.queryPage(ctx, page, size)
	if err != nil {
		return nil, err
	}
	w.completed(ctx, opPage, startTime, len(rows))
	p.Records = rowMaps(rows)
	return p, nil
}

// QueryRows executes the statement and returns the raw rows.
func (w *Wrapper) QueryRows(ctx context.Context) ([]Row, error) {
	rows, startTime, err := w.queryRows(ctx, opAll)
	if err != nil {
		return nil, err
	}
	w.completed(ctx, opAll, startTime, len(rows))
	return rows, nil
}

func (w *Wrapper) queryRows(ctx context.Context, op string) ([]Row, time.Time, error) {
	st, err := w.Render()
	if err != nil {
		return nil, time.Time{}, err
	}
	return w.fetch(ctx, op, st)
}

// queryPage runs the count query, then the page query. The two executions are
// not atomic; totals may drift from the page under concurrent writes.
func (w *Wrapper) queryPage(ctx context.Context, page, size int) (*Page[map[string]any], []Row, time.Time, error) {
	if w.err != nil {
		return nil, nil, time.Time{}, w.err
	}
	if size < 1 {
		return nil, nil, time.Time{}, ErrInvalidPageSize
	}
	if page < 1 {
		page = 1
	}

	capitan.Debug(ctx, PageRequested,
		TableKey.Field(w.baseTable()),
		PageKey.Field(page),
		PageSizeKey.Field(size),
	)

	total, err := w.QueryCount(ctx)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	st, err := w.PageStatement(page, size)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	rows, startTime, err := w.fetch(ctx, opPage, st)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	return &Page[map[string]any]{
		Total:   total,
		Pages:   pageCount(total, size),
		Current: page,
		Size:    size,
	}, rows, startTime, nil
}

// pageCount returns ceil(total/size).
func pageCount(total int64, size int) int64 {
	s := int64(size)
	return (total + s - 1) / s
}

func rowMaps(rows []Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = row.Map()
	}
	return out
}
