package sqlwrap

import "github.com/zoobzio/capitan"

// Query execution signals.
var (
	// QueryStarted is emitted when a statement is handed to the executor.
	// Fields: TableKey, OperationKey, SQLKey, ArgsKey.
	QueryStarted = capitan.NewSignal("sqlwrap.query.started", "Statement execution started")

	// QueryCompleted is emitted when a statement completes successfully.
	// Fields: TableKey, OperationKey, DurationMsKey, RowsReturnedKey or ResultValueKey.
	QueryCompleted = capitan.NewSignal("sqlwrap.query.completed", "Statement execution completed")

	// QueryFailed is emitted when the executor or the record mapper reports an error.
	// Fields: TableKey, OperationKey, DurationMsKey, ErrorKey.
	QueryFailed = capitan.NewSignal("sqlwrap.query.failed", "Statement execution failed")

	// ArgumentMismatch is emitted when a rendered statement fails the placeholder check.
	// Fields: TableKey, OperationKey, SQLKey, ArgsKey.
	ArgumentMismatch = capitan.NewSignal("sqlwrap.query.argument_mismatch", "Placeholder and argument counts differ")

	// PageRequested is emitted before the count half of a page query.
	// Fields: TableKey, PageKey, PageSizeKey.
	PageRequested = capitan.NewSignal("sqlwrap.page.requested", "Paged query requested")
)

// Event field keys for query operations.
var (
	// TableKey identifies the base table of the statement.
	TableKey = capitan.NewStringKey("table")

	// OperationKey identifies the terminal operation (COUNT, ONE, ALL, MAP, MAPS, PAGE).
	OperationKey = capitan.NewStringKey("operation")

	// SQLKey contains the rendered statement text.
	SQLKey = capitan.NewStringKey("sql")

	// ArgsKey contains the number of bound arguments.
	ArgsKey = capitan.NewIntKey("args")

	// DurationMsKey contains the execution duration in milliseconds.
	DurationMsKey = capitan.NewInt64Key("duration_ms")

	// RowsReturnedKey contains the number of rows returned.
	RowsReturnedKey = capitan.NewIntKey("rows_returned")

	// ResultValueKey contains the value of a count query.
	ResultValueKey = capitan.NewInt64Key("result_value")

	// PageKey contains the requested 1-based page number.
	PageKey = capitan.NewIntKey("page")

	// PageSizeKey contains the requested page size.
	PageSizeKey = capitan.NewIntKey("page_size")

	// ErrorKey contains the error message when a query fails.
	ErrorKey = capitan.NewStringKey("error")
)
