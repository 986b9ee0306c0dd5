package sqlwrap

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type testOrder struct {
	ID        int64     `db:"id" type:"bigint" constraints:"primarykey"`
	Status    string    `db:"status" constraints:"notnull" index:"idx_orders_status"`
	Paid      bool      `db:"paid"`
	CreatedAt time.Time `db:"created_at"`
	ShipDate  Date      `db:"ship_date"`
	Note      *string   `db:"note"`
}

func (testOrder) TableName() string { return "orders" }

type testItem struct {
	ID      int64           `db:"id" constraints:"primarykey"`
	OrderID int64           `db:"order_id" references:"orders(id)"`
	SKU     string          `db:"sku"`
	Qty     int             `db:"qty"`
	Price   decimal.Decimal `db:"price"`
}

func (testItem) TableName() string { return "items" }

type testAudit struct {
	CreatedBy string `db:"created_by"`
	UpdatedBy string `db:"updated_by"`
}

type testCustomer struct {
	testAudit
	ID    int64  `db:"id" constraints:"primarykey"`
	Name  string `db:"full_name"`
	Email string
}

// execCall records one statement handed to the fake executor.
type execCall struct {
	query string
	args  []any
}

// fakeExecutor returns queued results in order and records every call.
type fakeExecutor struct {
	calls   []execCall
	results [][]Row
	err     error
}

func (f *fakeExecutor) QueryRows(_ context.Context, query string, args ...any) ([]Row, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	rows := f.results[0]
	f.results = f.results[1:]
	return rows, nil
}

func countRow(n int64) []Row {
	return []Row{{Columns: []string{"total"}, Values: []any{n}}}
}
