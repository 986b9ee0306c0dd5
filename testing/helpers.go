// Package testing provides test utilities and mocks for sqlwrap-based applications.
//
// MockExecutor implements sqlwrap.Executor with queued expectations, so
// statements can be built, executed and mapped without a database.
//
// Example usage:
//
//	func TestPaidOrders(t *testing.T) {
//		mock := sqlwraptest.NewMockExecutor(t)
//		mock.ExpectCount(2)
//		mock.ExpectQuery().WithRows([]Order{{ID: 1, Status: "PAID"}})
//
//		w := sqlwrap.New(mock).From(sqlwrap.Table[Order](), "o").Eq(1, "Status", "PAID")
//		page, err := sqlwrap.QueryPage[Order](ctx, w, 1, 10)
//
//		require.NoError(t, err)
//		assert.Len(t, page.Records, 1)
//		mock.AssertExpectations()
//	}
package testing

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/sqlwrap"
)

// MockExecutor is a sqlwrap.Executor that answers statements from a queue of
// expectations and records every call.
type MockExecutor struct {
	t            *testing.T
	expectations []*Expectation
	calls        []MockCall
	mu           sync.Mutex
	currentIdx   int
}

var _ sqlwrap.Executor = (*MockExecutor)(nil)

// MockCall represents a single statement handed to the executor.
type MockCall struct {
	Query string
	Args  []any
}

// Expectation represents an expected statement.
type Expectation struct {
	contains    string // substring the query must contain, empty for any
	rows        []sqlwrap.Row
	err         error
	times       int // expected call count, -1 for any
	actualCalls int
}

// NewMockExecutor creates a new mock executor for testing.
func NewMockExecutor(t *testing.T) *MockExecutor {
	return &MockExecutor{
		t:            t,
		expectations: make([]*Expectation, 0),
		calls:        make([]MockCall, 0),
	}
}

// ExpectQuery queues an expectation for the next statement.
func (m *MockExecutor) ExpectQuery() *ExpectationBuilder {
	exp := &Expectation{times: 1}
	m.mu.Lock()
	m.expectations = append(m.expectations, exp)
	m.mu.Unlock()
	return &ExpectationBuilder{exp: exp}
}

// ExpectCount queues a count statement returning total.
func (m *MockExecutor) ExpectCount(total int64) *ExpectationBuilder {
	return m.ExpectQuery().
		WithQuery("count(*) as total").
		WithRawRows([]sqlwrap.Row{{Columns: []string{"total"}, Values: []any{total}}})
}

// QueryRows implements sqlwrap.Executor.
func (m *MockExecutor) QueryRows(_ context.Context, query string, args ...any) ([]sqlwrap.Row, error) {
	m.recordCall(query, args)

	exp := m.nextExpectation()
	if exp == nil {
		m.t.Errorf("unexpected statement: %s", query)
		return nil, fmt.Errorf("mock: unexpected statement %q", query)
	}
	if exp.contains != "" && !strings.Contains(query, exp.contains) {
		m.t.Errorf("statement %q does not contain %q", query, exp.contains)
	}
	if exp.err != nil {
		return nil, exp.err
	}
	return exp.rows, nil
}

func (m *MockExecutor) recordCall(query string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Query: query, Args: args})
}

// nextExpectation returns the current expectation and advances once its
// call count is reached.
func (m *MockExecutor) nextExpectation() *Expectation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentIdx >= len(m.expectations) {
		return nil
	}
	exp := m.expectations[m.currentIdx]
	exp.actualCalls++
	if exp.times != -1 && exp.actualCalls >= exp.times {
		m.currentIdx++
	}
	return exp
}

// Calls returns all recorded calls.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of calls made.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all expectations and recorded calls.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectations = make([]*Expectation, 0)
	m.calls = make([]MockCall, 0)
	m.currentIdx = 0
}

// AssertExpectations verifies all expectations were met.
func (m *MockExecutor) AssertExpectations() {
	m.t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, exp := range m.expectations {
		if exp.times != -1 && exp.actualCalls != exp.times {
			m.t.Errorf("expectation %d: expected %d calls, got %d", i, exp.times, exp.actualCalls)
		}
	}
}

// AssertCalled verifies a specific number of calls were made.
func (m *MockExecutor) AssertCalled(expectedCalls int) {
	m.t.Helper()
	actualCalls := m.CallCount()
	if actualCalls != expectedCalls {
		m.t.Errorf("expected %d calls, got %d", expectedCalls, actualCalls)
	}
}

// ExpectationBuilder provides a fluent API for configuring expectations.
type ExpectationBuilder struct {
	exp *Expectation
}

// WithQuery requires the statement to contain fragment.
func (b *ExpectationBuilder) WithQuery(fragment string) *ExpectationBuilder {
	b.exp.contains = fragment
	return b
}

// WithRows configures the rows to return from a slice of structs. Columns are
// named by db tag, or by field name when untagged.
func (b *ExpectationBuilder) WithRows(rows any) *ExpectationBuilder {
	b.exp.rows = RowsOf(rows)
	return b
}

// WithRawRows configures the rows to return verbatim.
func (b *ExpectationBuilder) WithRawRows(rows []sqlwrap.Row) *ExpectationBuilder {
	b.exp.rows = rows
	return b
}

// WithError configures an error to return.
func (b *ExpectationBuilder) WithError(err error) *ExpectationBuilder {
	b.exp.err = err
	return b
}

// Times configures how many times this expectation should match.
func (b *ExpectationBuilder) Times(n int) *ExpectationBuilder {
	b.exp.times = n
	return b
}

// AnyTimes configures the expectation to match any number of times.
func (b *ExpectationBuilder) AnyTimes() *ExpectationBuilder {
	b.exp.times = -1
	return b
}

// RowsOf converts a slice of structs (or struct pointers) into rows. Fields
// tagged db:"-" are omitted and nil pointers become nil values.
func RowsOf(data any) []sqlwrap.Row {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice || v.Len() == 0 {
		return nil
	}

	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return nil
	}

	var (
		columns []string
		fields  []int
	)
	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		if !field.IsExported() {
			continue
		}
		dbTag := field.Tag.Get("db")
		switch dbTag {
		case "-":
			continue
		case "":
			columns = append(columns, field.Name)
		default:
			columns = append(columns, dbTag)
		}
		fields = append(fields, i)
	}

	rows := make([]sqlwrap.Row, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}

		values := make([]any, len(fields))
		for j, idx := range fields {
			f := elem.Field(idx)
			if f.Kind() == reflect.Ptr {
				if f.IsNil() {
					continue
				}
				f = f.Elem()
			}
			values[j] = f.Interface()
		}
		rows = append(rows, sqlwrap.Row{Columns: columns, Values: values})
	}
	return rows
}
