package sqlwrap

import (
	"errors"
	"testing"
)

func TestRegistryAliases(t *testing.T) {
	w := New(nil).
		From(Table[testOrder](), "").
		LeftJoin(Table[testItem](), "i").
		RightJoin(Table[testCustomer](), "")

	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tables := w.Tables()
	want := []struct {
		index int
		alias string
		join  JoinKind
		name  string
	}{
		{1, "t1", JoinNone, "orders"},
		{2, "i", LeftJoin, "items"},
		{3, "t3", RightJoin, "testCustomer"},
	}
	if len(tables) != len(want) {
		t.Fatalf("expected %d tables, got %d", len(want), len(tables))
	}
	for i, tt := range want {
		ref := tables[i]
		if ref.Index != tt.index || ref.Alias != tt.alias || ref.Join != tt.join || ref.Name() != tt.name {
			t.Errorf("table %d = %+v, want %+v", i+1, ref, tt)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	w := New(nil).
		From(Table[testOrder](), "o").
		InnerJoin(Table[testItem](), "i")

	ref, err := w.Table(2)
	if err != nil {
		t.Fatalf("Table(2) error = %v", err)
	}
	if ref.Alias != "i" {
		t.Errorf("Table(2).Alias = %q, want i", ref.Alias)
	}

	ref, err = w.TableByAlias("o")
	if err != nil {
		t.Fatalf("TableByAlias(o) error = %v", err)
	}
	if ref.Index != 1 {
		t.Errorf("TableByAlias(o).Index = %d, want 1", ref.Index)
	}

	_, err = w.Table(5)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) || refErr.Index != 5 {
		t.Errorf("Table(5) error = %v, want ReferenceError for index 5", err)
	}

	_, err = w.TableByAlias("x")
	if !errors.As(err, &refErr) || refErr.Alias != "x" {
		t.Errorf("TableByAlias(x) error = %v, want ReferenceError for alias x", err)
	}
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Wrapper
	}{
		{
			name: "join before from",
			build: func() *Wrapper {
				return New(nil).InnerJoin(Table[testItem](), "")
			},
		},
		{
			name: "from twice",
			build: func() *Wrapper {
				return New(nil).From(Table[testOrder](), "").From(Table[testItem](), "")
			},
		},
		{
			name: "duplicate alias",
			build: func() *Wrapper {
				return New(nil).From(Table[testOrder](), "x").InnerJoin(Table[testItem](), "x")
			},
		},
		{
			name: "on without join",
			build: func() *Wrapper {
				return New(nil).From(Table[testOrder](), "").On(1, "id", 1, "id")
			},
		},
		{
			name: "unknown index in predicate",
			build: func() *Wrapper {
				return New(nil).From(Table[testOrder](), "").Eq(2, "id", 1)
			},
		},
		{
			name: "unknown index in projection",
			build: func() *Wrapper {
				return New(nil).From(Table[testOrder](), "").SelectAll(1, 4)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.build()
			var refErr *ReferenceError
			if !errors.As(w.Err(), &refErr) {
				t.Fatalf("Err() = %v, want ReferenceError", w.Err())
			}
			if _, err := w.Render(); !errors.Is(err, w.Err()) {
				t.Errorf("Render() error = %v, want %v", err, w.Err())
			}
		})
	}
}

func TestRegistryErrorIsSticky(t *testing.T) {
	w := New(nil).From(Table[testOrder](), "o").Eq(9, "id", 1)
	first := w.Err()

	w.Eq(1, "Status", "PAID").Select(7, "id").Distinct()
	if w.Err() != first {
		t.Errorf("error changed from %v to %v", first, w.Err())
	}
	if w.distinct {
		t.Error("Distinct should not change a failed wrapper")
	}
}

func TestOnCombinesConditions(t *testing.T) {
	st, err := New(nil).
		From(Table[testOrder](), "o").
		FullJoin(Table[testItem](), "i").
		On(2, "OrderID", 1, "ID").
		On(2, "Qty", 1, "ID").
		Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "select * from orders o full join items i on i.order_id = o.id and i.qty = o.id"
	if st.SQL != want {
		t.Errorf("SQL = %q\nwant %q", st.SQL, want)
	}
}

func TestNestedAliasesDoNotShadow(t *testing.T) {
	st, err := New(nil).
		From(Table[testOrder](), "").
		In(1, "ID", Query(func(s *Wrapper) {
			s.From(Table[testItem](), "").Select(1, "OrderID").Eq(1, "SKU", "A")
		})).
		Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "select * from orders t1 where t1.id in (select t1_1.order_id from items t1_1 where t1_1.sku = ?)"
	if st.SQL != want {
		t.Errorf("SQL = %q\nwant %q", st.SQL, want)
	}
}

func TestNestedErrorPropagates(t *testing.T) {
	w := New(nil).
		From(Table[testOrder](), "o").
		Exists(func(s *Wrapper) {
			s.From(Table[testItem](), "i").EqOuter(1, "OrderID", "missing", "ID")
		})

	var refErr *ReferenceError
	if !errors.As(w.Err(), &refErr) || refErr.Alias != "missing" {
		t.Fatalf("Err() = %v, want ReferenceError for alias missing", w.Err())
	}
}

func TestResetClearsStatement(t *testing.T) {
	exec := &fakeExecutor{}
	w := New(exec, WithDialect(Postgres)).
		From(Table[testOrder](), "o").
		Eq(1, "Status", "PAID").
		Eq(3, "x", 1)

	w.Reset()
	if w.Err() != nil {
		t.Fatalf("Err() after Reset = %v", w.Err())
	}
	if len(w.Tables()) != 0 {
		t.Errorf("expected no tables after Reset, got %d", len(w.Tables()))
	}
	if w.Dialect() != Postgres {
		t.Errorf("Dialect() = %v, want postgres", w.Dialect())
	}

	st, err := w.From(Table[testItem](), "").Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if st.SQL != "select * from items t1" || len(st.Args) != 0 {
		t.Errorf("unexpected statement after Reset: %q %v", st.SQL, st.Args)
	}
}
