package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/sqlwrap"
)

type testModel struct {
	ID     int     `db:"id"`
	Name   string  `db:"name"`
	Email  *string `db:"email"`
	Secret string  `db:"-"`
	Note   string
}

func (testModel) TableName() string { return "models" }

func TestRowsOf(t *testing.T) {
	email := "a@example.com"
	rows := RowsOf([]*testModel{
		{ID: 1, Name: "A", Email: &email, Secret: "x", Note: "n"},
		nil,
		{ID: 2, Name: "B"},
	})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	wantColumns := []string{"id", "name", "email", "Note"}
	if len(rows[0].Columns) != len(wantColumns) {
		t.Fatalf("Columns = %v, want %v", rows[0].Columns, wantColumns)
	}
	for i, c := range wantColumns {
		if rows[0].Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, rows[0].Columns[i], c)
		}
	}
	if rows[0].Values[2] != "a@example.com" {
		t.Errorf("email = %v, want dereferenced string", rows[0].Values[2])
	}
	if rows[1].Values[2] != nil {
		t.Errorf("nil pointer should become nil, got %v", rows[1].Values[2])
	}

	if RowsOf(nil) != nil || RowsOf([]int{1}) != nil || RowsOf([]testModel{}) != nil {
		t.Error("RowsOf should return nil for empty or non-struct input")
	}
}

func TestMockExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("page through mock", func(t *testing.T) {
		mock := NewMockExecutor(t)
		mock.ExpectCount(3)
		mock.ExpectQuery().
			WithQuery("LIMIT 0,2").
			WithRows([]testModel{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})

		w := sqlwrap.New(mock).From(sqlwrap.Table[testModel](), "m").LikeRight(1, "Name", "A")
		page, err := sqlwrap.QueryPage[testModel](ctx, w, 1, 2)
		if err != nil {
			t.Fatalf("QueryPage() error = %v", err)
		}
		if page.Total != 3 || page.Pages != 2 || len(page.Records) != 2 {
			t.Errorf("page = %+v", page)
		}
		if page.Records[1].Name != "B" {
			t.Errorf("record = %+v", page.Records[1])
		}

		mock.AssertExpectations()
		mock.AssertCalled(2)
		if calls := mock.Calls(); calls[0].Args[0] != "A%" {
			t.Errorf("count args = %v", calls[0].Args)
		}
	})

	t.Run("errors and repeated expectations", func(t *testing.T) {
		mock := NewMockExecutor(t)
		boom := errors.New("boom")
		mock.ExpectQuery().WithError(boom)
		mock.ExpectQuery().WithRawRows(nil).Times(2)
		mock.ExpectQuery().AnyTimes()

		w := sqlwrap.New(mock).From(sqlwrap.Table[testModel](), "m")
		if _, err := w.QueryMaps(ctx); !errors.Is(err, boom) {
			t.Errorf("error = %v, want boom", err)
		}
		for i := 0; i < 2; i++ {
			if _, err := sqlwrap.QueryOne[testModel](ctx, w); !errors.Is(err, sqlwrap.ErrNoResult) {
				t.Errorf("QueryOne() error = %v, want ErrNoResult", err)
			}
		}
		for i := 0; i < 3; i++ {
			if _, err := w.QueryMaps(ctx); err != nil {
				t.Errorf("QueryMaps() error = %v", err)
			}
		}

		mock.AssertExpectations()
		if mock.CallCount() != 6 {
			t.Errorf("CallCount() = %d, want 6", mock.CallCount())
		}

		mock.Reset()
		if mock.CallCount() != 0 {
			t.Error("Reset should clear calls")
		}
	})
}
