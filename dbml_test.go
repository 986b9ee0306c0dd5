package sqlwrap

import (
	"strings"
	"testing"

	"github.com/zoobzio/dbml"
)

func TestDBML(t *testing.T) {
	// Referenced tables must be registered before the project validates.
	if _, err := SchemaOf[testOrder](); err != nil {
		t.Fatalf("SchemaOf[testOrder]() error = %v", err)
	}
	if _, err := SchemaOf[testItem](); err != nil {
		t.Fatalf("SchemaOf[testItem]() error = %v", err)
	}

	project, err := DBML("shop", Postgres)
	if err != nil {
		t.Fatalf("DBML() error = %v", err)
	}

	t.Run("columns and constraints", func(t *testing.T) {
		table, ok := project.Tables["public.orders"]
		if !ok {
			t.Fatalf("orders table not found. Available tables: %v", tableKeys(project.Tables))
		}

		types := make(map[string]string)
		for _, col := range table.Columns {
			types[col.Name] = col.Type

			if col.Name == "id" && (col.Settings == nil || !col.Settings.PrimaryKey) {
				t.Error("id should be primary key")
			}
		}

		want := map[string]string{
			"id":         "bigint",
			"status":     "TEXT",
			"paid":       "BOOLEAN",
			"created_at": "TIMESTAMPTZ",
			"ship_date":  "DATE",
			"note":       "TEXT",
		}
		for name, typ := range want {
			if types[name] != typ {
				t.Errorf("%s type = %q, want %q", name, types[name], typ)
			}
		}

		if len(table.Indexes) != 1 {
			t.Errorf("expected 1 index, got %d", len(table.Indexes))
		}
	})

	t.Run("references", func(t *testing.T) {
		table, ok := project.Tables["public.items"]
		if !ok {
			t.Fatalf("items table not found. Available tables: %v", tableKeys(project.Tables))
		}

		var found bool
		for _, col := range table.Columns {
			if col.Name != "order_id" {
				continue
			}
			found = true
			if col.InlineRef == nil {
				t.Fatal("order_id should have inline reference")
			}
			if col.InlineRef.Table != "orders" || col.InlineRef.Column != "id" {
				t.Errorf("reference = %s.%s, want orders.id", col.InlineRef.Table, col.InlineRef.Column)
			}
		}
		if !found {
			t.Error("order_id column not found")
		}
	})

	t.Run("generates DBML text", func(t *testing.T) {
		out := project.Generate()
		for _, want := range []string{"Table", "orders", "items", "[pk", "idx_orders_status"} {
			if !strings.Contains(out, want) {
				t.Errorf("DBML should contain %q", want)
			}
		}
	})
}

func tableKeys(tables map[string]*dbml.Table) []string {
	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	return keys
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		goType  string
		dialect Dialect
		want    string
	}{
		{"string", MySQL, "VARCHAR(255)"},
		{"string", Postgres, "TEXT"},
		{"*int64", SQLite, "BIGINT"},
		{"bool", MySQL, "TINYINT(1)"},
		{"time.Time", MySQL, "DATETIME"},
		{"sqlwrap.Date", SQLite, "DATE"},
		{"decimal.Decimal", Postgres, "DECIMAL(20,6)"},
		{"[]byte", Postgres, "BYTEA"},
		{"map[string]any", MySQL, "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.goType+"/"+tt.dialect.String(), func(t *testing.T) {
			if got := inferColumnType(tt.goType, tt.dialect); got != tt.want {
				t.Errorf("inferColumnType(%q) = %q, want %q", tt.goType, got, tt.want)
			}
		})
	}
}

func TestParseReferenceTag(t *testing.T) {
	table, column, err := parseReferenceTag("orders(id)")
	if err != nil || table != "orders" || column != "id" {
		t.Errorf("parseReferenceTag() = %q, %q, %v", table, column, err)
	}

	for _, bad := range []string{"orders", "orders(id", "(id)", "orders()"} {
		if _, _, err := parseReferenceTag(bad); err == nil {
			t.Errorf("parseReferenceTag(%q) should fail", bad)
		}
	}
}
