package sqlwrap

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dbml"
)

// DBML builds a DBML project from every schema registered so far, so the
// tables a program queries can be documented or diffed against a database.
// Schemas are registered by Table and SchemaOf.
func DBML(name string, d Dialect) (*dbml.Project, error) {
	project := dbml.NewProject(name).
		WithDatabaseType(databaseType(d))

	for _, s := range Schemas() {
		table, err := dbmlTable(s, d)
		if err != nil {
			return nil, err
		}
		project.AddTable(table)
	}

	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("sqlwrap: generated DBML is invalid: %w", err)
	}
	return project, nil
}

func databaseType(d Dialect) string {
	switch d {
	case Postgres:
		return "PostgreSQL"
	case SQLite:
		return "SQLite"
	default:
		return "MySQL"
	}
}

func dbmlTable(s *Schema, d Dialect) (*dbml.Table, error) {
	table := dbml.NewTable(s.Table).
		WithSchema("public")

	var indexed [][2]string

	for _, field := range s.metadata.Fields {
		column, ok := s.fields[field.Name]
		if !ok {
			continue
		}

		sqlType := field.Tags["type"]
		if sqlType == "" {
			sqlType = inferColumnType(field.Type, d)
		}
		col := dbml.NewColumn(column, sqlType)

		if constraints, ok := field.Tags["constraints"]; ok {
			notNull, unique, primaryKey := parseConstraintsTag(constraints)
			if primaryKey {
				col.WithPrimaryKey()
			}
			if unique {
				col.WithUnique()
			}
			if !notNull && !primaryKey {
				col.WithNull()
			}
		} else {
			col.WithNull()
		}

		if def, ok := field.Tags["default"]; ok {
			col.WithDefault(def)
		}
		if check, ok := field.Tags["check"]; ok {
			col.WithCheck(check)
		}
		if ref, ok := field.Tags["references"]; ok {
			refTable, refColumn, err := parseReferenceTag(ref)
			if err != nil {
				return nil, fmt.Errorf("sqlwrap: %s.%s: %w", s.Table, field.Name, err)
			}
			col.WithRef(dbml.ManyToOne, "public", refTable, refColumn)
		}

		if name, ok := field.Tags["index"]; ok && name != "" {
			indexed = append(indexed, [2]string{column, name})
		}

		table.AddColumn(col)
	}

	for _, idx := range indexed {
		table.AddIndex(dbml.NewIndex(idx[0]).WithName(idx[1]))
	}

	return table, nil
}

// parseReferenceTag parses "table(column)".
func parseReferenceTag(ref string) (table, column string, err error) {
	idx := strings.Index(ref, "(")
	if idx == -1 || !strings.HasSuffix(ref, ")") {
		return "", "", fmt.Errorf("invalid references format %q, expected 'table(column)'", ref)
	}

	table = ref[:idx]
	column = strings.TrimSuffix(ref[idx+1:], ")")
	if table == "" || column == "" {
		return "", "", fmt.Errorf("invalid references format %q, expected 'table(column)'", ref)
	}
	return table, column, nil
}

// inferColumnType maps Go types to a default column type for the dialect.
func inferColumnType(goType string, d Dialect) string {
	goType = strings.TrimPrefix(goType, "*")

	switch goType {
	case "string":
		if d == MySQL {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case "int", "int32", "uint", "uint32":
		return "INTEGER"
	case "int64", "uint64":
		return "BIGINT"
	case "int8", "int16", "uint8", "uint16":
		if d == MySQL {
			return "TINYINT"
		}
		return "SMALLINT"
	case "float32":
		return "REAL"
	case "float64":
		return "DOUBLE PRECISION"
	case "bool":
		if d == MySQL {
			return "TINYINT(1)"
		}
		return "BOOLEAN"
	case "time.Time":
		if d == Postgres {
			return "TIMESTAMPTZ"
		}
		return "DATETIME"
	case "sqlwrap.Date":
		return "DATE"
	case "sqlwrap.TimeOfDay":
		return "TIME"
	case "decimal.Decimal":
		return "DECIMAL(20,6)"
	case "[]byte", "[]uint8":
		if d == Postgres {
			return "BYTEA"
		}
		return "BLOB"
	}
	return "TEXT"
}
