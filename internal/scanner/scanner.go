// Package scanner maps executor rows into records and atom.Atom values.
// Plans are built once per record type from sentinel metadata; rows are
// matched to fields by column name without any per-row field lookup.
package scanner

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zoobzio/atom"
	"github.com/zoobzio/sentinel"
)

// Scanner maps rows of (column, value) pairs onto one record type.
type Scanner struct {
	typ      reflect.Type
	byColumn map[string]*fieldPlan
	byFold   map[string]*fieldPlan
	tableSet map[atom.Table]int
	spec     sentinel.Metadata
}

// fieldPlan describes how one column lands in a record field.
type fieldPlan struct {
	fieldName string
	column    string
	index     []int
	typ       reflect.Type
	table     atom.Table
	nullable  bool
}

// CoercionError reports a value that cannot be assigned to its target field.
type CoercionError struct {
	Field  string
	Column string
	From   string
	To     string
	Err    error
}

func (e *CoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot coerce column %q (%s) into field %s (%s): %v", e.Column, e.From, e.Field, e.To, e.Err)
	}
	return fmt.Sprintf("cannot coerce column %q (%s) into field %s (%s)", e.Column, e.From, e.Field, e.To)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

var timeType = reflect.TypeFor[time.Time]()

// New creates a Scanner from sentinel metadata. Field indexes are paths from
// metadata.ReflectType, so embedded struct fields may be listed directly.
func New(metadata sentinel.Metadata) (*Scanner, error) {
	s := &Scanner{
		typ:      metadata.ReflectType,
		spec:     metadata,
		byColumn: make(map[string]*fieldPlan),
		byFold:   make(map[string]*fieldPlan),
		tableSet: make(map[atom.Table]int),
	}

	for _, field := range metadata.Fields {
		column := ColumnName(field)
		if column == "" {
			continue
		}

		if existing, ok := s.byColumn[column]; ok {
			return nil, fmt.Errorf("column %q maps to multiple fields: %s and %s",
				column, existing.fieldName, field.Name)
		}

		table, nullable := fieldToTable(field.ReflectType)
		plan := &fieldPlan{
			fieldName: field.Name,
			column:    column,
			index:     field.Index,
			typ:       field.ReflectType,
			table:     table,
			nullable:  nullable,
		}
		s.byColumn[column] = plan
		for _, key := range []string{strings.ToLower(column), strings.ToLower(field.Name)} {
			if _, taken := s.byFold[key]; !taken {
				s.byFold[key] = plan
			}
		}
		if table != "" {
			s.tableSet[table]++
		}
	}

	return s, nil
}

// ColumnName returns the column a field maps to: its db tag, or the field name
// when untagged. Fields tagged db:"-" map to nothing.
func ColumnName(field sentinel.FieldMetadata) string {
	tag, ok := field.Tags["db"]
	switch {
	case tag == "-":
		return ""
	case ok && tag != "":
		return tag
	default:
		return field.Name
	}
}

// Type returns the record type the scanner was built for.
func (s *Scanner) Type() reflect.Type {
	return s.typ
}

func (s *Scanner) plan(column string) *fieldPlan {
	if p, ok := s.byColumn[column]; ok {
		return p
	}
	return s.byFold[strings.ToLower(column)]
}

// Map assigns a row onto dest, which must be an addressable struct value of the
// scanner's type. Columns without a matching field are ignored; nil values leave
// the field at its zero value.
func (s *Scanner) Map(columns []string, values []any, dest reflect.Value) error {
	for i, column := range columns {
		if i >= len(values) {
			break
		}
		p := s.plan(column)
		if p == nil || values[i] == nil {
			continue
		}

		field, err := fieldByIndex(dest, p.index)
		if err == nil {
			err = Coerce(values[i], field)
		}
		if err != nil {
			return &CoercionError{
				Field:  p.fieldName,
				Column: column,
				From:   fmt.Sprintf("%T", values[i]),
				To:     p.typ.String(),
				Err:    err,
			}
		}
	}
	return nil
}

// fieldByIndex walks an index path, allocating nil embedded pointers on the
// way. It reports an error when a pointer cannot be allocated.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot set embedded pointer to unexported struct %s", v.Type().Elem())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

// Atom converts a row into an atom.Atom keyed by field name. Fields whose type
// has no atom table are skipped.
func (s *Scanner) Atom(columns []string, values []any) (*atom.Atom, error) {
	result := allocateAtom(s.tableSet)
	result.Spec = s.spec

	for i, column := range columns {
		if i >= len(values) {
			break
		}
		p := s.plan(column)
		if p == nil || p.table == "" {
			continue
		}

		if values[i] == nil {
			if p.nullable {
				assignNull(result, p)
			}
			continue
		}

		target := reflect.New(p.typ).Elem()
		if err := Coerce(values[i], target); err != nil {
			return nil, &CoercionError{
				Field:  p.fieldName,
				Column: column,
				From:   fmt.Sprintf("%T", values[i]),
				To:     p.typ.String(),
				Err:    err,
			}
		}
		assignValue(result, p, target)
	}

	return result, nil
}
