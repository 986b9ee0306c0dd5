package sqlwrap

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
	"github.com/zoobzio/sqlwrap/internal/scanner"
)

// Schema describes how a record type maps onto a table.
type Schema struct {
	// Table is the physical table name.
	Table string

	// Type is the record type.
	Type reflect.Type

	// Primary is the primary key column, empty when none is marked.
	Primary string

	fields   map[string]string
	columns  []string
	physical map[string]bool
	metadata sentinel.Metadata
	scanner  *scanner.Scanner
}

// TableNamer overrides the table name derived from the record type name.
type TableNamer interface {
	TableName() string
}

// schemaTags are the struct tags read from record types.
var schemaTags = []string{"db", "type", "constraints", "default", "check", "index", "references"}

var (
	tagsOnce sync.Once

	catalog = struct {
		sync.RWMutex
		schemas map[reflect.Type]*Schema
		order   []reflect.Type
	}{schemas: make(map[reflect.Type]*Schema)}
)

func registerTags() {
	for _, tag := range schemaTags {
		sentinel.Tag(tag)
	}
}

// SchemaOf returns the schema for T, inspecting the type on first use.
// Schemas are cached for the life of the process.
func SchemaOf[T any]() (*Schema, error) {
	t := reflect.TypeFor[T]()

	catalog.RLock()
	s, ok := catalog.schemas[t]
	catalog.RUnlock()
	if ok {
		return s, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sqlwrap: record type %s is not a struct", t)
	}

	tagsOnce.Do(registerTags)
	metadata := sentinel.Inspect[T]()

	table := t.Name()
	if namer, ok := any(new(T)).(TableNamer); ok {
		table = namer.TableName()
	}

	s, err := buildSchema(table, metadata)
	if err != nil {
		return nil, err
	}

	catalog.Lock()
	defer catalog.Unlock()
	if existing, ok := catalog.schemas[t]; ok {
		return existing, nil
	}
	catalog.schemas[t] = s
	catalog.order = append(catalog.order, t)
	return s, nil
}

// Schemas returns every schema built so far in registration order.
func Schemas() []*Schema {
	catalog.RLock()
	defer catalog.RUnlock()

	out := make([]*Schema, 0, len(catalog.order))
	for _, t := range catalog.order {
		out = append(out, catalog.schemas[t])
	}
	return out
}

func buildSchema(table string, metadata sentinel.Metadata) (*Schema, error) {
	metadata.Fields = flattenFields(metadata)

	sc, err := scanner.New(metadata)
	if err != nil {
		return nil, fmt.Errorf("sqlwrap: schema %s: %w", table, err)
	}

	s := &Schema{
		Table:    table,
		Type:     metadata.ReflectType,
		fields:   make(map[string]string, len(metadata.Fields)),
		physical: make(map[string]bool, len(metadata.Fields)),
		metadata: metadata,
		scanner:  sc,
	}

	for _, field := range metadata.Fields {
		column := scanner.ColumnName(field)
		if column == "" {
			continue
		}
		s.fields[field.Name] = column
		s.physical[column] = true
		s.columns = append(s.columns, column)

		if _, _, primary := parseConstraintsTag(field.Tags["constraints"]); primary && s.Primary == "" {
			s.Primary = column
		}
	}

	return s, nil
}

// flattenFields lifts the fields of embedded structs into the parent with
// full index paths, keeping sentinel's metadata for top-level fields.
func flattenFields(metadata sentinel.Metadata) []sentinel.FieldMetadata {
	known := make(map[string]sentinel.FieldMetadata, len(metadata.Fields))
	for _, f := range metadata.Fields {
		known[f.Name] = f
	}
	return walkFields(metadata.ReflectType, nil, known)
}

func walkFields(t reflect.Type, prefix []int, known map[string]sentinel.FieldMetadata) []sentinel.FieldMetadata {
	var out []sentinel.FieldMetadata
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(slices.Clone(prefix), i)

		if sf.Anonymous && sf.Tag.Get("db") == "" {
			et := sf.Type
			if et.Kind() == reflect.Ptr {
				// Cannot be allocated through reflection.
				if !sf.IsExported() {
					continue
				}
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && et != reflect.TypeFor[time.Time]() {
				out = append(out, walkFields(et, index, nil)...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		if f, ok := known[sf.Name]; ok {
			f.Index = index
			out = append(out, f)
			continue
		}
		out = append(out, fieldMetadata(sf, index))
	}
	return out
}

func fieldMetadata(sf reflect.StructField, index []int) sentinel.FieldMetadata {
	tags := make(map[string]string)
	for _, key := range schemaTags {
		if v, ok := sf.Tag.Lookup(key); ok {
			tags[key] = v
		}
	}
	return sentinel.FieldMetadata{
		Name:        sf.Name,
		Type:        sf.Type.String(),
		ReflectType: sf.Type,
		Tags:        tags,
		Index:       index,
	}
}

// Column resolves a field reference to its column. Go field names map through
// their db tag, physical column names resolve to themselves, and anything else
// is returned verbatim.
func (s *Schema) Column(name string) string {
	if column, ok := s.fields[name]; ok {
		return column
	}
	return name
}

// HasColumn reports whether name is a mapped column or field.
func (s *Schema) HasColumn(name string) bool {
	_, ok := s.fields[name]
	return ok || s.physical[name]
}

// Columns returns the mapped columns in declaration order.
func (s *Schema) Columns() []string {
	return slices.Clone(s.columns)
}

// Metadata returns the flattened sentinel metadata for the record type.
func (s *Schema) Metadata() sentinel.Metadata {
	return s.metadata
}

// parseConstraintsTag parses the constraints tag into individual flags.
// Both "primarykey" and "primary_key" spellings are accepted.
func parseConstraintsTag(tag string) (notNull, unique, primaryKey bool) {
	for _, c := range strings.Split(tag, ",") {
		switch strings.TrimSpace(c) {
		case "unique":
			unique = true
		case "notnull", "not_null":
			notNull = true
		case "primarykey", "primary_key":
			primaryKey = true
		}
	}
	return notNull, unique, primaryKey
}
