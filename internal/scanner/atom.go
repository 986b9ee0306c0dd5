package scanner

import (
	"reflect"
	"time"

	"github.com/zoobzio/atom"
)

// atomColumn describes one scalar kind stored in an atom: the value table, its
// nullable twin, and how a coerced reflect.Value lands in either.
type atomColumn struct {
	value    atom.Table
	nullable atom.Table
	alloc    func(a *atom.Atom, nullable bool, size int)
	store    func(a *atom.Atom, name string, v reflect.Value)
	storePtr func(a *atom.Atom, name string, v reflect.Value)
}

// atomColumnOf builds a column over a pair of atom maps. An invalid v passed to
// storePtr records an explicit nil.
func atomColumnOf[V any](
	value, nullable atom.Table,
	get func(reflect.Value) V,
	values func(*atom.Atom) *map[string]V,
	ptrs func(*atom.Atom) *map[string]*V,
) atomColumn {
	return atomColumn{
		value:    value,
		nullable: nullable,
		alloc: func(a *atom.Atom, isNull bool, size int) {
			if isNull {
				*ptrs(a) = make(map[string]*V, size)
				return
			}
			*values(a) = make(map[string]V, size)
		},
		store: func(a *atom.Atom, name string, v reflect.Value) {
			put(values(a), name, get(v))
		},
		storePtr: func(a *atom.Atom, name string, v reflect.Value) {
			if !v.IsValid() {
				put(ptrs(a), name, nil)
				return
			}
			x := get(v)
			put(ptrs(a), name, &x)
		},
	}
}

func put[V any](m *map[string]V, name string, v V) {
	if *m == nil {
		*m = make(map[string]V)
	}
	(*m)[name] = v
}

var atomColumns = []atomColumn{
	atomColumnOf(atom.TableStrings, atom.TableStringPtrs, reflect.Value.String,
		func(a *atom.Atom) *map[string]string { return &a.Strings },
		func(a *atom.Atom) *map[string]*string { return &a.StringPtrs }),
	atomColumnOf(atom.TableInts, atom.TableIntPtrs, reflect.Value.Int,
		func(a *atom.Atom) *map[string]int64 { return &a.Ints },
		func(a *atom.Atom) *map[string]*int64 { return &a.IntPtrs }),
	atomColumnOf(atom.TableUints, atom.TableUintPtrs, reflect.Value.Uint,
		func(a *atom.Atom) *map[string]uint64 { return &a.Uints },
		func(a *atom.Atom) *map[string]*uint64 { return &a.UintPtrs }),
	atomColumnOf(atom.TableFloats, atom.TableFloatPtrs, reflect.Value.Float,
		func(a *atom.Atom) *map[string]float64 { return &a.Floats },
		func(a *atom.Atom) *map[string]*float64 { return &a.FloatPtrs }),
	atomColumnOf(atom.TableBools, atom.TableBoolPtrs, reflect.Value.Bool,
		func(a *atom.Atom) *map[string]bool { return &a.Bools },
		func(a *atom.Atom) *map[string]*bool { return &a.BoolPtrs }),
	atomColumnOf(atom.TableTimes, atom.TableTimePtrs,
		func(v reflect.Value) time.Time { return v.Interface().(time.Time) },
		func(a *atom.Atom) *map[string]time.Time { return &a.Times },
		func(a *atom.Atom) *map[string]*time.Time { return &a.TimePtrs }),
	atomColumnOf(atom.TableBytes, atom.TableBytePtrs, reflect.Value.Bytes,
		func(a *atom.Atom) *map[string][]byte { return &a.Bytes },
		func(a *atom.Atom) *map[string]*[]byte { return &a.BytePtrs }),
}

// atomColumnsByTable indexes columns by both of their tables.
var atomColumnsByTable = func() map[atom.Table]*atomColumn {
	m := make(map[atom.Table]*atomColumn, 2*len(atomColumns))
	for i := range atomColumns {
		m[atomColumns[i].value] = &atomColumns[i]
		m[atomColumns[i].nullable] = &atomColumns[i]
	}
	return m
}()

// fieldToTable maps a field type to its atom.Table and reports whether the
// field is nullable (a pointer). Types without a table return "".
func fieldToTable(t reflect.Type) (atom.Table, bool) {
	nullable := t.Kind() == reflect.Ptr
	if nullable {
		t = t.Elem()
	}

	base := baseTable(t)
	switch {
	case base == "":
		return "", false
	case nullable:
		return atomColumnsByTable[base].nullable, true
	default:
		return base, false
	}
}

func baseTable(t reflect.Type) atom.Table {
	if t == timeType {
		return atom.TableTimes
	}

	// Named struct types (dates, decimals) have no atom table.
	switch t.Kind() {
	case reflect.String:
		return atom.TableStrings
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return atom.TableInts
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return atom.TableUints
	case reflect.Float32, reflect.Float64:
		return atom.TableFloats
	case reflect.Bool:
		return atom.TableBools
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return atom.TableBytes
		}
	}
	return ""
}

// allocateAtom sizes the maps of a new atom from the scanner's table usage.
func allocateAtom(tableSet map[atom.Table]int) *atom.Atom {
	a := &atom.Atom{}
	for table, size := range tableSet {
		if c, ok := atomColumnsByTable[table]; ok {
			c.alloc(a, table == c.nullable, size)
		}
	}
	return a
}

// assignValue stores an already coerced field value in its atom table.
func assignValue(a *atom.Atom, p *fieldPlan, v reflect.Value) {
	c, ok := atomColumnsByTable[p.table]
	if !ok {
		return
	}
	if !p.nullable {
		c.store(a, p.fieldName, v)
		return
	}
	if v.IsNil() {
		c.storePtr(a, p.fieldName, reflect.Value{})
		return
	}
	c.storePtr(a, p.fieldName, v.Elem())
}

// assignNull records an explicit nil for a nullable field.
func assignNull(a *atom.Atom, p *fieldPlan) {
	if c, ok := atomColumnsByTable[p.table]; ok && p.nullable {
		c.storePtr(a, p.fieldName, reflect.Value{})
	}
}
