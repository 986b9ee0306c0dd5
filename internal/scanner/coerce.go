package scanner

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errIncompatible = errors.New("incompatible types")
	errFraction     = errors.New("value has a fractional part")
	errOverflow     = errors.New("value overflows target")

	scannerType = reflect.TypeFor[sql.Scanner]()
)

// timeLayouts are tried in order when a driver returns temporal values as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// Coerce assigns v to dst, converting by the declared kind of dst.
// dst must be settable and addressable. A nil v leaves dst untouched.
//
// Targets implementing sql.Scanner (dates, decimals, sql.Null types) receive
// the raw value. Integers narrow to booleans as zero/non-zero, textual values
// are parsed, numeric kinds convert when no precision is lost.
func Coerce(v any, dst reflect.Value) error {
	if v == nil {
		return nil
	}

	t := dst.Type()
	if t.Kind() == reflect.Ptr {
		elem := reflect.New(t.Elem())
		if err := Coerce(v, elem.Elem()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if reflect.PointerTo(t).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(v)
	}

	src := reflect.ValueOf(v)
	if src.Type() == t {
		dst.Set(src)
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := toBool(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil

	case reflect.String:
		switch x := v.(type) {
		case []byte:
			dst.SetString(string(x))
			return nil
		case string:
			dst.SetString(x)
			return nil
		}
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return errOverflow
		}
		dst.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return errOverflow
		}
		dst.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			switch x := v.(type) {
			case []byte:
				dst.SetBytes(append([]byte(nil), x...))
				return nil
			case string:
				dst.SetBytes([]byte(x))
				return nil
			}
		}

	case reflect.Struct:
		if t == timeType {
			ts, err := toTime(v)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(ts))
			return nil
		}
	}

	if src.Type().AssignableTo(t) {
		dst.Set(src)
		return nil
	}
	return errIncompatible
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	}
	return false, errIncompatible
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	case decimal.Decimal:
		if !x.IsInteger() {
			return 0, errFraction
		}
		return x.IntPart(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errOverflow
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, errFraction
		}
		return int64(f), nil
	}
	return 0, errIncompatible
}

func parseInt(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errFraction
	}
	return d.IntPart(), nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, errIncompatible
}

func parseFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case []byte:
		return ParseTime(string(x))
	case string:
		return ParseTime(x)
	}
	return time.Time{}, errIncompatible
}

// ParseTime parses the textual temporal formats drivers commonly return.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time format %q", s)
}
