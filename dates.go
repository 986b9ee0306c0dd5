package sqlwrap

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/zoobzio/sqlwrap/internal/scanner"
)

// Date is a calendar date without a time of day. Timestamps scanned into a
// Date keep only their date component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date component of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Scan implements sql.Scanner.
func (d *Date) Scan(value any) error {
	t, err := scanTime(value)
	if err != nil {
		return fmt.Errorf("scanning Date: %w", err)
	}
	if t.IsZero() {
		*d = Date{}
		return nil
	}
	*d = DateOf(t)
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// TimeOfDay is a wall-clock time without a date. Timestamps scanned into a
// TimeOfDay keep only their time component.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOfDayOf returns the time component of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

func (t TimeOfDay) String() string {
	if t.Nanosecond == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%09d", t.Hour, t.Minute, t.Second, t.Nanosecond)
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(value any) error {
	ts, err := scanTime(value)
	if err != nil {
		return fmt.Errorf("scanning TimeOfDay: %w", err)
	}
	*t = TimeOfDayOf(ts)
	return nil
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func scanTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte:
		return scanner.ParseTime(string(v))
	case string:
		return scanner.ParseTime(v)
	}
	return time.Time{}, fmt.Errorf("unsupported source type %T", value)
}
