package sqlwrap

import (
	"context"
	"reflect"

	"github.com/zoobzio/atom"
)

// ToRecord maps a row onto a new T. Values are coerced by the declared field
// type; nil values leave fields at their zero value.
func ToRecord[T any](row Row) (*T, error) {
	s, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	return toRecord[T](s, row)
}

// ToRecords maps rows onto new Ts, in row order.
func ToRecords[T any](rows []Row) ([]*T, error) {
	s, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	records := make([]*T, 0, len(rows))
	for _, row := range rows {
		record, err := toRecord[T](s, row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func toRecord[T any](s *Schema, row Row) (*T, error) {
	var record T
	if err := s.scanner.Map(row.Columns, row.Values, reflect.ValueOf(&record).Elem()); err != nil {
		return nil, err
	}
	return &record, nil
}

// ToAtom maps a row into an atom.Atom using T's field types.
func ToAtom[T any](row Row) (*atom.Atom, error) {
	s, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	return s.scanner.Atom(row.Columns, row.Values)
}

// QueryOne executes w and maps the first row onto a T.
// Returns ErrNoResult when no row matched.
func QueryOne[T any](ctx context.Context, w *Wrapper) (*T, error) {
	rows, startTime, err := w.queryRows(ctx, opOne)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		w.completed(ctx, opOne, startTime, 0)
		return nil, ErrNoResult
	}
	record, err := ToRecord[T](rows[0])
	if err != nil {
		w.failed(ctx, opOne, startTime, err)
		return nil, err
	}
	w.completed(ctx, opOne, startTime, len(rows))
	return record, nil
}

// QueryAll executes w and maps every row onto a T.
func QueryAll[T any](ctx context.Context, w *Wrapper) ([]*T, error) {
	rows, startTime, err := w.queryRows(ctx, opAll)
	if err != nil {
		return nil, err
	}
	records, err := ToRecords[T](rows)
	if err != nil {
		w.failed(ctx, opAll, startTime, err)
		return nil, err
	}
	w.completed(ctx, opAll, startTime, len(rows))
	return records, nil
}

// QueryAtoms executes w and maps every row into an atom.Atom using T's fields.
func QueryAtoms[T any](ctx context.Context, w *Wrapper) ([]*atom.Atom, error) {
	rows, startTime, err := w.queryRows(ctx, opAll)
	if err != nil {
		return nil, err
	}
	atoms := make([]*atom.Atom, 0, len(rows))
	for _, row := range rows {
		a, err := ToAtom[T](row)
		if err != nil {
			w.failed(ctx, opAll, startTime, err)
			return nil, err
		}
		atoms = append(atoms, a)
	}
	w.completed(ctx, opAll, startTime, len(rows))
	return atoms, nil
}

// QueryPage executes a count query and then one page of w, mapping records onto T.
func QueryPage[T any](ctx context.Context, w *Wrapper, page, size int) (*Page[*T], error) {
	p, rows, startTime, err := w.queryPage(ctx, page, size)
	if err != nil {
		return nil, err
	}
	records, err := ToRecords[T](rows)
	if err != nil {
		w.failed(ctx, opPage, startTime, err)
		return nil, err
	}
	w.completed(ctx, opPage, startTime, len(rows))
	return &Page[*T]{
		Total:   p.Total,
		Pages:   p.Pages,
		Current: p.Current,
		Size:    p.Size,
		Records: records,
	}, nil
}
