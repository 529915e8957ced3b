// Package roster holds the parsed contractor roster and guarantees its schema
// before any lifecycle computation runs.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
)

// Store is an ordered, in-memory collection of engagements parsed from one
// roster file. It is owned by a single writer; callers serialize access.
type Store struct {
	id           uuid.UUID
	columns      []string // header in file order, normalised
	layout       layout
	hasRemaining bool
	records      []model.Engagement
	index        map[string]int // name -> position in records
	issues       []error
	asOf         model.Date // reference date of the derived fields, null until computed
}

// Load parses a comma-separated roster. It fails with a *SchemaError when a
// mandatory column is missing or a name is empty or duplicated; nothing is
// loaded in that case. Bad date cells are handled per the DatePolicy and
// reported through Issues.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Store, error) {
	o := options{policy: DatePolicyCoerce, layouts: DefaultDateLayouts}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Reason: "empty input: header row required"}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrRead, err)
	}
	l, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	s := &Store{
		id:           uuid.New(),
		columns:      l.columns,
		layout:       l,
		hasRemaining: l.remaining >= 0,
		index:        make(map[string]int),
	}

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrRead, row, err)
		}

		e, rejected := s.parseRow(l, o, row, cells)
		if rejected {
			continue
		}
		if e.Name == "" {
			return nil, &SchemaError{Row: row, Reason: "empty " + ColumnName}
		}
		if prev, dup := s.index[e.Name]; dup {
			return nil, &SchemaError{
				Row:    row,
				Reason: fmt.Sprintf("duplicate %s %q (first seen on row %d)", ColumnName, e.Name, s.records[prev].Row),
			}
		}
		s.index[e.Name] = len(s.records)
		s.records = append(s.records, e)
	}
	return s, nil
}

// parseRow builds an engagement from one data row. It reports rejected=true
// when the row must be dropped under DatePolicyReject.
func (s *Store) parseRow(l layout, o options, row int, cells []string) (model.Engagement, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	e := model.Engagement{
		Row:       row,
		Name:      cell(l.name),
		Specialty: cell(l.specialty),
		RawStart:  cell(l.start),
		RawEnd:    cell(l.end),
	}
	for i, h := range l.columns {
		if l.known(i) {
			continue
		}
		e.Extra = append(e.Extra, model.Cell{Index: i, Header: h, Value: cell(i)})
	}

	var bad []*DateParseError
	var ok bool
	if e.Start, ok = parseDate(e.RawStart, o.layouts); !ok {
		bad = append(bad, &DateParseError{Row: row, Column: ColumnStart, Value: e.RawStart})
	}
	if e.End, ok = parseDate(e.RawEnd, o.layouts); !ok {
		bad = append(bad, &DateParseError{Row: row, Column: ColumnEnd, Value: e.RawEnd})
	}
	rejected := len(bad) > 0 && o.policy == DatePolicyReject
	for _, de := range bad {
		de.Rejected = rejected
		s.issues = append(s.issues, de)
	}
	return e, rejected
}

func parseDate(v string, layouts []string) (model.Date, bool) {
	if v == "" {
		return model.Date{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return model.NewDate(t), true
		}
	}
	return model.Date{}, false
}

// ID identifies the dataset this store was loaded from.
func (s *Store) ID() string { return s.id.String() }

// Len returns the number of engagements.
func (s *Store) Len() int { return len(s.records) }

// Columns returns the header in file order.
func (s *Store) Columns() []string { return append([]string(nil), s.columns...) }

// ColumnRole returns the modelled column stored at header index i, or ""
// for a pass-through column. Index len(Columns()) is the appended
// remaining-days column when the source has none.
func (s *Store) ColumnRole(i int) string {
	if i == len(s.columns) && !s.hasRemaining {
		return ColumnDaysRemaining
	}
	switch i {
	case s.layout.name:
		return ColumnName
	case s.layout.specialty:
		return ColumnSpecialty
	case s.layout.start:
		return ColumnStart
	case s.layout.end:
		return ColumnEnd
	case s.layout.remaining:
		return ColumnDaysRemaining
	}
	return ""
}

// HasRemainingColumn reports whether the source file carried a remaining-days column.
func (s *Store) HasRemainingColumn() bool { return s.hasRemaining }

// Issues returns the non-fatal problems found while loading, in row order.
func (s *Store) Issues() []error { return append([]error(nil), s.issues...) }

// Records returns a copy of the engagements in input order.
func (s *Store) Records() []model.Engagement {
	out := make([]model.Engagement, len(s.records))
	for i, e := range s.records {
		out[i] = e.Clone()
	}
	return out
}

// Find returns the engagement with the given name.
func (s *Store) Find(name string) (model.Engagement, bool) {
	i, ok := s.index[name]
	if !ok {
		return model.Engagement{}, false
	}
	return s.records[i].Clone(), true
}

// ReplaceEndDate sets the end date of every engagement matching pred and
// returns how many were changed. Derived fields are not recomputed.
func (s *Store) ReplaceEndDate(pred func(model.Engagement) bool, end model.Date) int {
	return s.UpdateEndDate(pred, func(model.Date) model.Date { return end })
}

// UpdateEndDate replaces the end date of every engagement matching pred with
// fn(current end) and returns how many were changed. Derived fields are not
// recomputed.
func (s *Store) UpdateEndDate(pred func(model.Engagement) bool, fn func(model.Date) model.Date) int {
	n := 0
	for i := range s.records {
		e := &s.records[i]
		if !pred(*e) {
			continue
		}
		e.End = fn(e.End)
		if e.End.Valid {
			e.RawEnd = e.End.String()
		}
		n++
	}
	return n
}

// AsOf returns the reference date the derived fields were last computed for.
func (s *Store) AsOf() model.Date { return s.asOf }

// UpdateDerived calls fn on every engagement in order so derived fields can
// be refreshed in place, and records asOf as their reference date.
func (s *Store) UpdateDerived(asOf model.Date, fn func(e *model.Engagement)) {
	s.asOf = asOf
	for i := range s.records {
		fn(&s.records[i])
	}
}
