// Package lifecycle derives contract status from a roster: remaining days,
// lifecycle buckets, expiring selections, search, renewal and export.
//
// Every operation takes the store explicitly and runs synchronously. The
// reference date is always a parameter; nothing here reads the wall clock.
package lifecycle

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
)

// Engine holds the lifecycle rules. It keeps no roster state and is safe to
// share.
type Engine struct {
	threshold    int
	minExtension int
	maxExtension int
	exportLayout string
}

// New constructs an Engine with default rules.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold:    DefaultThresholdDays,
		minExtension: DefaultMinExtensionDays,
		maxExtension: DefaultMaxExtensionDays,
		exportLayout: defaultExportLayout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ThresholdDays returns the expiring-soon threshold.
func (eng *Engine) ThresholdDays() int { return eng.threshold }

// ExtensionBounds returns the inclusive renewal length range.
func (eng *Engine) ExtensionBounds() (int, int) { return eng.minExtension, eng.maxExtension }

// Recompute sets DaysRemaining = End - asOf for every engagement. Engagements
// with a null end date become unknown. Calling it again with the same date
// yields identical values.
func (eng *Engine) Recompute(s *roster.Store, asOf time.Time) {
	ref := model.NewDate(asOf)
	s.UpdateDerived(ref, func(e *model.Engagement) {
		if !e.End.Valid {
			e.DaysRemaining, e.RemainingKnown = 0, false
			return
		}
		e.DaysRemaining, e.RemainingKnown = e.End.DaysSince(ref), true
	})
}

// Bucket returns the lifecycle state of e for the given threshold.
func Bucket(e model.Engagement, threshold int) model.Bucket {
	d, ok := e.Remaining()
	switch {
	case !ok:
		return model.BucketUnknown
	case d < 0:
		return model.BucketExpired
	case d <= threshold:
		return model.BucketExpiringSoon
	default:
		return model.BucketActive
	}
}

// Classify computes the roster aggregates from the current derived fields.
// Engagements with unknown remaining days count toward Total and the
// histogram only.
func (eng *Engine) Classify(s *roster.Store) model.RosterStatus {
	st := model.RosterStatus{
		DatasetID:          s.ID(),
		AsOf:               s.AsOf().String(),
		ThresholdDays:      eng.threshold,
		SpecialtyHistogram: make(map[string]int),
	}

	sum, positive := 0, 0
	for _, e := range s.Records() {
		st.Total++
		st.SpecialtyHistogram[e.Specialty]++

		switch Bucket(e, eng.threshold) {
		case model.BucketUnknown:
			st.Buckets.Unknown++
			continue
		case model.BucketExpired:
			st.Buckets.Expired++
			st.Expired++
			st.ExpiringSoon++
		case model.BucketExpiringSoon:
			st.Buckets.ExpiringSoon++
			st.ExpiringSoon++
		case model.BucketActive:
			st.Buckets.Active++
		}
		if e.DaysRemaining > 0 {
			sum += e.DaysRemaining
			positive++
		}
	}
	if positive > 0 {
		avg := float64(sum) / float64(positive)
		st.AverageRemaining = &avg
	}
	return st
}

// SelectExpiring returns, in store order, every engagement whose remaining
// days are known and at most threshold. Expired engagements are included.
func (eng *Engine) SelectExpiring(s *roster.Store, threshold int) ([]model.Engagement, error) {
	if threshold < 0 {
		return nil, &InvalidParameterError{Param: "threshold", Value: threshold, Reason: "must not be negative"}
	}
	return filter(s, func(e model.Engagement) bool {
		d, ok := e.Remaining()
		return ok && d <= threshold
	}), nil
}

// Search returns, in store order, every engagement whose rendered row
// contains term, ignoring case. The row is rendered as one "label value"
// line per column, so column labels, extra columns and the remaining days
// all match. A blank term applies no filter and returns the full roster.
func (eng *Engine) Search(s *roster.Store, term string) []model.Engagement {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Records()
	}
	columns := exportColumns(s)
	return filter(s, func(e model.Engagement) bool {
		cells := eng.render(s, columns, e)
		var b strings.Builder
		for i, c := range columns {
			b.WriteString(c)
			b.WriteByte(' ')
			b.WriteString(cells[i])
			b.WriteByte('\n')
		}
		return strings.Contains(strings.ToLower(b.String()), term)
	})
}

func filter(s *roster.Store, keep func(model.Engagement) bool) []model.Engagement {
	out := make([]model.Engagement, 0)
	for _, e := range s.Records() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// exportColumns is the input header with the remaining-days column appended
// when the source did not carry one.
func exportColumns(s *roster.Store) []string {
	cols := s.Columns()
	if !s.HasRemainingColumn() {
		cols = append(cols, roster.ColumnDaysRemaining)
	}
	return cols
}

// render writes e as cell values in the order of columns. Cells are placed
// by column position, so repeated headers keep their own values.
func (eng *Engine) render(s *roster.Store, columns []string, e model.Engagement) []string {
	cells := make([]string, len(columns))
	for i := range columns {
		switch s.ColumnRole(i) {
		case roster.ColumnName:
			cells[i] = e.Name
		case roster.ColumnSpecialty:
			cells[i] = e.Specialty
		case roster.ColumnStart:
			cells[i] = eng.formatDate(e.Start, e.RawStart)
		case roster.ColumnEnd:
			cells[i] = eng.formatDate(e.End, e.RawEnd)
		case roster.ColumnDaysRemaining:
			if d, ok := e.Remaining(); ok {
				cells[i] = strconv.Itoa(d)
			}
		default:
			cells[i], _ = e.ExtraAt(i)
		}
	}
	return cells
}

// formatDate writes a parsed date with the export layout and an unparsed
// one as its original text.
func (eng *Engine) formatDate(d model.Date, raw string) string {
	if d.Valid {
		return d.Format(eng.exportLayout)
	}
	return raw
}
