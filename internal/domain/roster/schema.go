package roster

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column headers of the roster file.
const (
	ColumnName          = "Nom"
	ColumnSpecialty     = "Spécialité IT"
	ColumnStart         = "Date début contrat"
	ColumnEnd           = "Date fin contrat"
	ColumnDaysRemaining = "Temps restant (jours)"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []string{ColumnName, ColumnSpecialty, ColumnStart, ColumnEnd}

const utf8BOM = "\ufeff"

// normalizeHeader makes header matching insensitive to a leading BOM,
// surrounding spaces and composed/decomposed accents.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, utf8BOM)
	return norm.NFC.String(strings.TrimSpace(h))
}

// layout maps each known column to its index in the header; -1 when absent.
type layout struct {
	columns   []string // normalised header, in file order
	name      int
	specialty int
	start     int
	end       int
	remaining int
}

func parseHeader(header []string) (layout, error) {
	l := layout{
		columns:   make([]string, len(header)),
		name:      -1,
		specialty: -1,
		start:     -1,
		end:       -1,
		remaining: -1,
	}
	for i, h := range header {
		h = normalizeHeader(h)
		l.columns[i] = h
		switch h {
		case ColumnName:
			l.name = i
		case ColumnSpecialty:
			l.specialty = i
		case ColumnStart:
			l.start = i
		case ColumnEnd:
			l.end = i
		case ColumnDaysRemaining:
			l.remaining = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if l.index(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return layout{}, &SchemaError{Missing: missing}
	}
	return l, nil
}

func (l layout) index(column string) int {
	switch column {
	case ColumnName:
		return l.name
	case ColumnSpecialty:
		return l.specialty
	case ColumnStart:
		return l.start
	case ColumnEnd:
		return l.end
	case ColumnDaysRemaining:
		return l.remaining
	}
	return -1
}

// known reports whether the column at index i is one the store models.
func (l layout) known(i int) bool {
	return i == l.name || i == l.specialty || i == l.start || i == l.end || i == l.remaining
}
