package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for roster errors. These allow errors.Is from callers.
var (
	ErrSchema    = errors.New("roster schema error")
	ErrDateParse = errors.New("date parse error")
	ErrRead      = errors.New("roster read failed")
)

// SchemaError reports a roster that cannot be loaded at all.
type SchemaError struct {
	Missing []string // mandatory columns absent from the header
	Row     int      // data row that broke a key constraint, 0 when not row-specific
	Reason  string
}

func (e *SchemaError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
	case e.Row > 0:
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	default:
		return e.Reason
	}
}

// Unwrap exposes the ErrSchema kind.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// DateParseError reports a date cell that matched none of the configured layouts.
type DateParseError struct {
	Row    int
	Column string
	Value  string
	// Rejected is true when the row was dropped rather than kept with a null date.
	Rejected bool
}

func (e *DateParseError) Error() string {
	action := "coerced to null"
	if e.Rejected {
		action = "row rejected"
	}
	return fmt.Sprintf("row %d: column %q: cannot parse %q as a date (%s)", e.Row, e.Column, e.Value, action)
}

// Unwrap exposes the ErrDateParse kind.
func (e *DateParseError) Unwrap() error { return ErrDateParse }
