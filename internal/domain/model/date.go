package model

import "time"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without time of day. The zero value is null.
type Date struct {
	Time  time.Time // UTC midnight when Valid
	Valid bool
}

// NewDate truncates t to its calendar date in t's own location and returns
// it as UTC midnight.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// DateOf builds a Date from its components.
func DateOf(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// AddDays returns d moved by n calendar days. A null date stays null.
func (d Date) AddDays(n int) Date {
	if !d.Valid {
		return d
	}
	return Date{Time: d.Time.AddDate(0, 0, n), Valid: true}
}

// DaysSince returns the whole number of days from ref to d, negative when d
// is before ref. Both dates must be valid.
func (d Date) DaysSince(ref Date) int {
	// Unix seconds avoid time.Duration overflow for dates centuries apart.
	return int((d.Time.Unix() - ref.Time.Unix()) / secondsPerDay)
}

// Equal reports whether both dates are null or both denote the same day.
func (d Date) Equal(o Date) bool {
	if d.Valid != o.Valid {
		return false
	}
	return !d.Valid || d.Time.Equal(o.Time)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Valid && o.Valid && d.Time.Before(o.Time)
}

// Format renders the date with layout, or "" when null.
func (d Date) Format(layout string) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(layout)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}
