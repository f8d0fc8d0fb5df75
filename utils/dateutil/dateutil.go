// Package dateutil provides the calendar-date conversions the status engine
// is built on: strict ISO parsing, week numbers and the optional one-day
// airdate delay used to compensate for timezone skew against the metadata
// source.
package dateutil

import (
	"errors"
	"time"
)

const layout = "2006-01-02"

// ErrInvalidDate is returned for any date string that is not strict
// YYYY-MM-DD. Callers treat optional fields that fail to parse as unknown;
// the empty string never reaches Parse.
var ErrInvalidDate = errors.New("invalid date, want YYYY-MM-DD")

// Parse converts a strict YYYY-MM-DD string into a UTC date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

// Format is the exact inverse of Parse: Parse(Format(d)) == d for any valid d.
func Format(t time.Time) string {
	return t.Format(layout)
}

// Weekday returns the full English weekday name, used only for equality
// comparisons so it stays locale-independent.
func Weekday(t time.Time) string {
	return t.Weekday().String()
}

// ApplyDelay shifts a date one day forward when the delay setting is on.
// Zero times pass through untouched.
func ApplyDelay(t time.Time, enabled bool) time.Time {
	if !enabled || t.IsZero() {
		return t
	}
	return t.AddDate(0, 0, 1)
}

// RemoveDelay undoes ApplyDelay before serialization so stored dates remain
// delay-free on disk.
func RemoveDelay(t time.Time, enabled bool) time.Time {
	if !enabled || t.IsZero() {
		return t
	}
	return t.AddDate(0, 0, -1)
}

// ISOWeek returns the ISO 8601 week number of a date. The week-based year is
// deliberately ignored: episode resolution compares bare week numbers, which
// is the behavior the one-week-back double-episode fallback depends on.
func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// DaysBetween returns the whole days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Today normalizes a timestamp to a bare UTC date. A zero input means "use
// the wall clock", so callers can thread an override date without special
// casing the common path.
func Today(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
