// Package recurrence holds the calendar arithmetic and execution rules for
// recurring jobs. Everything here is pure: no storage, no clock.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the step between two occurrences of a recurring job.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ErrUnsupportedFrequency is returned by ParseFrequency for unknown values.
var ErrUnsupportedFrequency = errors.New("unsupported frequency")

// ParseFrequency normalizes a user supplied frequency string.
func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, raw)
	}
	return f, nil
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// NextOccurrence returns the occurrence following anchor.
//
// Monthly and yearly steps clamp to the last day of the target month when the
// anchor's day does not exist there (Jan 31 -> Feb 28/29, Feb 29 -> Feb 28).
// Clock time and location of anchor are preserved.
func NextOccurrence(anchor time.Time, f Frequency) (time.Time, error) {
	switch f {
	case Weekly:
		return anchor.AddDate(0, 0, 7), nil
	case Monthly:
		return addMonthsClamped(anchor, 1), nil
	case Yearly:
		return addMonthsClamped(anchor, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, f)
	}
}

// DueDateFor returns the deadline of a project materialized for the
// occurrence starting at occurrenceStart: one step of f later.
func DueDateFor(occurrenceStart time.Time, f Frequency) (time.Time, error) {
	return NextOccurrence(occurrenceStart, f)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// Normalize through the first of the month so time.Date never overflows
	// into the following month.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
