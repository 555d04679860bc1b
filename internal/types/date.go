package types

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date. Date-only and RFC3339 inputs are accepted;
// the result is always midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q (expected YYYY-MM-DD or RFC3339)", s)
	}
	return TruncateDay(t), nil
}

// ParseDatePtr parses an optional date; empty input yields nil.
func ParseDatePtr(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders an optional date, nil stays nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfYear returns December 31 of the given year.
func EndOfYear(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference from the calendar day of
// from to the calendar day of to. Negative when to is in the past.
func DaysBetween(from, to time.Time) int {
	return int(TruncateDay(to).Sub(TruncateDay(from)).Hours() / 24)
}
