package domain

import (
	"strings"
	"time"
)

// DateLayout is the zero-padded ISO calendar date used for due dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component, stored as YYYY-MM-DD.
// The zero-padded layout keeps lexical and chronological order identical.
type Date string

// DateOf returns the calendar date of t in loc. A nil loc means UTC.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc).Format(DateLayout))
}

// ParseDate accepts either YYYY-MM-DD or an RFC3339 timestamp. Timestamps are
// truncated to their calendar date in loc.
func ParseDate(value string, loc *time.Location) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrInvalidDate
	}
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return Date(parsed.Format(DateLayout)), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", WrapError(ErrCodeInvalid, "invalid date", err)
	}
	return DateOf(parsed, loc), nil
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

// Valid reports whether d is a well-formed calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

func (d Date) String() string {
	return string(d)
}
