package dto

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form accepted in requests
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date (taken as UTC midnight) or an RFC 3339 timestamp
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
}

// ParseOptionalDate parses s, returning nil for an empty string
func ParseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseOptionalEndDate parses an inclusive upper bound. A bare calendar date
// covers the whole day.
func ParseOptionalEndDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return ParseOptionalDate(s)
}
