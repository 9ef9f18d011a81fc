// Package calendar converts instants into timezone-local calendar days.
//
// A day key is the YYYY-MM-DD string of a calendar day as observed in some
// IANA timezone. Day keys order lexicographically, so they can be compared
// with < and <= directly.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the day key format.
const Layout = "2006-01-02"

// Location resolves an IANA timezone name. Empty or unknown names resolve to UTC.
func Location(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidTimezone reports whether name is a loadable IANA timezone.
func ValidTimezone(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// DayKey returns the calendar day of t as observed in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return Shift(t.In(loc), 0)
}

// Shift returns the key of the day n calendar days after the local day of t,
// using t's own location. The arithmetic runs on date fields, not on elapsed
// hours, so 23 and 25 hour days around DST changes still move by one day.
func Shift(t time.Time, n int) string {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 12, 0, 0, 0, time.UTC).Format(Layout)
}

// Parse parses a day key into midnight UTC of that date.
func Parse(key string) (time.Time, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a).
func DaysBetween(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
