// Package prep computes daily prep suggestions, ingredient shortages, prep
// tasks and their effect on inventory. Every function is pure: inputs are
// never mutated and updated snapshots are returned as fresh copies.
package prep

import "time"

// Weekday returns the day-of-week name of t in t's own location.
// Callers choose the calendar by converting t with In before calling.
func Weekday(t time.Time) string {
	return t.Weekday().String()
}

// DateKey formats t as YYYY-MM-DD in t's own location
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDateKey parses a YYYY-MM-DD key as midnight in loc
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(time.DateOnly, key, loc)
}
