package streak

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the local-calendar day format used everywhere a workout
// date is stored or compared. Zero-padded, so lexicographic order equals
// chronological order.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid workout date, expected YYYY-MM-DD")

// FormatLocal renders t as YYYY-MM-DD using its local calendar
// components, never UTC. Converting through UTC shifts dates across
// midnight for non-UTC clients.
func FormatLocal(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseLocal parses a YYYY-MM-DD string as a local date at midnight.
// Rejects anything that does not round-trip (e.g. 2024-02-31).
func ParseLocal(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if FormatLocal(t) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
