// Package dateshift computes new delivery and charge dates when a box
// subscription moves from one delivery weekday to another.
//
// Two weekday numbering conventions are in play: the local convention
// (Sunday = 0 .. Saturday = 6, matching time.Weekday) and the billing
// provider's convention (Monday = 0 .. Sunday = 6). All conversion between
// the two happens inside this package.
package dateshift

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWeekday is returned when a weekday variant is not one of the
// seven canonical names. Names are matched exactly; "thursday" is invalid.
var ErrInvalidWeekday = errors.New("invalid weekday")

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday resolves a weekday variant name ("Thursday") to its local
// weekday index. Unknown or case-mismatched names return ErrInvalidWeekday.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[name]
	if !ok {
		return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
	}
	return wd, nil
}

// NextWeekday returns the next calendar occurrence of wd on or after from,
// at midnight in from's location.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	start := midnight(from)
	days := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, days)
}

// ProviderWeekday converts a local weekday (Sunday = 0) into the billing
// provider's numbering (Monday = 0).
func ProviderWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
