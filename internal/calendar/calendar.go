// Package calendar implements the date arithmetic shared by the habit engine.
//
// All functions operate on calendar days: the year, month and day fields of a
// time.Time in its own location. Time-of-day is ignored everywhere, so two
// values that format to the same YYYY-MM-DD key are the same day.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
)

// ErrInvalidDate is returned when a string is not a valid YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid date")

const daySeconds = 24 * 60 * 60

// Format returns the canonical YYYY-MM-DD ledger key for d.
func Format(d time.Time) string {
	return d.Format(constants.DateFormat)
}

// Parse parses a YYYY-MM-DD string anchored to local midnight.
func Parse(s string) (time.Time, error) {
	return ParseInLocation(s, time.Local)
}

// ParseInLocation parses a YYYY-MM-DD string anchored to midnight in loc.
func ParseInLocation(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(constants.DateFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidateDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidateDate(s string) bool {
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// Midnight truncates d to the start of its calendar day in d's location.
func Midnight(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// DayOfWeek returns 0 (Sunday) through 6 (Saturday).
func DayOfWeek(d time.Time) int {
	return int(d.Weekday())
}

// IsSameDay reports whether a and b share year, month and day.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsToday reports whether d falls on the same calendar day as now.
func IsToday(d, now time.Time) bool {
	return IsSameDay(d, now)
}

// IsFuture reports whether d's calendar day is strictly after now's.
func IsFuture(d, now time.Time) bool {
	return dayNumber(d) > dayNumber(now)
}

// AddDays returns midnight of the day n days after d. Month and year
// rollovers are normalized by time.Date.
func AddDays(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day+n, 0, 0, 0, 0, d.Location())
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	diff := dayNumber(b) - dayNumber(a)
	if diff < 0 {
		return -diff
	}
	return diff
}

// WeeksBetween returns the signed number of complete 7-day periods from a to
// b, floor-divided so that one day before a is week -1.
func WeeksBetween(a, b time.Time) int {
	return floorDiv(dayNumber(b)-dayNumber(a), 7)
}

// StartOfWeek returns the Sunday on or before d.
func StartOfWeek(d time.Time) time.Time {
	return AddDays(d, -DayOfWeek(d))
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, d.Location())
}

// DatesInRange returns every day from start through end inclusive. It returns
// an empty slice when end is before start.
func DatesInRange(start, end time.Time) []time.Time {
	n := dayNumber(end) - dayNumber(start)
	if n < 0 {
		return []time.Time{}
	}
	dates := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		dates = append(dates, AddDays(start, i))
	}
	return dates
}

// Later returns whichever of a and b falls on the later calendar day.
func Later(a, b time.Time) time.Time {
	if dayNumber(b) > dayNumber(a) {
		return b
	}
	return a
}

// dayNumber maps a calendar day onto a contiguous integer axis. Using UTC for
// the projection keeps DST transitions from producing 23 or 25 hour days.
func dayNumber(d time.Time) int {
	y, m, day := d.Date()
	return int(time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Unix() / daySeconds)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
