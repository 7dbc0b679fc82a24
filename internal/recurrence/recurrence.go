// Package recurrence decides which habits are due on a given date.
package recurrence

import (
	"sort"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/models"
)

// IsApplicable reports whether a habit with the given rule is due on date.
// This logic is shared by streaks, summaries and the views to ensure
// consistency.
func IsApplicable(rule models.Recurrence, date time.Time) bool {
	switch r := rule.(type) {
	case models.Daily:
		return true
	case models.Weekly:
		return date.Weekday() == r.Day
	case models.Biweekly:
		if date.Weekday() != r.Day {
			return false
		}
		weeks := calendar.WeeksBetween(r.Reference, date)
		return weeks >= 0 && weeks%2 == 0
	case models.Monthly:
		// Monthly has no day-of-month selector yet, so it is due every day.
		return true
	default:
		return false
	}
}

// FilterApplicable returns the habits due on date, ordered by Order. Habits
// with equal Order keep their input order.
func FilterApplicable(habits []models.Habit, date time.Time) []models.Habit {
	applicable := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if IsApplicable(h.Recurrence, date) {
			applicable = append(applicable, h)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Order < applicable[j].Order
	})
	return applicable
}

// NextApplicable returns the first date on or after from (within limit days)
// on which rule is due.
func NextApplicable(rule models.Recurrence, from time.Time, limit int) (time.Time, bool) {
	for i := 0; i <= limit; i++ {
		d := calendar.AddDays(from, i)
		if IsApplicable(rule, d) {
			return d, true
		}
	}
	return time.Time{}, false
}
