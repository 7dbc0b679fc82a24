// Package streak computes per-habit streaks and completion rates.
//
// Every function is pure: it reads the habit and a ledger snapshot and walks
// calendar days between the habit's start bound and the as-of date. Days on
// which the habit is not applicable are skipped; they neither extend nor
// break a streak.
package streak

import (
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/ledger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/recurrence"
)

// Counter reports how many completions a habit has in total.
type Counter interface {
	Count(habitID string) int
}

// Calculator carries the process-wide tracking epoch.
type Calculator struct {
	Epoch time.Time
}

// New returns a Calculator bounded by epoch.
func New(epoch time.Time) Calculator {
	return Calculator{Epoch: calendar.Midnight(epoch)}
}

// Stats bundles every per-habit figure shown on the stats view.
type Stats struct {
	HabitID          string `json:"habit_id"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	CompletionRate   int    `json:"completion_rate"`
	WindowDays       int    `json:"window_days"`
	LifetimeRate     int    `json:"lifetime_rate"`
	TotalRepetitions int    `json:"total_repetitions"`
}

// CurrentStreak counts consecutive applicable days completed, walking back
// from asOf. The first applicable day that is not completed ends the walk,
// as does reaching the start bound.
func (c Calculator) CurrentStreak(h models.Habit, l ledger.Lookup, asOf time.Time) int {
	start, ok := c.span(h, asOf)
	if !ok {
		return 0
	}

	streak := 0
	for i := 0; i <= calendar.DaysBetween(start, asOf); i++ {
		d := calendar.AddDays(asOf, -i)
		if !recurrence.IsApplicable(h.Recurrence, d) {
			continue
		}
		if !l.IsCompleted(h.ID, d) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of completed applicable days between
// the start bound and asOf.
func (c Calculator) LongestStreak(h models.Habit, l ledger.Lookup, asOf time.Time) int {
	start, ok := c.span(h, asOf)
	if !ok {
		return 0
	}

	longest, run := 0, 0
	for i := 0; i <= calendar.DaysBetween(start, asOf); i++ {
		d := calendar.AddDays(start, i)
		if !recurrence.IsApplicable(h.Recurrence, d) {
			continue
		}
		if l.IsCompleted(h.ID, d) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// CompletionRate returns the percentage (0..100) of applicable days completed
// among the windowDays days ending at asOf. Days before the start bound are
// outside the window. It returns 0 when no day in the window is applicable.
func (c Calculator) CompletionRate(h models.Habit, l ledger.Lookup, windowDays int, asOf time.Time) int {
	if windowDays <= 0 {
		return 0
	}
	start, ok := c.span(h, asOf)
	if !ok {
		return 0
	}
	windowStart := calendar.Later(start, calendar.AddDays(asOf, -(windowDays-1)))
	return c.rate(h, l, windowStart, asOf)
}

// LifetimeRate is CompletionRate over every day from the start bound to asOf.
func (c Calculator) LifetimeRate(h models.Habit, l ledger.Lookup, asOf time.Time) int {
	start, ok := c.span(h, asOf)
	if !ok {
		return 0
	}
	return c.rate(h, l, start, asOf)
}

// TotalRepetitions returns the number of days the habit was marked, with no
// date bounds applied.
func TotalRepetitions(h models.Habit, l Counter) int {
	return l.Count(h.ID)
}

// Stats computes every figure for h in one call.
func (c Calculator) Stats(h models.Habit, l *ledger.Ledger, windowDays int, asOf time.Time) Stats {
	return Stats{
		HabitID:          h.ID,
		CurrentStreak:    c.CurrentStreak(h, l, asOf),
		LongestStreak:    c.LongestStreak(h, l, asOf),
		CompletionRate:   c.CompletionRate(h, l, windowDays, asOf),
		WindowDays:       windowDays,
		LifetimeRate:     c.LifetimeRate(h, l, asOf),
		TotalRepetitions: TotalRepetitions(h, l),
	}
}

func (c Calculator) rate(h models.Habit, l ledger.Lookup, from, to time.Time) int {
	applicable, completed := 0, 0
	for _, d := range calendar.DatesInRange(from, to) {
		if !recurrence.IsApplicable(h.Recurrence, d) {
			continue
		}
		applicable++
		if l.IsCompleted(h.ID, d) {
			completed++
		}
	}
	return Percent(completed, applicable)
}

// span returns the first day considered for h. ok is false when asOf falls
// before it.
func (c Calculator) span(h models.Habit, asOf time.Time) (time.Time, bool) {
	loc := asOf.Location()
	epoch := c.Epoch
	if epoch.IsZero() {
		epoch, _ = calendar.ParseInLocation(constants.DefaultTrackingEpoch, loc)
	}
	// The epoch is a calendar date, so carry its fields rather than the instant.
	y, m, d := epoch.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !h.CreatedAt.IsZero() {
		start = calendar.Later(start, calendar.Midnight(h.CreatedAt.In(loc)))
	}
	if calendar.IsFuture(start, asOf) {
		return time.Time{}, false
	}
	return start, true
}

// Percent returns round-half-up(100*part/total), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}
