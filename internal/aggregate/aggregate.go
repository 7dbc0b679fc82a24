// Package aggregate derives per-day summaries and heatmaps across a set of
// habits from a ledger snapshot.
package aggregate

import (
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/ledger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/recurrence"
)

// Summary is the applicable habits for a day and how many were completed.
type Summary struct {
	Date           time.Time
	Applicable     []models.Habit
	CompletedCount int
	TotalCount     int
}

// Cell is one day of a heatmap.
type Cell struct {
	Date           time.Time
	CompletedCount int
	TotalCount     int
	Intensity      int
}

// RoutineResult is a Summary restricted to a routine's habits.
type RoutineResult struct {
	Applicable []models.Habit
	Completed  []models.Habit
}

// DailySummary returns the habits applicable on date, in display order, and
// the number of them completed.
func DailySummary(habits []models.Habit, l ledger.Lookup, date time.Time) Summary {
	applicable := recurrence.FilterApplicable(habits, date)
	completed := 0
	for _, h := range applicable {
		if l.IsCompleted(h.ID, date) {
			completed++
		}
	}
	return Summary{
		Date:           calendar.Midnight(date),
		Applicable:     applicable,
		CompletedCount: completed,
		TotalCount:     len(applicable),
	}
}

// RangeHeatmap returns one cell per day in [start, end] inclusive.
func RangeHeatmap(habits []models.Habit, l ledger.Lookup, start, end time.Time) []Cell {
	days := calendar.DatesInRange(start, end)
	cells := make([]Cell, 0, len(days))
	for _, d := range days {
		s := DailySummary(habits, l, d)
		cells = append(cells, Cell{
			Date:           s.Date,
			CompletedCount: s.CompletedCount,
			TotalCount:     s.TotalCount,
			Intensity:      Intensity(s.CompletedCount, s.TotalCount),
		})
	}
	return cells
}

// WeekSummary returns the seven daily summaries of the Sunday-started week
// containing date.
func WeekSummary(habits []models.Habit, l ledger.Lookup, date time.Time) []Summary {
	start := calendar.StartOfWeek(date)
	week := make([]Summary, 0, 7)
	for i := 0; i < 7; i++ {
		week = append(week, DailySummary(habits, l, calendar.AddDays(start, i)))
	}
	return week
}

// MonthHeatmap is RangeHeatmap over the calendar month containing date.
func MonthHeatmap(habits []models.Habit, l ledger.Lookup, date time.Time) []Cell {
	return RangeHeatmap(habits, l, calendar.StartOfMonth(date), calendar.EndOfMonth(date))
}

// RoutineSummary is DailySummary scoped to habitIDs. Ids that match no habit
// contribute nothing.
func RoutineSummary(habits []models.Habit, l ledger.Lookup, date time.Time, habitIDs []string) RoutineResult {
	wanted := make(map[string]bool, len(habitIDs))
	for _, id := range habitIDs {
		wanted[id] = true
	}

	subset := make([]models.Habit, 0, len(habitIDs))
	for _, h := range habits {
		if wanted[h.ID] {
			subset = append(subset, h)
		}
	}

	s := DailySummary(subset, l, date)
	res := RoutineResult{Applicable: s.Applicable, Completed: []models.Habit{}}
	for _, h := range s.Applicable {
		if l.IsCompleted(h.ID, date) {
			res.Completed = append(res.Completed, h)
		}
	}
	return res
}

// Intensity buckets completed/total into 0, 25, 50, 75 or 100. Thresholds
// are compared with integer cross-multiplication.
func Intensity(completed, total int) int {
	switch {
	case total <= 0:
		return constants.HeatNone
	case completed >= total:
		return constants.HeatFull
	case 4*completed >= 3*total:
		return constants.HeatHigh
	case 2*completed >= total:
		return constants.HeatMedium
	case 4*completed >= total:
		return constants.HeatLow
	default:
		return constants.HeatNone
	}
}
