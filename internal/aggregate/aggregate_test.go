package aggregate

import (
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/ledger"
	"github.com/julianstephens/atoms/internal/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", s, err)
	}
	return d
}

func fixture() []models.Habit {
	return []models.Habit{
		{ID: "read", Order: 2, Recurrence: models.Daily{}},
		{ID: "run", Order: 1, Recurrence: models.Weekly{Day: time.Friday}},
		{ID: "call", Order: 3, Recurrence: models.Weekly{Day: time.Sunday}},
		{ID: "stretch", Order: 0, Recurrence: models.Daily{}},
	}
}

func ids(habits []models.Habit) []string {
	out := make([]string, len(habits))
	for i, h := range habits {
		out[i] = h.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDailySummary(t *testing.T) {
	friday := date(t, "2026-10-16")
	l := ledger.New()
	l.SetCompletion("run", friday, true)
	l.SetCompletion("call", friday, true) // not applicable on Friday

	s := DailySummary(fixture(), l, friday)

	if want := []string{"stretch", "run", "read"}; !equal(ids(s.Applicable), want) {
		t.Errorf("Applicable = %v, want %v", ids(s.Applicable), want)
	}
	if s.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", s.TotalCount)
	}
	if s.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", s.CompletedCount)
	}
}

func TestDailySummary_Empty(t *testing.T) {
	s := DailySummary(nil, ledger.New(), date(t, "2026-10-16"))
	if s.Applicable == nil || len(s.Applicable) != 0 {
		t.Errorf("Applicable = %v, want empty non-nil slice", s.Applicable)
	}
	if s.CompletedCount != 0 || s.TotalCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", s.CompletedCount, s.TotalCount)
	}
}

func TestIntensity(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 4, 75},
		{4, 4, 100},
		{2, 4, 50},
		{1, 4, 25},
		{1, 5, 0},
		{0, 3, 0},
		{2, 3, 50},
		{5, 6, 75},
	}
	for _, tt := range tests {
		if got := Intensity(tt.completed, tt.total); got != tt.want {
			t.Errorf("Intensity(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestRangeHeatmap(t *testing.T) {
	habits := fixture()
	start := date(t, "2026-10-16") // Friday
	end := date(t, "2026-10-18")   // Sunday

	l := ledger.New()
	// Friday: 3 of 3
	l.SetCompletion("stretch", start, true)
	l.SetCompletion("run", start, true)
	l.SetCompletion("read", start, true)
	// Saturday: 1 of 2
	l.SetCompletion("read", calendar.AddDays(start, 1), true)

	cells := RangeHeatmap(habits, l, start, end)
	if len(cells) != 3 {
		t.Fatalf("len(cells) = %d, want 3", len(cells))
	}

	want := []struct {
		day              string
		completed, total int
		intensity        int
	}{
		{"2026-10-16", 3, 3, 100},
		{"2026-10-17", 1, 2, 50},
		{"2026-10-18", 0, 3, 0},
	}
	for i, w := range want {
		c := cells[i]
		if calendar.Format(c.Date) != w.day {
			t.Errorf("cell %d date = %s, want %s", i, calendar.Format(c.Date), w.day)
		}
		if c.CompletedCount != w.completed || c.TotalCount != w.total || c.Intensity != w.intensity {
			t.Errorf("cell %s = %d/%d (%d), want %d/%d (%d)",
				w.day, c.CompletedCount, c.TotalCount, c.Intensity, w.completed, w.total, w.intensity)
		}
	}
}

func TestRangeHeatmap_EmptyRange(t *testing.T) {
	cells := RangeHeatmap(fixture(), ledger.New(), date(t, "2026-10-18"), date(t, "2026-10-16"))
	if len(cells) != 0 {
		t.Errorf("reversed range produced %d cells, want 0", len(cells))
	}
}

func TestWeekSummary(t *testing.T) {
	week := WeekSummary(fixture(), ledger.New(), date(t, "2026-10-14"))
	if len(week) != 7 {
		t.Fatalf("len(week) = %d, want 7", len(week))
	}
	if got := calendar.Format(week[0].Date); got != "2026-10-11" {
		t.Errorf("week starts %s, want Sunday 2026-10-11", got)
	}
	if week[0].TotalCount != 3 { // stretch, read, call
		t.Errorf("Sunday TotalCount = %d, want 3", week[0].TotalCount)
	}
	if week[5].TotalCount != 3 { // stretch, run, read
		t.Errorf("Friday TotalCount = %d, want 3", week[5].TotalCount)
	}
	if week[2].TotalCount != 2 {
		t.Errorf("Tuesday TotalCount = %d, want 2", week[2].TotalCount)
	}
}

func TestMonthHeatmap(t *testing.T) {
	cells := MonthHeatmap(fixture(), ledger.New(), date(t, "2024-02-10"))
	if len(cells) != 29 {
		t.Errorf("February 2024 has %d cells, want 29", len(cells))
	}
}

func TestRoutineSummary(t *testing.T) {
	friday := date(t, "2026-10-16")
	l := ledger.New()
	l.SetCompletion("run", friday, true)
	l.SetCompletion("read", friday, true)

	res := RoutineSummary(fixture(), l, friday, []string{"run", "call", "stretch", "missing"})

	if want := []string{"stretch", "run"}; !equal(ids(res.Applicable), want) {
		t.Errorf("Applicable = %v, want %v", ids(res.Applicable), want)
	}
	if want := []string{"run"}; !equal(ids(res.Completed), want) {
		t.Errorf("Completed = %v, want %v", ids(res.Completed), want)
	}
}

func TestRoutineSummary_NoMatches(t *testing.T) {
	res := RoutineSummary(fixture(), ledger.New(), date(t, "2026-10-16"), []string{"missing"})
	if len(res.Applicable) != 0 || len(res.Completed) != 0 {
		t.Errorf("unexpected result for unknown ids: %+v", res)
	}
}
