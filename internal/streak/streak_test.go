package streak

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

func newCalc(t *testing.T) Calculator {
	t.Helper()
	return New(date(t, "2024-01-01"))
}

func daily(id string) models.Habit {
	return models.Habit{ID: id, Name: id, Recurrence: models.Daily{}}
}

func TestCurrentStreak_Daily(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := daily("h1")

	l := ledger.New()
	l.SetCompletion(h.ID, today, true)
	l.SetCompletion(h.ID, calendar.AddDays(today, -1), true)
	l.SetCompletion(h.ID, calendar.AddDays(today, -2), true)
	// today-3 missing
	l.SetCompletion(h.ID, calendar.AddDays(today, -4), true)

	if got := calc.CurrentStreak(h, l, today); got != 3 {
		t.Errorf("CurrentStreak = %d, want 3", got)
	}
}

func TestCurrentStreak_BrokenToday(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := daily("h1")

	l := ledger.New()
	l.SetCompletion(h.ID, calendar.AddDays(today, -1), true)

	if got := calc.CurrentStreak(h, l, today); got != 0 {
		t.Errorf("CurrentStreak = %d, want 0 when today is applicable and not done", got)
	}
}

func TestCurrentStreak_WeeklySkipsNonApplicableDays(t *testing.T) {
	calc := newCalc(t)
	sunday := date(t, "2026-10-11")
	asOf := calendar.AddDays(sunday, 3) // Wednesday after
	h := models.Habit{ID: "w", Recurrence: models.Weekly{Day: time.Sunday}}

	l := ledger.New()
	for i := 0; i < 3; i++ {
		l.SetCompletion(h.ID, calendar.AddDays(sunday, -7*i), true)
	}

	if got := calc.CurrentStreak(h, l, asOf); got != 3 {
		t.Errorf("CurrentStreak = %d, want 3", got)
	}
	if got := calc.CurrentStreak(h, l, sunday); got != 3 {
		t.Errorf("CurrentStreak as of Sunday = %d, want 3", got)
	}
}

func TestCurrentStreak_StopsAtEpoch(t *testing.T) {
	epoch := date(t, "2026-10-14")
	calc := New(epoch)
	today := date(t, "2026-10-16")
	h := daily("h1")

	l := ledger.New()
	for i := 0; i < 10; i++ {
		l.SetCompletion(h.ID, calendar.AddDays(today, -i), true)
	}

	if got := calc.CurrentStreak(h, l, today); got != 3 {
		t.Errorf("CurrentStreak = %d, want 3 (epoch bound)", got)
	}
	if got := calc.CurrentStreak(h, l, calendar.AddDays(epoch, -1)); got != 0 {
		t.Errorf("CurrentStreak before epoch = %d, want 0", got)
	}
}

func TestCurrentStreak_StopsAtCreatedAt(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := daily("h1")
	h.CreatedAt = calendar.AddDays(today, -1).Add(15 * time.Hour)

	l := ledger.New()
	for i := 0; i < 5; i++ {
		l.SetCompletion(h.ID, calendar.AddDays(today, -i), true)
	}

	if got := calc.CurrentStreak(h, l, today); got != 2 {
		t.Errorf("CurrentStreak = %d, want 2 (creation bound)", got)
	}
}

func TestLongestStreak(t *testing.T) {
	calc := newCalc(t)
	start := date(t, "2026-10-01")
	h := daily("h1")
	h.CreatedAt = start

	pattern := []bool{true, true, false, true, true, true}
	l := ledger.New()
	for i, done := range pattern {
		l.SetCompletion(h.ID, calendar.AddDays(start, i), done)
	}
	asOf := calendar.AddDays(start, len(pattern)-1)

	if got := calc.LongestStreak(h, l, asOf); got != 3 {
		t.Errorf("LongestStreak = %d, want 3", got)
	}
}

func TestLongestStreak_NonApplicableDaysDoNotReset(t *testing.T) {
	calc := newCalc(t)
	sunday := date(t, "2026-09-06")
	h := models.Habit{ID: "w", Recurrence: models.Weekly{Day: time.Sunday}, CreatedAt: sunday}

	l := ledger.New()
	for i := 0; i < 4; i++ {
		l.SetCompletion(h.ID, calendar.AddDays(sunday, 7*i), true)
	}
	// Completions on non-applicable days are ignored.
	l.SetCompletion(h.ID, calendar.AddDays(sunday, 1), true)

	if got := calc.LongestStreak(h, l, calendar.AddDays(sunday, 27)); got != 4 {
		t.Errorf("LongestStreak = %d, want 4", got)
	}
}

func TestCompletionRate(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := daily("h1")

	l := ledger.New()
	for _, offset := range []int{0, 2, 3, 6} {
		l.SetCompletion(h.ID, calendar.AddDays(today, -offset), true)
	}
	// Outside the 7-day window.
	l.SetCompletion(h.ID, calendar.AddDays(today, -7), true)

	if got := calc.CompletionRate(h, l, 7, today); got != 57 {
		t.Errorf("CompletionRate = %d, want 57", got)
	}
}

func TestCompletionRate_NoApplicableDays(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := models.Habit{ID: "u", Recurrence: models.Unknown{Tag: "yearly"}}

	if got := calc.CompletionRate(h, ledger.New(), 7, today); got != 0 {
		t.Errorf("CompletionRate = %d, want 0", got)
	}
	if got := calc.CompletionRate(daily("h1"), ledger.New(), 0, today); got != 0 {
		t.Errorf("CompletionRate with zero window = %d, want 0", got)
	}
}

func TestPercentRoundsHalfUp(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{4, 7, 57},
		{1, 8, 13}, // 12.5
		{3, 8, 38}, // 37.5
		{2, 3, 67},
		{1, 3, 33},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	calc := newCalc(t)
	today := date(t, "2026-10-16")
	h := daily("h1")
	h.CreatedAt = calendar.AddDays(today, -3)

	l := ledger.New()
	l.SetCompletion(h.ID, today, true)
	l.SetCompletion(h.ID, calendar.AddDays(today, -1), true)
	l.SetCompletion(h.ID, calendar.AddDays(today, -3), true)
	// Before creation: counted as a repetition, not in rates.
	l.SetCompletion(h.ID, calendar.AddDays(today, -10), true)

	s := calc.Stats(h, l, 30, today)
	if s.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", s.CurrentStreak)
	}
	if s.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", s.LongestStreak)
	}
	if s.CompletionRate != 75 {
		t.Errorf("CompletionRate = %d, want 75", s.CompletionRate)
	}
	if s.LifetimeRate != 75 {
		t.Errorf("LifetimeRate = %d, want 75", s.LifetimeRate)
	}
	if s.TotalRepetitions != 4 {
		t.Errorf("TotalRepetitions = %d, want 4", s.TotalRepetitions)
	}
}
