package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
)

// Friday
var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, habits ...models.Habit) (Model, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, h := range habits {
		if err := store.AddHabit(h); err != nil {
			t.Fatalf("failed to add habit %s: %v", h.Name, err)
		}
	}

	ctx := &cli.Context{Store: store, Clock: calendar.FixedClock{T: testNow}}
	m, err := NewModel(ctx)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m, store
}

func daily(id, name string, order int) models.Habit {
	return models.Habit{
		ID:         id,
		Name:       name,
		Recurrence: models.Daily{},
		Order:      order,
		GoalAmount: 1,
		CreatedAt:  testNow.AddDate(0, 0, -30),
	}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func completion(t *testing.T, store *sqlite.Store, habitID, day string) (bool, bool) {
	t.Helper()
	records, err := store.GetCompletions(day, day)
	if err != nil {
		t.Fatalf("failed to get completions: %v", err)
	}
	for _, r := range records {
		if r.HabitID == habitID {
			return r.Completed, true
		}
	}
	return false, false
}

func TestToggleWritesCompletion(t *testing.T) {
	m, store := newTestModel(t, daily("read", "Read", 0), daily("walk", "Walk", 1))

	m = press(t, m, runes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})

	if done, ok := completion(t, store, "walk", "2026-10-16"); !ok || !done {
		t.Fatalf("expected walk completed on 2026-10-16, got done=%v found=%v", done, ok)
	}
	if _, ok := completion(t, store, "read", "2026-10-16"); ok {
		t.Error("unselected habit should not be touched")
	}
	if !m.ledger.IsCompleted("walk", testNow) {
		t.Error("ledger snapshot not updated after toggle")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if done, _ := completion(t, store, "walk", "2026-10-16"); done {
		t.Error("second toggle should clear the completion")
	}
	if m.ledger.IsCompleted("walk", testNow) {
		t.Error("ledger still shows walk completed")
	}
	if m.Err() != nil {
		t.Errorf("unexpected error: %v", m.Err())
	}
}

func TestDayNavigation(t *testing.T) {
	m, store := newTestModel(t, daily("read", "Read", 0))

	m = press(t, m, runes("l"))
	if !calendar.IsSameDay(m.Date(), testNow) {
		t.Fatalf("moving past today should be ignored, got %s", calendar.Format(m.Date()))
	}

	m = press(t, m, runes("h"))
	m = press(t, m, runes("h"))
	if got := calendar.Format(m.Date()); got != "2026-10-14" {
		t.Fatalf("expected 2026-10-14, got %s", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if done, ok := completion(t, store, "read", "2026-10-14"); !ok || !done {
		t.Errorf("toggle on a past day should write that day, got done=%v found=%v", done, ok)
	}

	m = press(t, m, runes("l"))
	if got := calendar.Format(m.Date()); got != "2026-10-15" {
		t.Errorf("expected 2026-10-15, got %s", got)
	}
	m = press(t, m, runes("t"))
	if !calendar.IsSameDay(m.Date(), testNow) {
		t.Errorf("t should jump back to today, got %s", calendar.Format(m.Date()))
	}
}

func TestCursorFollowsApplicableHabits(t *testing.T) {
	weekly := daily("swim", "Swim", 1)
	weekly.Recurrence = models.Weekly{Day: time.Friday}
	m, _ := newTestModel(t, daily("read", "Read", 0), weekly)

	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	if m.cursor != 1 {
		t.Fatalf("cursor should stop at the last habit, got %d", m.cursor)
	}

	// Thursday has only the daily habit.
	m = press(t, m, runes("h"))
	if m.cursor != 0 {
		t.Errorf("cursor should be clamped to 0, got %d", m.cursor)
	}
}

func TestTabCycling(t *testing.T) {
	m, _ := newTestModel(t)

	want := []State{StateRoutines, StateCalendar, StateStats, StateToday}
	for _, s := range want {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.State() != s {
			t.Fatalf("expected state %d, got %d", s, m.State())
		}
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.State() != StateStats {
		t.Errorf("shift+tab from Today should wrap to Stats, got %d", m.State())
	}
}

func TestQuit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", runes("q")},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			updated, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
			if updated.(Model).View() != "" {
				t.Error("view should be empty after quitting")
			}
		})
	}
}

func TestAddHabitForm(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = press(t, m, runes("a"))
	if m.State() != StateAddHabit || m.form == nil {
		t.Fatal("a should open the add-habit form")
	}
	if !strings.Contains(m.View(), "New Habit") {
		t.Error("form view missing title")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.State() != StateRoutines {
		t.Errorf("esc should return to the previous tab, got %d", m.State())
	}
	if m.form != nil {
		t.Error("form not cleared on cancel")
	}
}

func TestSaveHabitForm(t *testing.T) {
	m, store := newTestModel(t, daily("read", "Read", 0))

	if err := m.saveHabitForm(HabitForm{Name: " Swim ", Icon: "🏊", Recurrence: "weekly", Day: "mon"}); err != nil {
		t.Fatalf("saveHabitForm failed: %v", err)
	}
	h, err := store.GetHabitByName("Swim")
	if err != nil {
		t.Fatalf("habit not stored: %v", err)
	}
	if w, ok := h.Recurrence.(models.Weekly); !ok || w.Day != time.Monday {
		t.Errorf("expected weekly Monday, got %#v", h.Recurrence)
	}
	if h.Order != 1 {
		t.Errorf("expected order 1, got %d", h.Order)
	}
	if len(m.habits) != 2 {
		t.Errorf("model not reloaded, have %d habits", len(m.habits))
	}

	tests := []struct {
		name string
		form HabitForm
	}{
		{"duplicate name", HabitForm{Name: "read", Recurrence: "daily"}},
		{"empty name", HabitForm{Name: "  ", Recurrence: "daily"}},
		{"bad recurrence", HabitForm{Name: "Yoga", Recurrence: "hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.saveHabitForm(tt.form); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestViewTabs(t *testing.T) {
	m, _ := newTestModel(t, daily("read", "Read", 0))

	tests := []struct {
		state State
		want  string
	}{
		{StateToday, "0/1 done"},
		{StateRoutines, "No routines"},
		{StateCalendar, "October 2026"},
		{StateStats, "Longest"},
	}
	for _, tt := range tests {
		m.state = tt.state
		view := m.View()
		if !strings.Contains(view, tt.want) {
			t.Errorf("state %d: view missing %q", tt.state, tt.want)
		}
		for _, name := range tabNames {
			if !strings.Contains(view, name) {
				t.Errorf("state %d: tab %q not rendered", tt.state, name)
			}
		}
	}
}

func TestRenderGridMarksSelectedDay(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var cells []aggregate.Cell
	for _, d := range calendar.DatesInRange(start, calendar.EndOfMonth(start)) {
		cells = append(cells, aggregate.Cell{Date: d})
	}

	grid := renderGrid(cells, testNow, testNow)
	lines := strings.Split(grid, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header plus 5 weeks, got %d lines", len(lines))
	}
	if strings.Count(grid, "[") != 1 {
		t.Errorf("expected exactly one selected marker:\n%s", grid)
	}
}
