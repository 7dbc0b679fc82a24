package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/recurrence"
	"github.com/julianstephens/atoms/internal/validation"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateAddHabit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			m.cursor = 0
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state + tabCount - 1) % tabCount
			m.cursor = 0
		case key.Matches(msg, m.keys.PrevDay):
			m.moveDay(-1)
		case key.Matches(msg, m.keys.NextDay):
			m.moveDay(1)
		case key.Matches(msg, m.keys.Today):
			m.date = m.today
			m.clampCursor()
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < m.listLen()-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if m.state == StateToday {
				m.toggleSelected()
			}
		case key.Matches(msg, m.keys.Add):
			m.prevState = m.state
			m.state = StateAddHabit
			m.formError = ""
			m.form = m.newHabitForm()
			return m, m.form.Init()
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.saveHabitForm(*m.formData); err != nil {
			m.formError = err.Error()
		}
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.state = m.prevState
	m.form = nil
	m.formData = nil
}

// moveDay shifts the selected day by n days. Days after today are not
// reachable.
func (m *Model) moveDay(n int) {
	next := calendar.AddDays(m.date, n)
	if calendar.IsFuture(next, m.today) {
		return
	}
	m.date = next
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if n := m.listLen(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) listLen() int {
	switch m.state {
	case StateToday:
		return len(recurrence.FilterApplicable(m.habits, m.date))
	case StateRoutines:
		return len(m.routines)
	case StateStats:
		return len(m.habits)
	}
	return 0
}

// toggleSelected flips the selected habit's completion for the selected day.
func (m *Model) toggleSelected() {
	applicable := recurrence.FilterApplicable(m.habits, m.date)
	if m.cursor >= len(applicable) {
		return
	}
	h := applicable[m.cursor]
	done := !m.ledger.IsCompleted(h.ID, m.date)
	if err := m.ctx.SetCompletion(h.ID, m.date, done); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.ledger.SetCompletion(h.ID, m.date, done)
}

var weekdayOptions = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func (m *Model) newHabitForm() *huh.Form {
	m.formData = &HabitForm{Recurrence: "daily", Day: weekdayOptions[m.today.Weekday()]}
	fd := m.formData
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fd.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					if len([]rune(s)) > constants.MaxHabitNameLen {
						return fmt.Errorf("habit name must be at most %d characters", constants.MaxHabitNameLen)
					}
					return nil
				}),
			huh.NewInput().
				Title("Icon").
				Value(&fd.Icon),
			huh.NewSelect[string]().
				Title("Recurrence").
				Options(huh.NewOptions("daily", "weekly", "biweekly", "monthly")...).
				Value(&fd.Recurrence),
			huh.NewSelect[string]().
				Title("Day").
				Description("For weekly and biweekly habits").
				Options(huh.NewOptions(weekdayOptions...)...).
				Value(&fd.Day),
		),
	).WithTheme(huh.ThemeDracula())
}

// saveHabitForm creates a habit from the submitted form and reloads the
// view.
func (m *Model) saveHabitForm(fd HabitForm) error {
	name := strings.TrimSpace(fd.Name)
	if _, err := m.ctx.Store.GetHabitByName(name); err == nil {
		return fmt.Errorf("habit with name %q already exists", name)
	}

	rule, err := cli.ParseRecurrence(fd.Recurrence, fd.Day, "", m.today)
	if err != nil {
		return err
	}
	now, err := m.ctx.Now()
	if err != nil {
		return err
	}
	existing, err := m.ctx.Store.GetAllHabits(true, false)
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:         uuid.New().String(),
		Name:       name,
		Icon:       strings.TrimSpace(fd.Icon),
		Recurrence: rule,
		Order:      len(existing),
		GoalAmount: 1,
		CreatedAt:  now,
	}
	if err := validation.Habit(habit); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}
	if err := m.ctx.SaveHabit(habit); err != nil {
		return err
	}
	return m.reload()
}
