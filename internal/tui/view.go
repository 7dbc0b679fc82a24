package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/streak"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == StateAddHabit && m.form != nil {
		return docStyle.Render(titleStyle.Render("New Habit") + "\n\n" + m.form.View())
	}

	header := titleStyle.Render(m.date.Format("Monday, Jan 2 2006"))
	if !calendar.IsSameDay(m.date, m.today) {
		header += " " + warningStyle.Render("(viewing past day)")
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateRoutines:
		content = m.viewRoutines()
	case StateCalendar:
		content = m.viewCalendar()
	case StateStats:
		content = m.viewStats()
	}

	parts := []string{m.viewTabs(), "", header, "", content}
	if m.err != nil {
		parts = append(parts, "", dangerStyle.Render("Error: "+m.err.Error()))
	}
	if m.formError != "" {
		parts = append(parts, "", dangerStyle.Render("Could not add habit: "+m.formError))
	}
	parts = append(parts, "", m.help.View(m))
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if State(i) == m.state {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	if len(m.habits) == 0 {
		return mutedStyle.Render("No habits yet. Press 'a' to add one.")
	}
	summary := aggregate.DailySummary(m.habits, m.ledger, m.date)
	if summary.TotalCount == 0 {
		return mutedStyle.Render("Nothing scheduled.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d done\n\n", summary.CompletedCount, summary.TotalCount)
	for i, h := range summary.Applicable {
		mark := "[ ]"
		if m.ledger.IsCompleted(h.ID, m.date) {
			mark = doneStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s %s", mark, iconOr(h.Icon), h.Name)
		line += mutedStyle.Render(fmt.Sprintf("  🔥 %d", m.calc.CurrentStreak(h, m.ledger, m.date)))
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewRoutines() string {
	if len(m.routines) == 0 {
		return mutedStyle.Render("No routines. Create one with 'atoms routine add'.")
	}

	var b strings.Builder
	for i, r := range m.routines {
		res := aggregate.RoutineSummary(m.habits, m.ledger, m.date, r.HabitIDs)
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s  %d/%d\n", prefix, titleStyle.Render(r.Name), len(res.Completed), len(res.Applicable))
		if i != m.cursor {
			continue
		}
		for _, h := range res.Applicable {
			mark := "[ ]"
			if m.ledger.IsCompleted(h.ID, m.date) {
				mark = doneStyle.Render("[x]")
			}
			fmt.Fprintf(&b, "      %s %s %s\n", mark, iconOr(h.Icon), h.Name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewCalendar() string {
	cells := aggregate.MonthHeatmap(m.habits, m.ledger, m.date)
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.date.Format("January 2006")) + "\n")
	b.WriteString(renderGrid(cells, m.today, m.date))
	return b.String()
}

// renderGrid lays cells out Sunday-first, one week per line. The selected
// day is bracketed.
func renderGrid(cells []aggregate.Cell, today, selected time.Time) string {
	if len(cells) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" Su Mo Tu We Th Fr Sa\n")
	b.WriteString(strings.Repeat("   ", calendar.DayOfWeek(cells[0].Date)))
	for _, cell := range cells {
		block := "  "
		if cell.TotalCount > 0 && !calendar.IsFuture(cell.Date, today) {
			block = heatStyles[cell.Intensity].Render("██")
		}
		if calendar.IsSameDay(cell.Date, selected) {
			b.WriteString(selectedStyle.Render("[") + block)
		} else {
			b.WriteString(" " + block)
		}
		if calendar.DayOfWeek(cell.Date) == int(time.Saturday) {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewStats() string {
	if len(m.habits) == 0 {
		return mutedStyle.Render("No habits yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %7s %7s %6s %6s %5s\n", "Habit", "Current", "Longest", fmt.Sprintf("%dd", m.window), "All", "Reps")
	for i, h := range m.habits {
		s := m.statsFor(i)
		line := fmt.Sprintf("%-24s %7d %7d %5d%% %5d%% %5d",
			truncate(iconOr(h.Icon)+" "+h.Name, 24), s.CurrentStreak, s.LongestStreak, s.CompletionRate, s.LifetimeRate, s.TotalRepetitions)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// statsFor is the stats row the Stats tab shows for habit index i.
func (m Model) statsFor(i int) streak.Stats {
	return m.calc.Stats(m.habits[i], m.ledger, m.window, m.date)
}

func iconOr(icon string) string {
	if icon == "" {
		return "•"
	}
	return icon
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
