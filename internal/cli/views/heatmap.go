package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/storage"
)

var heatStyles = map[int]lipgloss.Style{
	constants.HeatFull:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	constants.HeatHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
	constants.HeatMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	constants.HeatLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	constants.HeatNone:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
}

// heatCell renders one day as a colored block. Days with nothing scheduled
// are blank.
func heatCell(intensity int, scheduled bool) string {
	if !scheduled {
		return "  "
	}
	return heatStyles[intensity].Render("██")
}

type HeatmapCmd struct {
	Month string `help:"Month to show (YYYY-MM); defaults to the current month."`
	From  string `help:"Range start (YYYY-MM-DD)."`
	To    string `help:"Range end (YYYY-MM-DD)."`
}

func (c *HeatmapCmd) Run(ctx *cli.Context) error {
	if c.Month != "" && (c.From != "" || c.To != "") {
		return fmt.Errorf("--month cannot be combined with --from/--to")
	}
	if (c.From == "") != (c.To == "") {
		return fmt.Errorf("--from and --to must be given together")
	}

	today, err := ctx.Today()
	if err != nil {
		return err
	}
	habits, err := storage.ActiveHabits(ctx.Store)
	if err != nil {
		return err
	}
	l, err := storage.LoadLedger(ctx.Store)
	if err != nil {
		return err
	}

	var cells []aggregate.Cell
	var title string
	switch {
	case c.From != "":
		start, err := calendar.ParseInLocation(c.From, today.Location())
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		end, err := calendar.ParseInLocation(c.To, today.Location())
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("--to (%s) is before --from (%s)", c.To, c.From)
		}
		if n := calendar.DaysBetween(start, end) + 1; n > constants.MaxHeatmapDays {
			return fmt.Errorf("range too large: %d days (max %d)", n, constants.MaxHeatmapDays)
		}
		cells = aggregate.RangeHeatmap(habits, l, start, end)
		title = fmt.Sprintf("%s to %s", c.From, c.To)
	default:
		month := today
		if c.Month != "" {
			m, err := time.ParseInLocation(constants.MonthFormat, c.Month, today.Location())
			if err != nil {
				return fmt.Errorf("invalid --month %q (expected YYYY-MM)", c.Month)
			}
			month = m
		}
		cells = aggregate.MonthHeatmap(habits, l, month)
		title = month.Format("January 2006")
	}

	fmt.Println(title)
	fmt.Println()
	fmt.Println(renderGrid(cells, today))
	fmt.Println()
	fmt.Printf("less %s%s%s%s%s more\n",
		heatCell(constants.HeatNone, true), heatCell(constants.HeatLow, true),
		heatCell(constants.HeatMedium, true), heatCell(constants.HeatHigh, true),
		heatCell(constants.HeatFull, true))
	return nil
}

// renderGrid lays cells out as Sunday-started week rows. Future days are
// left blank.
func renderGrid(cells []aggregate.Cell, today time.Time) string {
	if len(cells) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" Su Mo Tu We Th Fr Sa\n")
	b.WriteString(strings.Repeat("   ", calendar.DayOfWeek(cells[0].Date)))
	for _, cell := range cells {
		scheduled := cell.TotalCount > 0 && !calendar.IsFuture(cell.Date, today)
		b.WriteString(" ")
		b.WriteString(heatCell(cell.Intensity, scheduled))
		if calendar.DayOfWeek(cell.Date) == int(time.Saturday) {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
