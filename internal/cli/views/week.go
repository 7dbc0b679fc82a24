package views

import (
	"fmt"
	"strings"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/recurrence"
	"github.com/julianstephens/atoms/internal/storage"
)

type WeekCmd struct {
	Date string `help:"Any date in the week to show (YYYY-MM-DD)." default:"today"`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ParseDate(c.Date)
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

	week := aggregate.WeekSummary(habits, l, date)
	fmt.Printf("Week of %s\n\n", week[0].Date.Format("Jan 2 2006"))

	var header strings.Builder
	fmt.Fprintf(&header, "%-24s", "")
	for _, day := range week {
		fmt.Fprintf(&header, " %s", day.Date.Format("Mon")[:2])
	}
	fmt.Println(header.String())

	for _, h := range habits {
		var row strings.Builder
		fmt.Fprintf(&row, "%-24s", truncate(h.Name, 24))
		for _, day := range week {
			switch {
			case !recurrence.IsApplicable(h.Recurrence, day.Date):
				row.WriteString("  ·")
			case l.IsCompleted(h.ID, day.Date):
				row.WriteString("  ✓")
			default:
				row.WriteString("  ○")
			}
		}
		fmt.Println(row.String())
	}

	var totals strings.Builder
	fmt.Fprintf(&totals, "%-24s", "")
	for _, day := range week {
		fmt.Fprintf(&totals, " %s", heatCell(aggregate.Intensity(day.CompletedCount, day.TotalCount), day.TotalCount > 0))
	}
	fmt.Println()
	fmt.Println(totals.String())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
