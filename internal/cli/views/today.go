package views

import (
	"fmt"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/recurrence"
	"github.com/julianstephens/atoms/internal/storage"
)

type TodayCmd struct {
	Date string `help:"Date to show (YYYY-MM-DD, today or yesterday)." default:"today"`
	All  bool   `help:"Also list habits not scheduled on this date."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
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
	calc, err := ctx.Calculator()
	if err != nil {
		return err
	}

	summary := aggregate.DailySummary(habits, l, date)
	fmt.Printf("%s  %d/%d done\n\n", date.Format("Monday, Jan 2 2006"), summary.CompletedCount, summary.TotalCount)

	if len(habits) == 0 {
		fmt.Println("No habits yet. Add one with 'atoms habit add <name>'.")
		return nil
	}
	if summary.TotalCount == 0 {
		fmt.Println("Nothing scheduled.")
	}
	for _, h := range summary.Applicable {
		mark := "[ ]"
		if l.IsCompleted(h.ID, date) {
			mark = "[x]"
		}
		streak := calc.CurrentStreak(h, l, date)
		fmt.Printf("%s %s %-24s 🔥 %d\n", mark, iconOr(h.Icon), h.Name, streak)
	}

	if c.All {
		for _, h := range habits {
			if recurrence.IsApplicable(h.Recurrence, date) {
				continue
			}
			next, ok := recurrence.NextApplicable(h.Recurrence, calendar.AddDays(date, 1), 366)
			when := "never"
			if ok {
				when = next.Format(constants.DateFormat)
			}
			fmt.Printf("  - %s %-24s next: %s\n", iconOr(h.Icon), h.Name, when)
		}
	}
	return nil
}

func iconOr(icon string) string {
	if icon == "" {
		return "•"
	}
	return icon
}
