package views

import (
	"fmt"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/streak"
)

type StatsCmd struct {
	Window int    `help:"Completion-rate window in days; defaults to the rate_window_days setting."`
	Date   string `help:"Evaluate as of this date (YYYY-MM-DD)." default:"today"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	window := settings.RateWindowDays
	if c.Window > 0 {
		window = c.Window
	}
	asOf, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	calc, err := ctx.Calculator()
	if err != nil {
		return err
	}
	habits, err := storage.ActiveHabits(ctx.Store)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	l, err := storage.LoadLedger(ctx.Store)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %8s %8s %6s %9s %6s\n", "Habit", "Current", "Longest", fmt.Sprintf("%dd", window), "Lifetime", "Total")
	var all []streak.Stats
	for _, h := range habits {
		s := calc.Stats(h, l, window, asOf)
		all = append(all, s)
		fmt.Printf("%-24s %8d %8d %5d%% %8d%% %6d\n",
			truncate(h.Name, 24), s.CurrentStreak, s.LongestStreak, s.CompletionRate, s.LifetimeRate, s.TotalRepetitions)
	}

	sum := 0
	for _, s := range all {
		sum += s.CompletionRate
	}
	fmt.Printf("\nAverage %d-day rate: %d%%\n", window, streak.Percent(sum, 100*len(all)))
	return nil
}
