package habits

import (
	"fmt"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/recurrence"
)

type MarkCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
	Undo  bool   `help:"Clear the completion instead of setting it."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if !habit.IsActive() {
		return fmt.Errorf("habit %q is archived", habit.Name)
	}

	date, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	now, err := ctx.Now()
	if err != nil {
		return err
	}
	if calendar.IsFuture(date, now) {
		return fmt.Errorf("cannot mark %s: date is in the future", calendar.Format(date))
	}

	if err := ctx.SetCompletion(habit.ID, date, !c.Undo); err != nil {
		return err
	}

	day := calendar.Format(date)
	if c.Undo {
		fmt.Printf("Unmarked %q for %s\n", habit.Name, day)
		return nil
	}
	fmt.Printf("Marked %q for %s\n", habit.Name, day)
	if !recurrence.IsApplicable(habit.Recurrence, date) {
		fmt.Printf("Note: %q is not scheduled on %s; this completion will not count toward streaks.\n", habit.Name, day)
	}
	return nil
}
