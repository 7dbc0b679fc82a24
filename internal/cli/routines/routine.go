package routines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/atoms/internal/aggregate"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/validation"
)

type RoutineCmd struct {
	Add    RoutineAddCmd    `cmd:"" help:"Add a routine grouping existing habits."`
	List   RoutineListCmd   `cmd:"" help:"List routines with today's progress."`
	Show   RoutineShowCmd   `cmd:"" help:"Show a routine's habits for a date."`
	Delete RoutineDeleteCmd `cmd:"" help:"Delete a routine (habits are kept)."`
}

type RoutineAddCmd struct {
	Name   string   `arg:"" help:"Routine name."`
	Habits []string `arg:"" help:"Habit names or IDs, in order."`
}

func (c *RoutineAddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Store.GetRoutineByName(c.Name); err == nil {
		return fmt.Errorf("routine with name %q already exists", c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	ids := make([]string, 0, len(c.Habits))
	for _, ref := range c.Habits {
		h, err := ctx.ResolveHabit(ref)
		if err != nil {
			return err
		}
		ids = append(ids, h.ID)
	}

	now, err := ctx.Now()
	if err != nil {
		return err
	}
	existing, err := ctx.Store.GetAllRoutines()
	if err != nil {
		return err
	}
	routine := models.Routine{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(c.Name),
		HabitIDs:  ids,
		Order:     len(existing),
		CreatedAt: now,
	}
	if err := validation.Routine(routine); err != nil {
		return fmt.Errorf("invalid routine: %w", err)
	}
	if err := ctx.Store.AddRoutine(routine); err != nil {
		return err
	}
	fmt.Printf("Added routine: %s (%d habits)\n", routine.Name, len(ids))
	return nil
}

type RoutineListCmd struct{}

func (c *RoutineListCmd) Run(ctx *cli.Context) error {
	routines, err := ctx.Store.GetAllRoutines()
	if err != nil {
		return err
	}
	if len(routines) == 0 {
		fmt.Println("No routines found.")
		return nil
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

	for _, r := range routines {
		res := aggregate.RoutineSummary(habits, l, today, r.HabitIDs)
		fmt.Printf("%-24s %d/%d today\n", r.Name, len(res.Completed), len(res.Applicable))
	}
	return nil
}

type RoutineShowCmd struct {
	Routine string `arg:"" help:"Routine name or ID."`
	Date    string `help:"Date (YYYY-MM-DD)." default:"today"`
}

func (c *RoutineShowCmd) Run(ctx *cli.Context) error {
	r, err := ctx.ResolveRoutine(c.Routine)
	if err != nil {
		return err
	}
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

	res := aggregate.RoutineSummary(habits, l, date, r.HabitIDs)
	fmt.Printf("%s  %d/%d done on %s\n\n", r.Name, len(res.Completed), len(res.Applicable), date.Format("Mon Jan 2"))
	if len(res.Applicable) == 0 {
		fmt.Println("Nothing scheduled.")
		return nil
	}
	for _, h := range res.Applicable {
		mark := "[ ]"
		if l.IsCompleted(h.ID, date) {
			mark = "[x]"
		}
		fmt.Printf("%s %s\n", mark, h.Name)
	}
	return nil
}

type RoutineDeleteCmd struct {
	Routine string `arg:"" help:"Routine name or ID."`
}

func (c *RoutineDeleteCmd) Run(ctx *cli.Context) error {
	r, err := ctx.ResolveRoutine(c.Routine)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteRoutine(r.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted routine: %s\n", r.Name)
	return nil
}
