package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/validation"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a new habit."`
	List      HabitListCmd      `cmd:"" help:"List habits."`
	Show      HabitShowCmd      `cmd:"" help:"Show a habit and its streaks."`
	Edit      HabitEditCmd      `cmd:"" help:"Edit an existing habit."`
	Archive   HabitArchiveCmd   `cmd:"" help:"Archive a habit."`
	Unarchive HabitUnarchiveCmd `cmd:"" help:"Unarchive a habit."`
	Delete    HabitDeleteCmd    `cmd:"" help:"Delete a habit (soft delete)."`
	Restore   HabitRestoreCmd   `cmd:"" help:"Restore a deleted habit."`
}

type HabitAddCmd struct {
	Name         string `arg:"" help:"Habit name."`
	Recurrence   string `help:"daily, weekly, biweekly or monthly." default:"daily" enum:"daily,weekly,biweekly,monthly"`
	Day          string `help:"Day of week for weekly/biweekly habits (e.g. mon, 1)."`
	Reference    string `help:"Reference date (YYYY-MM-DD) anchoring a biweekly habit; defaults to today."`
	Icon         string `help:"Emoji or short icon."`
	Action       string `help:"Implementation intention: what you will do."`
	TimeLocation string `help:"Implementation intention: when and where."`
	Identity     string `help:"Who you become by doing this."`
	Goal         int    `help:"Goal amount per occurrence." default:"1"`
	Unit         string `help:"Goal unit (pages, minutes, ...)."`
	Time         string `help:"Reminder time (HH:MM)."`
	Remind       bool   `help:"Send a reminder at --time."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Store.GetHabitByName(c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	now, err := ctx.Now()
	if err != nil {
		return err
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}
	rule, err := cli.ParseRecurrence(c.Recurrence, c.Day, c.Reference, today)
	if err != nil {
		return err
	}

	existing, err := ctx.Store.GetAllHabits(true, false)
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(c.Name),
		Icon:         c.Icon,
		Action:       c.Action,
		TimeLocation: c.TimeLocation,
		Identity:     c.Identity,
		Recurrence:   rule,
		Order:        len(existing),
		GoalAmount:   c.Goal,
		GoalUnit:     c.Unit,
		HabitTime:    c.Time,
		SendReminder: c.Remind,
		CreatedAt:    now,
	}
	if err := validation.Habit(habit); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}

	if err := ctx.SaveHabit(habit); err != nil {
		return err
	}
	fmt.Printf("Added habit: %s (%s)\n", habit.Name, habit.Recurrence)
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	Deleted  bool `help:"Include deleted habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(c.Archived, c.Deleted)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, habit := range habits {
		status := ""
		if habit.DeletedAt != nil {
			status = " [DELETED]"
		} else if habit.ArchivedAt != nil {
			status = " [ARCHIVED]"
		}
		icon := habit.Icon
		if icon == "" {
			icon = "•"
		}
		fmt.Printf("%s %-24s %-28s%s\n", icon, habit.Name, habit.Recurrence, status)
	}
	return nil
}

type HabitEditCmd struct {
	Habit        string  `arg:"" help:"Habit name or ID."`
	Name         *string `help:"New name."`
	Recurrence   string  `help:"New recurrence: daily, weekly, biweekly or monthly."`
	Day          string  `help:"Day of week for weekly/biweekly habits."`
	Reference    string  `help:"Reference date for biweekly habits."`
	Icon         *string `help:"New icon."`
	Action       *string `help:"New action."`
	TimeLocation *string `help:"New time/location."`
	Identity     *string `help:"New identity statement."`
	Goal         *int    `help:"New goal amount."`
	Unit         *string `help:"New goal unit."`
	Time         *string `help:"New reminder time (HH:MM), empty to clear."`
	Remind       *bool   `help:"Enable or disable the reminder."`
	Order        *int    `help:"New display position."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if other, err := ctx.Store.GetHabitByName(name); err == nil && other.ID != habit.ID {
			return fmt.Errorf("habit with name %q already exists", name)
		}
		habit.Name = name
	}
	if c.Recurrence != "" || c.Day != "" || c.Reference != "" {
		kind := c.Recurrence
		if kind == "" {
			kind = string(habit.Recurrence.Type())
		}
		today, err := ctx.Today()
		if err != nil {
			return err
		}
		if habit.Recurrence, err = cli.ParseRecurrence(kind, c.Day, c.Reference, today); err != nil {
			return err
		}
	}
	setString(&habit.Icon, c.Icon)
	setString(&habit.Action, c.Action)
	setString(&habit.TimeLocation, c.TimeLocation)
	setString(&habit.Identity, c.Identity)
	setString(&habit.GoalUnit, c.Unit)
	setString(&habit.HabitTime, c.Time)
	if c.Goal != nil {
		habit.GoalAmount = *c.Goal
	}
	if c.Remind != nil {
		habit.SendReminder = *c.Remind
	}
	if c.Order != nil {
		habit.Order = *c.Order
	}

	if err := validation.Habit(habit); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}
	if err := ctx.SaveHabit(habit); err != nil {
		return err
	}
	fmt.Printf("Updated habit: %s\n", habit.Name)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	calc, err := ctx.Calculator()
	if err != nil {
		return err
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}
	l, err := storage.LoadLedger(ctx.Store)
	if err != nil {
		return err
	}
	stats := calc.Stats(habit, l, settings.RateWindowDays, today)

	fmt.Printf("%s %s\n", habit.Icon, habit.Name)
	fmt.Printf("  Recurrence:        %s\n", habit.Recurrence)
	if habit.Action != "" || habit.TimeLocation != "" {
		fmt.Printf("  Intention:         I will %s %s\n", habit.Action, habit.TimeLocation)
	}
	if habit.Identity != "" {
		fmt.Printf("  Identity:          %s\n", habit.Identity)
	}
	fmt.Printf("  Goal:              %d %s\n", habit.GoalAmount, habit.GoalUnit)
	if habit.HabitTime != "" {
		fmt.Printf("  Time:              %s (reminder: %v)\n", habit.HabitTime, habit.SendReminder)
	}
	fmt.Printf("  Created:           %s\n", habit.CreatedAt.In(today.Location()).Format(constants.DateFormat))
	fmt.Println()
	fmt.Printf("  Current streak:    %d\n", stats.CurrentStreak)
	fmt.Printf("  Longest streak:    %d\n", stats.LongestStreak)
	fmt.Printf("  %d-day rate:       %d%%\n", stats.WindowDays, stats.CompletionRate)
	fmt.Printf("  Lifetime rate:     %d%%\n", stats.LifetimeRate)
	fmt.Printf("  Total repetitions: %d\n", stats.TotalRepetitions)
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.ArchiveHabit(habit.ID); err != nil {
		return err
	}
	ctx.QueueHabit(habit.ID)
	fmt.Printf("Archived habit: %s\n", habit.Name)
	return nil
}

type HabitUnarchiveCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitUnarchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.UnarchiveHabit(habit.ID); err != nil {
		return err
	}
	ctx.QueueHabit(habit.ID)
	fmt.Printf("Unarchived habit: %s\n", habit.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.DeleteHabit(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s (use 'atoms habit restore %s' to undo)\n", habit.Name, habit.ID)
	return nil
}

type HabitRestoreCmd struct {
	ID string `arg:"" help:"ID of the deleted habit."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.RestoreHabit(c.ID); err != nil {
		return err
	}
	ctx.QueueHabit(c.ID)
	fmt.Printf("Restored habit: %s\n", c.ID)
	return nil
}
