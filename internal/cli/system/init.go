package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing store before initialization."`
	Source string `help:"Source store path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		path := ctx.Store.GetConfigPath()
		if c.Source != "" {
			if same, err := samePath(path, c.Source); err == nil && same {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
			}
		}
		if _, err := os.Stat(path); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing store: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			fmt.Printf("Deleted existing store at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized atoms storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		source, err := cli.OpenStore(c.Source)
		if err != nil {
			return err
		}
		if err := source.Load(); err != nil {
			return fmt.Errorf("failed to load source store: %w", err)
		}
		defer source.Close()

		if err := copyStore(source, ctx.Store); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}

	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// copyStore copies settings, every habit (archived and deleted included),
// routines and ledger entries from src into dst. Existing rows in dst with
// the same ids are overwritten.
func copyStore(src, dst storage.Provider) error {
	fmt.Println("  Migrating settings...")
	settings, err := src.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := dst.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	fmt.Println("  Migrating habits...")
	habits, err := src.GetAllHabits(true, true)
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	for _, h := range habits {
		if err := dst.UpdateHabit(h); err != nil {
			return fmt.Errorf("failed to save habit %s: %w", h.ID, err)
		}
	}
	fmt.Printf("    Migrated %d habits\n", len(habits))

	fmt.Println("  Migrating routines...")
	routines, err := src.GetAllRoutines()
	if err != nil {
		return fmt.Errorf("failed to get routines from source: %w", err)
	}
	for _, r := range routines {
		if err := dst.UpdateRoutine(r); err != nil {
			return fmt.Errorf("failed to save routine %s: %w", r.ID, err)
		}
	}
	fmt.Printf("    Migrated %d routines\n", len(routines))

	fmt.Println("  Migrating completions...")
	records, err := src.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions from source: %w", err)
	}
	for _, rec := range records {
		if err := dst.SetCompletion(rec.HabitID, rec.Day, rec.Completed); err != nil {
			return fmt.Errorf("failed to save completion %s/%s: %w", rec.HabitID, rec.Day, err)
		}
	}
	fmt.Printf("    Migrated %d completions\n", len(records))

	return nil
}
