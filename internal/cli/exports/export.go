package exports

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/transfer"
)

type ExportCmd struct {
	Out string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	now, err := ctx.Now()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Out != "" {
		f, err := os.OpenFile(c.Out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := transfer.Export(ctx.Store, w, now); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if c.Out != "" {
		fmt.Printf("✓ Exported to %s\n", c.Out)
	}
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"YAML file produced by 'atoms export'." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	doc, err := transfer.Decode(f)
	if err != nil {
		return err
	}
	now, err := ctx.Now()
	if err != nil {
		return err
	}

	sum, err := transfer.Import(ctx.Store, doc, now)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	for _, h := range sum.Imported {
		ctx.QueueHabit(h.ID)
	}
	for _, rec := range doc.Completions {
		ctx.QueueCompletion(rec.HabitID, rec.Day, rec.Completed)
	}

	fmt.Printf("✓ Imported %d habits, %d routines, %d completions\n", sum.Habits, sum.Routines, sum.Completions)
	return nil
}
