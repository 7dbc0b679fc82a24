package system

import (
	"fmt"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Remove references to missing habits from routines."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	habits, err := ctx.Store.GetAllHabits(true, true)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	routines, err := ctx.Store.GetAllRoutines()
	if err != nil {
		return fmt.Errorf("failed to load routines: %w", err)
	}

	fmt.Println("Validating habits, routines and settings...")
	result := validation.New().Validate(habits, routines, &settings)

	fmt.Println()
	fmt.Println(result.FormatReport())

	if !cmd.Fix || !result.HasConflicts() {
		return nil
	}

	actions := validation.AutoFixMissingRefs(result.Conflicts, routines, ctx.Store.UpdateRoutine)
	if len(actions) == 0 {
		fmt.Println("\nNothing to fix automatically.")
		return nil
	}
	fmt.Println("\nApplied fixes:")
	for _, a := range actions {
		fmt.Printf("- %s\n", a.Action)
	}
	return nil
}
