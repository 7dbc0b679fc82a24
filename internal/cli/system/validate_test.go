package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage/jsonfile"
)

func TestValidateCmd_FixDropsMissingRefs(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "atoms.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	ctx := &cli.Context{Store: store}

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.AddHabit(models.Habit{ID: "run", Name: "Run", Recurrence: models.Daily{}, GoalAmount: 1, CreatedAt: created}); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	if err := store.AddRoutine(models.Routine{ID: "am", Name: "Morning", HabitIDs: []string{"run", "gone"}, CreatedAt: created}); err != nil {
		t.Fatalf("failed to add routine: %v", err)
	}

	if err := (&ValidateCmd{}).Run(ctx); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	r, err := store.GetRoutine("am")
	if err != nil {
		t.Fatalf("failed to get routine: %v", err)
	}
	if len(r.HabitIDs) != 2 {
		t.Fatalf("validate without --fix changed the routine: %v", r.HabitIDs)
	}

	if err := (&ValidateCmd{Fix: true}).Run(ctx); err != nil {
		t.Fatalf("validate --fix failed: %v", err)
	}
	r, err = store.GetRoutine("am")
	if err != nil {
		t.Fatalf("failed to get routine: %v", err)
	}
	if len(r.HabitIDs) != 1 || r.HabitIDs[0] != "run" {
		t.Errorf("expected only 'run' to remain, got %v", r.HabitIDs)
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _ := setupTestDoctorDB(t)
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Errorf("migrate on up-to-date database failed: %v", err)
	}

	store := jsonfile.New(filepath.Join(t.TempDir(), "atoms.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := (&MigrateCmd{}).Run(&cli.Context{Store: store}); err == nil {
		t.Error("expected migrate to reject the JSON store")
	}
}
