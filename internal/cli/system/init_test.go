package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage/jsonfile"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store}, dbPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath := setupTestInitDB(t)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("init command failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := setupTestInitDB(t)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := ctx.Store.SetCompletion("h1", "2026-10-01", true); err != nil {
		t.Fatalf("failed to set completion: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}

	records, err := ctx.Store.GetAllCompletions()
	if err != nil {
		t.Fatalf("failed to get completions: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected re-init to keep data, got %d completions", len(records))
	}
}

func TestInitCmd_Force(t *testing.T) {
	ctx, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := ctx.Store.SetCompletion("h1", "2026-10-01", true); err != nil {
		t.Fatalf("failed to set completion: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	records, err := ctx.Store.GetAllCompletions()
	if err != nil {
		t.Fatalf("failed to get completions: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty store after --force, got %d completions", len(records))
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, dbPath := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	cmd := &InitCmd{Force: true, Source: dbPath}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected error when source and destination are the same")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database should survive rejected --force: %v", err)
	}
}

func TestInitCmd_MigratesFromSource(t *testing.T) {
	sourcePath := filepath.Join(t.TempDir(), "atoms.json")
	source := jsonfile.New(sourcePath)
	if err := source.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}

	settings := models.DefaultSettings()
	settings.RateWindowDays = 7
	if err := source.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []models.Habit{
		{ID: "run", Name: "Run", Recurrence: models.Daily{}, GoalAmount: 1, CreatedAt: created},
		{ID: "old", Name: "Old", Recurrence: models.Monthly{}, GoalAmount: 1, CreatedAt: created},
	} {
		if err := source.AddHabit(h); err != nil {
			t.Fatalf("failed to add habit: %v", err)
		}
	}
	if err := source.DeleteHabit("old"); err != nil {
		t.Fatalf("failed to delete habit: %v", err)
	}
	if err := source.AddRoutine(models.Routine{ID: "am", Name: "Morning", HabitIDs: []string{"run"}, CreatedAt: created}); err != nil {
		t.Fatalf("failed to add routine: %v", err)
	}
	if err := source.SetCompletion("run", "2026-10-01", true); err != nil {
		t.Fatalf("failed to set completion: %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	ctx, _ := setupTestInitDB(t)
	if err := (&InitCmd{Source: sourcePath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if got.RateWindowDays != 7 {
		t.Errorf("expected migrated rate window 7, got %d", got.RateWindowDays)
	}

	habits, err := ctx.Store.GetAllHabits(true, true)
	if err != nil {
		t.Fatalf("failed to get habits: %v", err)
	}
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits (deleted included), got %d", len(habits))
	}
	active, err := ctx.Store.GetAllHabits(false, false)
	if err != nil {
		t.Fatalf("failed to get habits: %v", err)
	}
	if len(active) != 1 || active[0].ID != "run" {
		t.Errorf("expected only 'run' to be active, got %+v", active)
	}

	r, err := ctx.Store.GetRoutine("am")
	if err != nil {
		t.Fatalf("routine not migrated: %v", err)
	}
	if len(r.HabitIDs) != 1 || r.HabitIDs[0] != "run" {
		t.Errorf("unexpected routine habits: %v", r.HabitIDs)
	}

	records, err := ctx.Store.GetAllCompletions()
	if err != nil {
		t.Fatalf("failed to get completions: %v", err)
	}
	if len(records) != 1 || records[0].HabitID != "run" || records[0].Day != "2026-10-01" || !records[0].Completed {
		t.Errorf("unexpected migrated completions: %+v", records)
	}
}
