package exports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
)

func setupContext(t *testing.T, syncEnabled bool) (*cli.Context, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "atoms.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	settings := models.DefaultSettings()
	settings.SyncEnabled = syncEnabled
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	return &cli.Context{
		Store: store,
		Clock: calendar.FixedClock{T: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
	}, store
}

func TestExportImportRoundTrip(t *testing.T) {
	src, srcStore := setupContext(t, false)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := srcStore.AddHabit(models.Habit{ID: "run", Name: "Run", Recurrence: models.Weekly{Day: 1}, GoalAmount: 1, CreatedAt: created}); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	if err := srcStore.SetCompletion("run", "2026-10-12", true); err != nil {
		t.Fatalf("failed to set completion: %v", err)
	}

	out := filepath.Join(t.TempDir(), "export.yaml")
	if err := (&ExportCmd{Out: out}).Run(src); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected export mode 0600, got %v", info.Mode().Perm())
	}

	dst, dstStore := setupContext(t, true)
	if err := (&ImportCmd{File: out}).Run(dst); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	h, err := dstStore.GetHabit("run")
	if err != nil {
		t.Fatalf("habit not imported: %v", err)
	}
	if w, ok := h.Recurrence.(models.Weekly); !ok || w.Day != 1 {
		t.Errorf("expected weekly Monday recurrence, got %#v", h.Recurrence)
	}
	records, err := dstStore.GetAllCompletions()
	if err != nil {
		t.Fatalf("failed to get completions: %v", err)
	}
	if len(records) != 1 || records[0].Day != "2026-10-12" {
		t.Errorf("unexpected completions: %+v", records)
	}

	// One habit upsert plus one completion queued for sync.
	pending, _, err := dstStore.CountChanges()
	if err != nil {
		t.Fatalf("CountChanges() error = %v", err)
	}
	if pending != 2 {
		t.Errorf("expected 2 queued changes, got %d", pending)
	}
}

func TestImportRejectsBadFile(t *testing.T) {
	ctx, store := setupContext(t, false)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("version: 99\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := (&ImportCmd{File: bad}).Run(ctx); err == nil {
		t.Fatal("expected error for unsupported version")
	}

	habits, err := store.GetAllHabits(true, true)
	if err != nil {
		t.Fatalf("failed to get habits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected no habits after failed import, got %d", len(habits))
	}
}
