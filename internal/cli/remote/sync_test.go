package remote

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
	"github.com/julianstephens/atoms/internal/syncer"
)

func setupSyncContext(t *testing.T) (*cli.Context, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "atoms.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	settings := models.DefaultSettings()
	settings.SyncEnabled = true
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	ctx := &cli.Context{
		Store: store,
		Clock: calendar.FixedClock{T: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
	}
	return ctx, store
}

func TestSyncRunPushesToRemote(t *testing.T) {
	ctx, store := setupSyncContext(t)

	remotePath := filepath.Join(t.TempDir(), "remote.db")
	remote := sqlite.NewStore(remotePath)
	if err := remote.Init(); err != nil {
		t.Fatalf("failed to init remote: %v", err)
	}
	defer remote.Close()
	// The sync command closes the remote it opens.
	ctx.OpenRemote = func() (storage.Provider, error) {
		r := sqlite.NewStore(remotePath)
		return r, r.Load()
	}

	if err := ctx.SetCompletion("run", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), true); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	pending, _, err := store.CountChanges()
	if err != nil {
		t.Fatalf("CountChanges() error = %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected 1 queued change, got %d", pending)
	}

	if err := (&SyncRunCmd{}).Run(ctx); err != nil {
		t.Fatalf("sync run failed: %v", err)
	}

	records, err := remote.GetAllCompletions()
	if err != nil {
		t.Fatalf("failed to read remote: %v", err)
	}
	if len(records) != 1 || records[0].Day != "2026-10-15" || !records[0].Completed {
		t.Errorf("unexpected remote completions: %+v", records)
	}
	if pending, _, _ := store.CountChanges(); pending != 0 {
		t.Errorf("expected empty queue after sync, got %d", pending)
	}
}

func TestSyncRunWithoutRemote(t *testing.T) {
	ctx, _ := setupSyncContext(t)

	err := (&SyncRunCmd{}).Run(ctx)
	if !errors.Is(err, syncer.ErrNoRemote) {
		t.Errorf("expected ErrNoRemote, got %v", err)
	}
}

func TestSyncStatusAndRetry(t *testing.T) {
	ctx, store := setupSyncContext(t)

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	change := models.PendingChange{
		Kind:      constants.ChangeSetCompletion,
		HabitID:   "run",
		Day:       "2026-10-15",
		Completed: true,
		Status:    constants.ChangePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutChange(change); err != nil {
		t.Fatalf("PutChange() error = %v", err)
	}
	changes, err := store.ListChanges()
	if err != nil || len(changes) != 1 {
		t.Fatalf("ListChanges() = %v, %v", changes, err)
	}
	failed := changes[0]
	failed.Status = constants.ChangeFailed
	failed.Attempts = constants.DefaultSyncMaxAttempts
	failed.LastError = "connection refused"
	if err := store.UpdateChange(failed); err != nil {
		t.Fatalf("UpdateChange() error = %v", err)
	}

	if err := (&SyncStatusCmd{Verbose: true}).Run(ctx); err != nil {
		t.Errorf("sync status failed: %v", err)
	}

	if err := (&SyncRetryCmd{}).Run(ctx); err != nil {
		t.Fatalf("sync retry failed: %v", err)
	}
	pending, failedCount, err := store.CountChanges()
	if err != nil {
		t.Fatalf("CountChanges() error = %v", err)
	}
	if pending != 1 || failedCount != 0 {
		t.Errorf("expected 1 pending and 0 failed after retry, got %d and %d", pending, failedCount)
	}
}
