package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/logger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/storage/jsonfile"
)

// brokenSettingsStore fails every settings read.
type brokenSettingsStore struct {
	storage.Provider
}

func (brokenSettingsStore) GetSettings() (models.Settings, error) {
	return models.Settings{}, errors.New("settings table unreadable")
}

func TestSetCompletionLogsUnreadableSyncSettings(t *testing.T) {
	dir := t.TempDir()
	if err := logger.Init(logger.Config{ConfigDir: dir}); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	store := jsonfile.New(filepath.Join(dir, "atoms.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	ctx := &Context{
		Store: brokenSettingsStore{store},
		Clock: calendar.FixedClock{T: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
	}

	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if err := ctx.SetCompletion("read", day, true); err != nil {
		t.Fatalf("local write should not fail on a sync problem: %v", err)
	}
	records, err := store.GetCompletions("2026-10-16", "2026-10-16")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !records[0].Completed {
		t.Errorf("completion not written: %+v", records)
	}

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "failed to read sync settings") {
		t.Errorf("queue failure not logged: %q", data)
	}
}
