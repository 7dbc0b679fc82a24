// Package storage defines the habit and completion store contract shared by
// the sqlite, postgres and JSON backends.
package storage

import (
	"errors"
	"fmt"

	"github.com/julianstephens/atoms/internal/ledger"
	"github.com/julianstephens/atoms/internal/models"
)

var (
	// ErrNotFound is returned when a habit, routine or settings row is missing.
	ErrNotFound = errors.New("not found")
	// ErrNotLoaded is returned when a store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded, run 'atoms init' first")
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(name string) (models.Habit, error)
	GetAllHabits(includeArchived, includeDeleted bool) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	ArchiveHabit(id string) error
	UnarchiveHabit(id string) error
	DeleteHabit(id string) error
	RestoreHabit(id string) error

	// Routines
	AddRoutine(models.Routine) error
	GetRoutine(id string) (models.Routine, error)
	GetRoutineByName(name string) (models.Routine, error)
	GetAllRoutines() ([]models.Routine, error)
	UpdateRoutine(models.Routine) error
	DeleteRoutine(id string) error

	// Completions
	// SetCompletion records completed for (habitID, day). Setting the same
	// value twice is a no-op; a false value is kept as a tombstone so the
	// newest write wins when merged with another store.
	SetCompletion(habitID, day string, completed bool) error
	GetCompletions(startDay, endDay string) ([]models.CompletionRecord, error)
	GetAllCompletions() ([]models.CompletionRecord, error)

	// Utils
	GetConfigPath() string
}

// LoadLedger builds a ledger snapshot from every stored completion.
func LoadLedger(p Provider) (*ledger.Ledger, error) {
	records, err := p.GetAllCompletions()
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	return ledger.FromRecords(records), nil
}

// ActiveHabits returns habits that are neither archived nor deleted, in
// display order.
func ActiveHabits(p Provider) ([]models.Habit, error) {
	habits, err := p.GetAllHabits(false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	return habits, nil
}
