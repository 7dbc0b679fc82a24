// Package jsonfile is a single-file JSON backend. Completions are kept as a
// nested day -> habit -> true map; a missing entry means not completed.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
)

const documentVersion = 1

type document struct {
	Version     int                        `json:"version"`
	Settings    models.Settings            `json:"settings"`
	Habits      map[string]models.Habit    `json:"habits"`
	Routines    map[string]models.Routine  `json:"routines"`
	Completions map[string]map[string]bool `json:"completions"`
}

type Store struct {
	mu   sync.Mutex
	path string
	doc  *document
	now  func() time.Time
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		return s.load()
	}

	s.doc = &document{
		Version:     documentVersion,
		Settings:    models.DefaultSettings(),
		Habits:      make(map[string]models.Habit),
		Routines:    make(map[string]models.Routine),
		Completions: make(map[string]map[string]bool),
	}
	return s.save()
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		return nil
	}
	return s.load()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotLoaded
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > documentVersion {
		return fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade atoms", doc.Version, documentVersion)
	}
	if doc.Habits == nil {
		doc.Habits = make(map[string]models.Habit)
	}
	if doc.Routines == nil {
		doc.Routines = make(map[string]models.Routine)
	}
	if doc.Completions == nil {
		doc.Completions = make(map[string]map[string]bool)
	}
	s.doc = doc
	return nil
}

func (s *Store) Close() error {
	return nil
}

// save writes through a temp file so a crash never leaves a torn document.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// locked runs fn with the store loaded and the mutex held.
func (s *Store) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return storage.ErrNotLoaded
	}
	return fn()
}

func (s *Store) GetSettings() (models.Settings, error) {
	var out models.Settings
	err := s.locked(func() error {
		out = s.doc.Settings
		return nil
	})
	return out, err
}

func (s *Store) SaveSettings(settings models.Settings) error {
	return s.locked(func() error {
		s.doc.Settings = settings
		return s.save()
	})
}

func (s *Store) AddHabit(h models.Habit) error {
	return s.UpdateHabit(h)
}

func (s *Store) UpdateHabit(h models.Habit) error {
	return s.locked(func() error {
		s.doc.Habits[h.ID] = h
		return s.save()
	})
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	var out models.Habit
	err := s.locked(func() error {
		h, ok := s.doc.Habits[id]
		if !ok || h.DeletedAt != nil {
			return fmt.Errorf("habit %q: %w", id, storage.ErrNotFound)
		}
		out = h
		return nil
	})
	return out, err
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	var out models.Habit
	err := s.locked(func() error {
		for _, h := range s.doc.Habits {
			if h.DeletedAt == nil && strings.EqualFold(h.Name, name) {
				out = h
				return nil
			}
		}
		return fmt.Errorf("habit %q: %w", name, storage.ErrNotFound)
	})
	return out, err
}

func (s *Store) GetAllHabits(includeArchived, includeDeleted bool) ([]models.Habit, error) {
	habits := []models.Habit{}
	err := s.locked(func() error {
		for _, h := range s.doc.Habits {
			if h.DeletedAt != nil && !includeDeleted {
				continue
			}
			if h.ArchivedAt != nil && !includeArchived {
				continue
			}
			habits = append(habits, h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(habits, func(i, j int) bool {
		a, b := habits[i], habits[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return habits, nil
}

// mutateHabit applies fn to the stored habit, failing with msg when ok
// reports the habit is not in the required state.
func (s *Store) mutateHabit(id, msg string, ok func(models.Habit) bool, fn func(*models.Habit)) error {
	return s.locked(func() error {
		h, found := s.doc.Habits[id]
		if !found || !ok(h) {
			return fmt.Errorf("%s: %w", msg, storage.ErrNotFound)
		}
		fn(&h)
		s.doc.Habits[id] = h
		return s.save()
	})
}

func (s *Store) ArchiveHabit(id string) error {
	return s.mutateHabit(id, "habit not found or already archived/deleted",
		func(h models.Habit) bool { return h.DeletedAt == nil && h.ArchivedAt == nil },
		func(h *models.Habit) { now := s.now(); h.ArchivedAt = &now })
}

func (s *Store) UnarchiveHabit(id string) error {
	return s.mutateHabit(id, "habit not found or not archived",
		func(h models.Habit) bool { return h.DeletedAt == nil && h.ArchivedAt != nil },
		func(h *models.Habit) { h.ArchivedAt = nil })
}

func (s *Store) DeleteHabit(id string) error {
	return s.mutateHabit(id, "habit not found or already deleted",
		func(h models.Habit) bool { return h.DeletedAt == nil },
		func(h *models.Habit) { now := s.now(); h.DeletedAt = &now })
}

func (s *Store) RestoreHabit(id string) error {
	return s.mutateHabit(id, "habit not found or not deleted",
		func(h models.Habit) bool { return h.DeletedAt != nil },
		func(h *models.Habit) { h.DeletedAt = nil })
}

func (s *Store) AddRoutine(r models.Routine) error {
	return s.UpdateRoutine(r)
}

func (s *Store) UpdateRoutine(r models.Routine) error {
	return s.locked(func() error {
		if r.HabitIDs == nil {
			r.HabitIDs = []string{}
		}
		s.doc.Routines[r.ID] = r
		return s.save()
	})
}

func (s *Store) GetRoutine(id string) (models.Routine, error) {
	var out models.Routine
	err := s.locked(func() error {
		r, ok := s.doc.Routines[id]
		if !ok {
			return fmt.Errorf("routine %q: %w", id, storage.ErrNotFound)
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) GetRoutineByName(name string) (models.Routine, error) {
	var out models.Routine
	err := s.locked(func() error {
		for _, r := range s.doc.Routines {
			if strings.EqualFold(r.Name, name) {
				out = r
				return nil
			}
		}
		return fmt.Errorf("routine %q: %w", name, storage.ErrNotFound)
	})
	return out, err
}

func (s *Store) GetAllRoutines() ([]models.Routine, error) {
	routines := []models.Routine{}
	err := s.locked(func() error {
		for _, r := range s.doc.Routines {
			routines = append(routines, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(routines, func(i, j int) bool {
		a, b := routines[i], routines[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	return routines, nil
}

func (s *Store) DeleteRoutine(id string) error {
	return s.locked(func() error {
		if _, ok := s.doc.Routines[id]; !ok {
			return fmt.Errorf("routine %q: %w", id, storage.ErrNotFound)
		}
		delete(s.doc.Routines, id)
		return s.save()
	})
}

func (s *Store) SetCompletion(habitID, day string, completed bool) error {
	return s.locked(func() error {
		if completed {
			if s.doc.Completions[day] == nil {
				s.doc.Completions[day] = make(map[string]bool)
			}
			if s.doc.Completions[day][habitID] {
				return nil
			}
			s.doc.Completions[day][habitID] = true
		} else {
			habits, ok := s.doc.Completions[day]
			if !ok || !habits[habitID] {
				return nil
			}
			delete(habits, habitID)
			if len(habits) == 0 {
				delete(s.doc.Completions, day)
			}
		}
		return s.save()
	})
}

// GetCompletions returns the true entries with startDay <= day <= endDay.
// An empty bound is open. The nested map keeps no timestamps.
func (s *Store) GetCompletions(startDay, endDay string) ([]models.CompletionRecord, error) {
	records := []models.CompletionRecord{}
	err := s.locked(func() error {
		for day, habits := range s.doc.Completions {
			if startDay != "" && day < startDay {
				continue
			}
			if endDay != "" && day > endDay {
				continue
			}
			for id, done := range habits {
				if done {
					records = append(records, models.CompletionRecord{Day: day, HabitID: id, Completed: true})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Day != records[j].Day {
			return records[i].Day < records[j].Day
		}
		return records[i].HabitID < records[j].HabitID
	})
	return records, nil
}

func (s *Store) GetAllCompletions() ([]models.CompletionRecord, error) {
	return s.GetCompletions("", "")
}

func (s *Store) GetConfigPath() string {
	return s.path
}
