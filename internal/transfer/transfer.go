// Package transfer moves habits, routines and the completion ledger in and
// out of a store as a portable YAML document.
package transfer

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/validation"
)

type Document struct {
	Version     int                       `yaml:"version"`
	ExportedAt  time.Time                 `yaml:"exported_at"`
	Habits      []Habit                   `yaml:"habits"`
	Routines    []Routine                 `yaml:"routines"`
	Completions []models.CompletionRecord `yaml:"completions"`
}

// Habit is the exported form of models.Habit with its recurrence flattened.
type Habit struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Icon         string                `yaml:"icon,omitempty"`
	Action       string                `yaml:"action,omitempty"`
	TimeLocation string                `yaml:"time_location,omitempty"`
	Identity     string                `yaml:"identity,omitempty"`
	Recurrence   models.RecurrenceSpec `yaml:"recurrence"`
	Order        int                   `yaml:"order"`
	GoalAmount   int                   `yaml:"goal_amount"`
	GoalUnit     string                `yaml:"goal_unit,omitempty"`
	HabitTime    string                `yaml:"habit_time,omitempty"`
	SendReminder bool                  `yaml:"send_reminder,omitempty"`
	CreatedAt    time.Time             `yaml:"created_at"`
	ArchivedAt   *time.Time            `yaml:"archived_at,omitempty"`
}

type Routine struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	HabitIDs []string `yaml:"habit_ids"`
	Order    int      `yaml:"order"`
}

func fromHabit(h models.Habit) Habit {
	return Habit{
		ID:           h.ID,
		Name:         h.Name,
		Icon:         h.Icon,
		Action:       h.Action,
		TimeLocation: h.TimeLocation,
		Identity:     h.Identity,
		Recurrence:   models.EncodeRecurrence(h.Recurrence),
		Order:        h.Order,
		GoalAmount:   h.GoalAmount,
		GoalUnit:     h.GoalUnit,
		HabitTime:    h.HabitTime,
		SendReminder: h.SendReminder,
		CreatedAt:    h.CreatedAt,
		ArchivedAt:   h.ArchivedAt,
	}
}

func (h Habit) toModel() (models.Habit, error) {
	rule, err := models.DecodeRecurrence(h.Recurrence)
	if err != nil {
		return models.Habit{}, err
	}
	return models.Habit{
		ID:           h.ID,
		Name:         h.Name,
		Icon:         h.Icon,
		Action:       h.Action,
		TimeLocation: h.TimeLocation,
		Identity:     h.Identity,
		Recurrence:   rule,
		Order:        h.Order,
		GoalAmount:   h.GoalAmount,
		GoalUnit:     h.GoalUnit,
		HabitTime:    h.HabitTime,
		SendReminder: h.SendReminder,
		CreatedAt:    h.CreatedAt,
		ArchivedAt:   h.ArchivedAt,
	}, nil
}

// Export writes every non-deleted habit, every routine and the completed
// ledger entries of p to w.
func Export(p storage.Provider, w io.Writer, now time.Time) error {
	habits, err := p.GetAllHabits(true, false)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	routines, err := p.GetAllRoutines()
	if err != nil {
		return fmt.Errorf("failed to load routines: %w", err)
	}
	records, err := p.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to load completions: %w", err)
	}

	doc := Document{
		Version:     constants.DefaultExportVersion,
		ExportedAt:  now.UTC().Truncate(time.Second),
		Habits:      make([]Habit, 0, len(habits)),
		Routines:    make([]Routine, 0, len(routines)),
		Completions: []models.CompletionRecord{},
	}
	exported := make(map[string]bool, len(habits))
	for _, h := range habits {
		doc.Habits = append(doc.Habits, fromHabit(h))
		exported[h.ID] = true
	}
	for _, r := range routines {
		doc.Routines = append(doc.Routines, Routine{ID: r.ID, Name: r.Name, HabitIDs: r.HabitIDs, Order: r.Order})
	}
	for _, rec := range records {
		if rec.Completed && exported[rec.HabitID] {
			doc.Completions = append(doc.Completions, rec)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return enc.Close()
}

// Summary counts what an import wrote.
type Summary struct {
	Habits      int
	Routines    int
	Completions int
	// Imported holds the upserted habits so callers can queue them for sync.
	Imported []models.Habit
}

// Decode reads and checks a document without touching any store.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse import file: %w", err)
	}
	if doc.Version < 1 || doc.Version > constants.DefaultExportVersion {
		return Document{}, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	return doc, nil
}

// Import upserts the document's habits and routines into p and replays its
// completions through SetCompletion. Everything is validated before the
// first write, so a bad document leaves p untouched.
func Import(p storage.Provider, doc Document, now time.Time) (Summary, error) {
	var sum Summary

	habits := make([]models.Habit, 0, len(doc.Habits))
	for i, eh := range doc.Habits {
		h, err := eh.toModel()
		if err != nil {
			return sum, fmt.Errorf("habit %d (%s): %w", i+1, eh.Name, err)
		}
		if h.CreatedAt.IsZero() {
			h.CreatedAt = now
		}
		if h.GoalAmount == 0 {
			h.GoalAmount = constants.DefaultGoalAmount
		}
		if err := validation.Habit(h); err != nil {
			return sum, fmt.Errorf("habit %d (%s): %w", i+1, eh.Name, err)
		}
		habits = append(habits, h)
	}

	routines := make([]models.Routine, 0, len(doc.Routines))
	for i, er := range doc.Routines {
		r := models.Routine{ID: er.ID, Name: er.Name, HabitIDs: er.HabitIDs, Order: er.Order, CreatedAt: now}
		if r.HabitIDs == nil {
			r.HabitIDs = []string{}
		}
		if err := validation.Routine(r); err != nil {
			return sum, fmt.Errorf("routine %d (%s): %w", i+1, er.Name, err)
		}
		routines = append(routines, r)
	}

	known, err := knownHabitIDs(p, habits)
	if err != nil {
		return sum, err
	}
	for i, rec := range doc.Completions {
		day, err := calendar.ParseInLocation(rec.Day, now.Location())
		if err != nil {
			return sum, fmt.Errorf("completion %d: %w", i+1, err)
		}
		if calendar.IsFuture(day, now) {
			return sum, fmt.Errorf("completion %d: date %s is in the future", i+1, rec.Day)
		}
		if rec.HabitID == "" {
			return sum, fmt.Errorf("completion %d: missing habit_id", i+1)
		}
		if !known[rec.HabitID] {
			return sum, fmt.Errorf("completion %d: unknown habit %q", i+1, rec.HabitID)
		}
	}

	for _, h := range habits {
		if err := p.UpdateHabit(h); err != nil {
			return sum, fmt.Errorf("failed to import habit %s: %w", h.Name, err)
		}
		sum.Habits++
		sum.Imported = append(sum.Imported, h)
	}
	for _, r := range routines {
		if err := p.UpdateRoutine(r); err != nil {
			return sum, fmt.Errorf("failed to import routine %s: %w", r.Name, err)
		}
		sum.Routines++
	}
	for _, rec := range doc.Completions {
		if err := p.SetCompletion(rec.HabitID, rec.Day, rec.Completed); err != nil {
			return sum, fmt.Errorf("failed to import completion %s/%s: %w", rec.HabitID, rec.Day, err)
		}
		sum.Completions++
	}
	return sum, nil
}

// knownHabitIDs is the set of ids a completion may reference: the habits
// being imported plus every habit already in p, deleted ones included.
func knownHabitIDs(p storage.Provider, imported []models.Habit) (map[string]bool, error) {
	existing, err := p.GetAllHabits(true, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	known := make(map[string]bool, len(existing)+len(imported))
	for _, h := range existing {
		known[h.ID] = true
	}
	for _, h := range imported {
		known[h.ID] = true
	}
	return known, nil
}
