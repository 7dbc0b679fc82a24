package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitName   ConflictType = "duplicate_habit_name"
	ConflictDuplicateRoutineName ConflictType = "duplicate_routine_name"
	ConflictMissingHabitRef      ConflictType = "missing_habit_reference"
	ConflictInvalidHabit         ConflictType = "invalid_habit"
	ConflictInvalidRoutine       ConflictType = "invalid_routine"
	ConflictUnknownRecurrence    ConflictType = "unknown_recurrence"
	ConflictInvalidSettings      ConflictType = "invalid_settings"
)

// Conflict represents a detected problem in the stored habits, routines or settings
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Names involved
	HabitIDs    []string // IDs of habits involved (for auto-fixing)
	RoutineID   string   // Routine involved, if any
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("tzname", func(fl validator.FieldLevel) bool {
		return calendar.ValidateTimezone(fl.Field().String())
	})
}

// Habit checks a single habit's fields and recurrence rule.
func Habit(h models.Habit) error {
	if err := validate.Struct(h); err != nil {
		return describe(err)
	}
	switch r := h.Recurrence.(type) {
	case nil:
		return errors.New("recurrence is required")
	case models.Unknown:
		return fmt.Errorf("unsupported recurrence %q", r.Tag)
	case models.Weekly:
		if r.Day < 0 || r.Day > 6 {
			return fmt.Errorf("invalid weekday %d", r.Day)
		}
	case models.Biweekly:
		if r.Day < 0 || r.Day > 6 {
			return fmt.Errorf("invalid weekday %d", r.Day)
		}
		if r.Reference.IsZero() {
			return errors.New("biweekly recurrence requires a reference date")
		}
	}
	return nil
}

// Routine checks a routine's fields.
func Routine(r models.Routine) error {
	if err := validate.Struct(r); err != nil {
		return describe(err)
	}
	return nil
}

// Settings checks the settings struct, including the timezone name.
func Settings(s models.Settings) error {
	if err := validate.Struct(s); err != nil {
		return describe(err)
	}
	return nil
}

// describe flattens validator errors into one message naming each field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

// Validator validates the stored data set for conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Validate checks habits, routines and settings together. Deleted habits are
// ignored except as routine targets, where they count as missing.
func (v *Validator) Validate(habits []models.Habit, routines []models.Routine, settings *models.Settings) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	result.Conflicts = append(result.Conflicts, v.ValidateHabits(habits).Conflicts...)
	result.Conflicts = append(result.Conflicts, v.ValidateRoutines(routines, habits).Conflicts...)

	if settings != nil {
		if err := Settings(*settings); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidSettings,
				Description: fmt.Sprintf("Invalid settings: %v", err),
			})
		}
	}
	return result
}

// ValidateHabits checks for duplicate names and invalid habit records
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	nameCount := make(map[string][]string)
	var names []string
	for _, h := range habits {
		if h.DeletedAt != nil || h.Name == "" {
			continue
		}
		key := strings.ToLower(h.Name)
		if _, seen := nameCount[key]; !seen {
			names = append(names, key)
		}
		nameCount[key] = append(nameCount[key], h.ID)
	}
	sort.Strings(names)

	for _, name := range names {
		ids := nameCount[name]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", name, ids),
				Items:       []string{name},
				HabitIDs:    ids,
			})
		}
	}

	for _, h := range habits {
		if h.DeletedAt != nil {
			continue
		}
		if u, ok := h.Recurrence.(models.Unknown); ok {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownRecurrence,
				Description: fmt.Sprintf("Habit %q has unsupported recurrence %q and will never be due", h.Name, u.Tag),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
			continue
		}
		if err := Habit(h); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidHabit,
				Description: fmt.Sprintf("Habit %q is invalid: %v", h.Name, err),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}
	}

	return result
}

// ValidateRoutines checks routine fields, duplicate names and dangling habit references
func (v *Validator) ValidateRoutines(routines []models.Routine, habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	live := make(map[string]bool, len(habits))
	for _, h := range habits {
		if h.DeletedAt == nil {
			live[h.ID] = true
		}
	}

	seen := make(map[string]string)
	for _, r := range routines {
		if err := Routine(r); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidRoutine,
				Description: fmt.Sprintf("Routine %q is invalid: %v", r.Name, err),
				Items:       []string{r.Name},
				RoutineID:   r.ID,
			})
		}

		key := strings.ToLower(r.Name)
		if other, dup := seen[key]; dup {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateRoutineName,
				Description: fmt.Sprintf("Duplicate routine name: %q (IDs: [%s %s])", r.Name, other, r.ID),
				Items:       []string{r.Name},
				RoutineID:   r.ID,
			})
		} else {
			seen[key] = r.ID
		}

		var missing []string
		for _, id := range r.HabitIDs {
			if !live[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingHabitRef,
				Description: fmt.Sprintf("Routine %q references missing habits: %v", r.Name, missing),
				Items:       []string{r.Name},
				HabitIDs:    missing,
				RoutineID:   r.ID,
			})
		}
	}

	return result
}

// AutoFixMissingRefs drops dangling habit ids from routines, saving each
// changed routine through updateFunc.
func AutoFixMissingRefs(conflicts []Conflict, routines []models.Routine, updateFunc func(models.Routine) error) []FixAction {
	actions := []FixAction{}

	byID := make(map[string]models.Routine, len(routines))
	for _, r := range routines {
		byID[r.ID] = r
	}

	for _, conflict := range conflicts {
		if conflict.Type != ConflictMissingHabitRef {
			continue
		}
		r, ok := byID[conflict.RoutineID]
		if !ok {
			continue
		}

		drop := make(map[string]bool, len(conflict.HabitIDs))
		for _, id := range conflict.HabitIDs {
			drop[id] = true
		}
		kept := make([]string, 0, len(r.HabitIDs))
		for _, id := range r.HabitIDs {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		r.HabitIDs = kept

		if err := updateFunc(r); err != nil {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to update routine %q: %v", r.Name, err),
				SourceConflict: conflict,
			})
			continue
		}
		byID[r.ID] = r
		actions = append(actions, FixAction{
			Action:         fmt.Sprintf("Removed %d missing habit(s) from routine %q", len(conflict.HabitIDs), r.Name),
			SourceConflict: conflict,
		})
	}

	return actions
}
