package models

import (
	"encoding/json"
	"time"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID           string     `json:"id" validate:"required"`
	Name         string     `json:"name" validate:"required,max=100"`
	Icon         string     `json:"icon,omitempty"`
	Action       string     `json:"action,omitempty"`
	TimeLocation string     `json:"time_location,omitempty"`
	Identity     string     `json:"identity,omitempty"`
	Recurrence   Recurrence `json:"-"`
	Order        int        `json:"order" validate:"gte=0"`
	GoalAmount   int        `json:"goal_amount" validate:"gte=1"`
	GoalUnit     string     `json:"goal_unit,omitempty"`
	HabitTime    string     `json:"habit_time,omitempty" validate:"omitempty,datetime=15:04"` // HH:MM format
	SendReminder bool       `json:"send_reminder"`
	CreatedAt    time.Time  `json:"created_at" validate:"required"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsActive reports whether the habit is neither archived nor deleted.
func (h Habit) IsActive() bool {
	return h.ArchivedAt == nil && h.DeletedAt == nil
}

type habitJSON struct {
	habitAlias
	Recurrence RecurrenceSpec `json:"recurrence"`
}

type habitAlias Habit

func (h Habit) MarshalJSON() ([]byte, error) {
	return json.Marshal(habitJSON{
		habitAlias: habitAlias(h),
		Recurrence: EncodeRecurrence(h.Recurrence),
	})
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	var raw habitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rule, err := DecodeRecurrence(raw.Recurrence)
	if err != nil {
		return err
	}
	*h = Habit(raw.habitAlias)
	h.Recurrence = rule
	return nil
}

// Routine groups habits that are done together, e.g. a morning routine
type Routine struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=100"`
	HabitIDs  []string  `json:"habit_ids" validate:"dive,required"`
	Order     int       `json:"order" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletionRecord is one persisted (day, habit) ledger entry
type CompletionRecord struct {
	Day       string    `json:"date" yaml:"date"` // YYYY-MM-DD format
	HabitID   string    `json:"habit_id" yaml:"habit_id"`
	Completed bool      `json:"completed" yaml:"completed"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
