package models

import (
	"time"

	"github.com/julianstephens/atoms/internal/constants"
)

// PendingChange is a local mutation waiting to be pushed to the remote store
type PendingChange struct {
	ID        int64                  `json:"id"`
	Kind      constants.ChangeKind   `json:"kind"`
	HabitID   string                 `json:"habit_id"`
	Day       string                 `json:"day,omitempty"` // YYYY-MM-DD format, set_completion only
	Completed bool                   `json:"completed"`
	Habit     *Habit                 `json:"habit,omitempty"` // upsert_habit only
	Status    constants.ChangeStatus `json:"status"`
	Attempts  int                    `json:"attempts"`
	LastError string                 `json:"last_error,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Key identifies the entity a change touches; newer changes with the same key
// supersede queued ones.
func (c PendingChange) Key() string {
	if c.Kind == constants.ChangeSetCompletion {
		return c.HabitID + "|" + c.Day
	}
	return c.HabitID
}
