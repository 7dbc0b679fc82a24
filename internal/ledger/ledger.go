// Package ledger holds the sparse record of which habits were completed on
// which days.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/models"
)

// Lookup is the read side of a ledger as seen by the engine.
type Lookup interface {
	IsCompleted(habitID string, date time.Time) bool
}

// Ledger maps day -> habit id -> completed. Absence means not completed.
// Only true values are stored. All methods are safe for concurrent use and a
// single SetCompletion is atomic with respect to readers.
type Ledger struct {
	mu   sync.RWMutex
	days map[string]map[string]bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{days: make(map[string]map[string]bool)}
}

// FromRecords builds a ledger from persisted records. Records with
// Completed=false are skipped.
func FromRecords(records []models.CompletionRecord) *Ledger {
	l := New()
	for _, r := range records {
		if r.Completed {
			l.setKey(r.HabitID, r.Day, true)
		}
	}
	return l
}

// SetCompletion marks or clears the (habit, date) entry. Repeating the same
// call leaves the ledger unchanged.
func (l *Ledger) SetCompletion(habitID string, date time.Time, completed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setKey(habitID, calendar.Format(date), completed)
}

// SetCompletionKey is SetCompletion for a preformatted YYYY-MM-DD key.
func (l *Ledger) SetCompletionKey(habitID, day string, completed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setKey(habitID, day, completed)
}

func (l *Ledger) setKey(habitID, day string, completed bool) {
	if !completed {
		if habits, ok := l.days[day]; ok {
			delete(habits, habitID)
			if len(habits) == 0 {
				delete(l.days, day)
			}
		}
		return
	}
	habits, ok := l.days[day]
	if !ok {
		habits = make(map[string]bool)
		l.days[day] = habits
	}
	habits[habitID] = true
}

// Toggle flips the entry and returns the new value.
func (l *Ledger) Toggle(habitID string, date time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	day := calendar.Format(date)
	next := !l.days[day][habitID]
	l.setKey(habitID, day, next)
	return next
}

// IsCompleted reports whether habitID is marked on date's calendar day.
func (l *Ledger) IsCompleted(habitID string, date time.Time) bool {
	return l.IsCompletedKey(habitID, calendar.Format(date))
}

// IsCompletedKey is IsCompleted for a preformatted YYYY-MM-DD key.
func (l *Ledger) IsCompletedKey(habitID, day string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.days[day][habitID]
}

// CompletedOn returns the ids of habits marked on date, sorted.
func (l *Ledger) CompletedOn(date time.Time) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	habits := l.days[calendar.Format(date)]
	ids := make([]string, 0, len(habits))
	for id := range habits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns how many days habitID is marked on.
func (l *Ledger) Count(habitID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, habits := range l.days {
		if habits[habitID] {
			n++
		}
	}
	return n
}

// Len returns the total number of stored entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, habits := range l.days {
		n += len(habits)
	}
	return n
}

// Snapshot returns an independent deep copy, suitable for handing to a
// query while the original keeps being mutated.
func (l *Ledger) Snapshot() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := New()
	for day, habits := range l.days {
		inner := make(map[string]bool, len(habits))
		for id, v := range habits {
			inner[id] = v
		}
		cp.days[day] = inner
	}
	return cp
}

// Records flattens the ledger, sorted by day then habit id.
func (l *Ledger) Records() []models.CompletionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := make([]models.CompletionRecord, 0, len(l.days))
	for day, habits := range l.days {
		for id := range habits {
			records = append(records, models.CompletionRecord{Day: day, HabitID: id, Completed: true})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Day != records[j].Day {
			return records[i].Day < records[j].Day
		}
		return records[i].HabitID < records[j].HabitID
	})
	return records
}

// Nested returns the day -> habit -> true representation used by the JSON
// store.
func (l *Ledger) Nested() map[string]map[string]bool {
	return l.Snapshot().days
}

// FromNested builds a ledger from the day -> habit -> bool representation.
func FromNested(days map[string]map[string]bool) *Ledger {
	l := New()
	for day, habits := range days {
		for id, completed := range habits {
			if completed {
				l.setKey(id, day, true)
			}
		}
	}
	return l
}
