package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/atoms/internal/backup"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/logger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
	"github.com/julianstephens/atoms/internal/streak"
	"github.com/julianstephens/atoms/internal/syncer"
)

type Context struct {
	Store storage.Provider
	// Clock overrides the clock built from the timezone setting.
	Clock calendar.Clock
	// OpenRemote opens the remote store; nil disables syncing.
	OpenRemote func() (storage.Provider, error)

	settings *models.Settings
}

// Settings returns the persisted settings, read once per command.
func (c *Context) Settings() (models.Settings, error) {
	if c.settings != nil {
		return *c.settings, nil
	}
	s, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	c.settings = &s
	return s, nil
}

// SaveSettings persists s and refreshes the cached copy.
func (c *Context) SaveSettings(s models.Settings) error {
	if err := c.Store.SaveSettings(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	c.settings = &s
	return nil
}

// Now returns the current instant in the configured timezone.
func (c *Context) Now() (time.Time, error) {
	if c.Clock != nil {
		return c.Clock.Now(), nil
	}
	s, err := c.Settings()
	if err != nil {
		return time.Time{}, err
	}
	clock, err := calendar.NewClock(s.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	c.Clock = clock
	return clock.Now(), nil
}

// Today is local midnight of Now.
func (c *Context) Today() (time.Time, error) {
	now, err := c.Now()
	if err != nil {
		return time.Time{}, err
	}
	return calendar.Midnight(now), nil
}

// ParseDate resolves "", "today" and "yesterday" relative to Today, and
// otherwise parses YYYY-MM-DD in the configured timezone.
func (c *Context) ParseDate(s string) (time.Time, error) {
	today, err := c.Today()
	if err != nil {
		return time.Time{}, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return calendar.AddDays(today, -1), nil
	}
	return calendar.ParseInLocation(s, today.Location())
}

// Calculator builds a streak calculator bounded by the tracking epoch.
func (c *Context) Calculator() (streak.Calculator, error) {
	s, err := c.Settings()
	if err != nil {
		return streak.Calculator{}, err
	}
	today, err := c.Today()
	if err != nil {
		return streak.Calculator{}, err
	}
	epoch, err := s.Epoch(today.Location())
	if err != nil {
		return streak.Calculator{}, fmt.Errorf("invalid tracking epoch: %w", err)
	}
	return streak.New(epoch), nil
}

// ResolveHabit finds a non-deleted habit by name (case-insensitive) or id.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	h, err := c.Store.GetHabitByName(ref)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}
	h, err = c.Store.GetHabit(ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	}
	return h, err
}

// ResolveRoutine finds a routine by name (case-insensitive) or id.
func (c *Context) ResolveRoutine(ref string) (models.Routine, error) {
	r, err := c.Store.GetRoutineByName(ref)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Routine{}, err
	}
	r, err = c.Store.GetRoutine(ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Routine{}, fmt.Errorf("routine %q not found", ref)
	}
	return r, err
}

// Syncer returns a syncer over the local queue, or nil when the store has no
// queue. The remote is attached only when withRemote is set; the returned
// close func releases it.
func (c *Context) Syncer(withRemote bool) (*syncer.Syncer, func(), error) {
	queue, ok := c.Store.(syncer.Queue)
	if !ok {
		return nil, func() {}, nil
	}
	s, err := c.Settings()
	if err != nil {
		return nil, nil, err
	}
	opts := syncer.OptionsFromSettings(s, filepath.Dir(c.Store.GetConfigPath()))

	if !withRemote || c.OpenRemote == nil {
		return syncer.New(queue, nil, opts), func() {}, nil
	}
	remote, err := c.OpenRemote()
	if err != nil {
		return nil, nil, err
	}
	return syncer.New(queue, remote, opts), func() { remote.Close() }, nil
}

// enqueue queues a change when sync is enabled. Queue problems are logged
// and reported but never undo the local write.
func (c *Context) enqueue(fn func(*syncer.Syncer) error) {
	s, err := c.Settings()
	if err != nil {
		logger.Warn("failed to read sync settings", "error", err)
		return
	}
	if !s.SyncEnabled {
		return
	}
	sy, done, err := c.Syncer(false)
	if err != nil {
		logger.Warn("failed to open sync queue", "error", err)
		return
	}
	if sy == nil {
		return
	}
	defer done()
	if err := fn(sy); err != nil {
		logger.Warn("failed to queue change for sync", "error", err)
		if errors.Is(err, syncer.ErrQueueFull) {
			fmt.Fprintln(os.Stderr, "Warning: sync queue is full; run 'atoms sync run' to push pending changes.")
		}
	}
}

// SetCompletion writes the ledger entry locally and queues it for sync.
func (c *Context) SetCompletion(habitID string, date time.Time, completed bool) error {
	day := calendar.Format(date)
	if err := c.Store.SetCompletion(habitID, day, completed); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	c.enqueue(func(s *syncer.Syncer) error { return s.EnqueueCompletion(habitID, day, completed) })
	return nil
}

// QueueCompletion queues a ledger entry that was already written locally.
func (c *Context) QueueCompletion(habitID, day string, completed bool) {
	c.enqueue(func(s *syncer.Syncer) error { return s.EnqueueCompletion(habitID, day, completed) })
}

// SaveHabit upserts h locally and queues it for sync.
func (c *Context) SaveHabit(h models.Habit) error {
	if err := c.Store.UpdateHabit(h); err != nil {
		return fmt.Errorf("failed to save habit: %w", err)
	}
	c.enqueue(func(s *syncer.Syncer) error { return s.EnqueueHabit(h) })
	return nil
}

// QueueHabit queues the current stored state of habit id for sync.
func (c *Context) QueueHabit(id string) {
	habits, err := c.Store.GetAllHabits(true, true)
	if err != nil {
		return
	}
	for _, h := range habits {
		if h.ID == id {
			c.enqueue(func(s *syncer.Syncer) error { return s.EnqueueHabit(h) })
			return
		}
	}
}

// DeleteHabit soft-deletes habit id locally and queues the delete.
func (c *Context) DeleteHabit(id string) error {
	if err := c.Store.DeleteHabit(id); err != nil {
		return err
	}
	c.enqueue(func(s *syncer.Syncer) error { return s.EnqueueHabitDelete(id) })
	return nil
}

// PerformAutomaticBackup snapshots a sqlite store and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts a day name, a three-letter abbreviation or 0..6
// (0 = Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseRecurrence builds a rule from command-line style inputs. day is
// required for weekly and biweekly rules; ref defaults to the week of
// today for biweekly ones.
func ParseRecurrence(kind, day, ref string, today time.Time) (models.Recurrence, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "daily":
		return models.Daily{}, nil
	case "monthly":
		return models.Monthly{}, nil
	case "weekly", "biweekly":
	default:
		return nil, fmt.Errorf("invalid recurrence %q (expected daily, weekly, biweekly or monthly)", kind)
	}

	if day == "" {
		return nil, fmt.Errorf("%s recurrence requires a day", kind)
	}
	wd, err := ParseWeekday(day)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(kind, "weekly") {
		return models.NewWeekly(int(wd))
	}

	reference := today
	if ref != "" {
		if reference, err = calendar.ParseInLocation(ref, today.Location()); err != nil {
			return nil, err
		}
	}
	return models.NewBiweekly(int(wd), reference)
}
