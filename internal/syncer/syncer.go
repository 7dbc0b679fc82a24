// Package syncer pushes locally recorded changes to the remote store. Changes
// wait in a bounded queue until a drain succeeds, so marking habits never
// blocks on the network.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/logger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
)

var (
	// ErrQueueFull is returned by Enqueue when capacity is reached and the
	// change does not replace a queued one.
	ErrQueueFull = errors.New("sync queue is full")
	// ErrSyncInProgress is returned when another live process holds the lock.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNoRemote is returned by Drain when no remote store is configured.
	ErrNoRemote = errors.New("no remote store configured, run 'atoms remote set-dsn' first")
)

// Queue is the durable pending-change store. The sqlite backend implements it.
type Queue interface {
	PutChange(models.PendingChange) error
	HasChange(key string) (bool, error)
	CountChanges() (pending, failed int, err error)
	NextChanges(afterID int64, limit int) ([]models.PendingChange, error)
	ListChanges() ([]models.PendingChange, error)
	UpdateChange(models.PendingChange) error
	DeleteChange(id int64) error
	ResetFailedChanges() (int, error)
}

// Remote is the subset of storage.Provider a drain writes to.
type Remote interface {
	SetCompletion(habitID, day string, completed bool) error
	UpdateHabit(models.Habit) error
	DeleteHabit(id string) error
}

// merger is implemented by SQL stores that can apply a completion only when
// it is newer than what they hold.
type merger interface {
	MergeCompletion(models.CompletionRecord) error
}

type Options struct {
	Capacity    int
	MaxAttempts int
	// LockDir holds the sync lockfile, normally the config directory.
	LockDir string
}

// OptionsFromSettings derives queue limits from persisted settings.
func OptionsFromSettings(s models.Settings, lockDir string) Options {
	return Options{
		Capacity:    s.SyncQueueCapacity,
		MaxAttempts: s.SyncMaxAttempts,
		LockDir:     lockDir,
	}
}

type Syncer struct {
	queue       Queue
	remote      Remote
	capacity    int
	maxAttempts int
	lockPath    string
	now         func() time.Time
}

// New builds a Syncer. remote may be nil when only enqueueing.
func New(queue Queue, remote Remote, opts Options) *Syncer {
	if opts.Capacity < 1 {
		opts.Capacity = constants.DefaultSyncQueueCapacity
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = constants.DefaultSyncMaxAttempts
	}
	return &Syncer{
		queue:       queue,
		remote:      remote,
		capacity:    opts.Capacity,
		maxAttempts: opts.MaxAttempts,
		lockPath:    filepath.Join(opts.LockDir, constants.SyncLockfileName),
		now:         time.Now,
	}
}

// Enqueue records c for a later drain. A change whose key is already queued
// replaces the older entry and is accepted even when the queue is full.
func (s *Syncer) Enqueue(c models.PendingChange) error {
	queued, err := s.queue.HasChange(c.Key())
	if err != nil {
		return fmt.Errorf("failed to check sync queue: %w", err)
	}
	if !queued {
		pending, failed, err := s.queue.CountChanges()
		if err != nil {
			return fmt.Errorf("failed to count sync queue: %w", err)
		}
		if pending+failed >= s.capacity {
			logger.Warn("sync queue full", "capacity", s.capacity, "kind", c.Kind, "habit_id", c.HabitID)
			return ErrQueueFull
		}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if err := s.queue.PutChange(c); err != nil {
		return fmt.Errorf("failed to enqueue change: %w", err)
	}
	logger.Debug("change queued", "kind", c.Kind, "key", c.Key())
	return nil
}

// EnqueueCompletion queues a set_completion change for (habitID, day).
func (s *Syncer) EnqueueCompletion(habitID, day string, completed bool) error {
	return s.Enqueue(models.PendingChange{
		Kind:      constants.ChangeSetCompletion,
		HabitID:   habitID,
		Day:       day,
		Completed: completed,
	})
}

// EnqueueHabit queues an upsert_habit change carrying h.
func (s *Syncer) EnqueueHabit(h models.Habit) error {
	return s.Enqueue(models.PendingChange{
		Kind:    constants.ChangeUpsertHabit,
		HabitID: h.ID,
		Habit:   &h,
	})
}

// EnqueueHabitDelete queues a delete_habit change.
func (s *Syncer) EnqueueHabitDelete(habitID string) error {
	return s.Enqueue(models.PendingChange{
		Kind:    constants.ChangeDeleteHabit,
		HabitID: habitID,
	})
}

// Result summarizes one drain.
type Result struct {
	Pushed  int
	Retried int
	Failed  int
}

// Drain pushes pending changes to the remote in FIFO order. Each change is
// attempted at most once per drain. A failing change records its error and
// stays pending until it reaches MaxAttempts, then it is marked failed and
// skipped by later drains. The context is checked between changes.
func (s *Syncer) Drain(ctx context.Context) (Result, error) {
	var res Result
	if s.remote == nil {
		return res, ErrNoRemote
	}

	release, err := acquireLock(s.lockPath)
	if err != nil {
		return res, err
	}
	defer release()

	var cursor int64
	for {
		batch, err := s.queue.NextChanges(cursor, constants.SyncDrainBatchSize)
		if err != nil {
			return res, fmt.Errorf("failed to read sync queue: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, c := range batch {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			cursor = c.ID

			if err := s.apply(c); err != nil {
				if err := s.recordFailure(c, err, &res); err != nil {
					return res, err
				}
				continue
			}
			if err := s.queue.DeleteChange(c.ID); err != nil {
				return res, fmt.Errorf("failed to remove pushed change %d: %w", c.ID, err)
			}
			res.Pushed++
		}
	}

	logger.Info("sync drain finished", "pushed", res.Pushed, "retried", res.Retried, "failed", res.Failed)
	return res, nil
}

func (s *Syncer) recordFailure(c models.PendingChange, cause error, res *Result) error {
	c.Attempts++
	c.LastError = cause.Error()
	if c.Attempts >= s.maxAttempts {
		c.Status = constants.ChangeFailed
		res.Failed++
		logger.Error("change failed permanently", "id", c.ID, "key", c.Key(), "attempts", c.Attempts, "error", cause)
	} else {
		res.Retried++
		logger.Warn("change push failed", "id", c.ID, "key", c.Key(), "attempts", c.Attempts, "error", cause)
	}
	if err := s.queue.UpdateChange(c); err != nil {
		return fmt.Errorf("failed to record sync failure for change %d: %w", c.ID, err)
	}
	return nil
}

func (s *Syncer) apply(c models.PendingChange) error {
	switch c.Kind {
	case constants.ChangeSetCompletion:
		if m, ok := s.remote.(merger); ok {
			return m.MergeCompletion(models.CompletionRecord{
				HabitID:   c.HabitID,
				Day:       c.Day,
				Completed: c.Completed,
				UpdatedAt: c.CreatedAt,
			})
		}
		return s.remote.SetCompletion(c.HabitID, c.Day, c.Completed)
	case constants.ChangeUpsertHabit:
		if c.Habit == nil {
			return fmt.Errorf("upsert change for habit %s has no habit", c.HabitID)
		}
		return s.remote.UpdateHabit(*c.Habit)
	case constants.ChangeDeleteHabit:
		err := s.remote.DeleteHabit(c.HabitID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
}

// Retry returns failed changes to the queue with a fresh attempt budget.
func (s *Syncer) Retry() (int, error) {
	n, err := s.queue.ResetFailedChanges()
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed changes: %w", err)
	}
	return n, nil
}

type Status struct {
	Pending  int
	Failed   int
	Capacity int
	Running  bool
	Changes  []models.PendingChange
}

func (s *Syncer) Status() (Status, error) {
	pending, failed, err := s.queue.CountChanges()
	if err != nil {
		return Status{}, fmt.Errorf("failed to count sync queue: %w", err)
	}
	changes, err := s.queue.ListChanges()
	if err != nil {
		return Status{}, fmt.Errorf("failed to list sync queue: %w", err)
	}
	return Status{
		Pending:  pending,
		Failed:   failed,
		Capacity: s.capacity,
		Running:  lockHeld(s.lockPath),
		Changes:  changes,
	}, nil
}
