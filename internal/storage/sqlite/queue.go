package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
)

const changeColumns = `id, kind, habit_id, day, completed, habit_json,
	status, attempts, last_error, created_at, updated_at`

func scanChange(row interface{ Scan(...any) error }) (models.PendingChange, error) {
	var c models.PendingChange
	var kind, status, habitJSON, createdAt, updatedAt string

	err := row.Scan(&c.ID, &kind, &c.HabitID, &c.Day, &c.Completed, &habitJSON,
		&status, &c.Attempts, &c.LastError, &createdAt, &updatedAt)
	if err != nil {
		return models.PendingChange{}, err
	}
	c.Kind = constants.ChangeKind(kind)
	c.Status = constants.ChangeStatus(status)

	if habitJSON != "" {
		var h models.Habit
		if err := json.Unmarshal([]byte(habitJSON), &h); err != nil {
			return models.PendingChange{}, fmt.Errorf("failed to decode habit for change %d: %w", c.ID, err)
		}
		c.Habit = &h
	}
	if c.CreatedAt, err = time.Parse(constants.TimestampFormat, createdAt); err != nil {
		return models.PendingChange{}, fmt.Errorf("failed to parse created_at for change %d: %w", c.ID, err)
	}
	if c.UpdatedAt, err = time.Parse(constants.TimestampFormat, updatedAt); err != nil {
		return models.PendingChange{}, fmt.Errorf("failed to parse updated_at for change %d: %w", c.ID, err)
	}
	return c, nil
}

// PutChange queues c, dropping any queued change with the same key first so
// only the newest write for an entity is pushed.
func (s *Store) PutChange(c models.PendingChange) error {
	db := s.DB()
	if db == nil {
		return storage.ErrNotLoaded
	}

	var habitJSON string
	if c.Habit != nil {
		data, err := json.Marshal(c.Habit)
		if err != nil {
			return fmt.Errorf("failed to encode habit: %w", err)
		}
		habitJSON = string(data)
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pending_changes WHERE change_key = ?", c.Key()); err != nil {
		return fmt.Errorf("failed to coalesce change: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO pending_changes (change_key, kind, habit_id, day, completed, habit_json, status, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
		c.Key(), string(c.Kind), c.HabitID, c.Day, c.Completed, habitJSON,
		string(constants.ChangePending),
		c.CreatedAt.UTC().Format(constants.TimestampFormat), now.Format(constants.TimestampFormat))
	if err != nil {
		return fmt.Errorf("failed to queue change: %w", err)
	}

	return tx.Commit()
}

func (s *Store) HasChange(key string) (bool, error) {
	db := s.DB()
	if db == nil {
		return false, storage.ErrNotLoaded
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM pending_changes WHERE change_key = ?", key).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountChanges() (pending, failed int, err error) {
	db := s.DB()
	if db == nil {
		return 0, 0, storage.ErrNotLoaded
	}
	rows, err := db.Query("SELECT status, COUNT(*) FROM pending_changes GROUP BY status")
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch constants.ChangeStatus(status) {
		case constants.ChangePending:
			pending = n
		case constants.ChangeFailed:
			failed = n
		}
	}
	return pending, failed, rows.Err()
}

// NextChanges returns up to limit pending changes with id > afterID, oldest
// first.
func (s *Store) NextChanges(afterID int64, limit int) ([]models.PendingChange, error) {
	return s.listChanges(
		"SELECT "+changeColumns+" FROM pending_changes WHERE status = ? AND id > ? ORDER BY id LIMIT ?",
		string(constants.ChangePending), afterID, limit)
}

// ListChanges returns every queued change, pending and failed.
func (s *Store) ListChanges() ([]models.PendingChange, error) {
	return s.listChanges("SELECT " + changeColumns + " FROM pending_changes ORDER BY id")
}

func (s *Store) listChanges(query string, args ...any) ([]models.PendingChange, error) {
	db := s.DB()
	if db == nil {
		return nil, storage.ErrNotLoaded
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []models.PendingChange{}
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// UpdateChange persists status, attempts and last_error for c.
func (s *Store) UpdateChange(c models.PendingChange) error {
	db := s.DB()
	if db == nil {
		return storage.ErrNotLoaded
	}
	result, err := db.Exec(`
		UPDATE pending_changes SET status = ?, attempts = ?, last_error = ?, updated_at = ?
		WHERE id = ?`,
		string(c.Status), c.Attempts, c.LastError, time.Now().UTC().Format(constants.TimestampFormat), c.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("change %d: %w", c.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteChange(id int64) error {
	db := s.DB()
	if db == nil {
		return storage.ErrNotLoaded
	}
	_, err := db.Exec("DELETE FROM pending_changes WHERE id = ?", id)
	return err
}

// ResetFailedChanges returns failed changes to the pending state with a
// fresh attempt budget.
func (s *Store) ResetFailedChanges() (int, error) {
	db := s.DB()
	if db == nil {
		return 0, storage.ErrNotLoaded
	}
	result, err := db.Exec(`
		UPDATE pending_changes SET status = ?, attempts = 0, updated_at = ?
		WHERE status = ?`,
		string(constants.ChangePending), time.Now().UTC().Format(constants.TimestampFormat), string(constants.ChangeFailed))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
