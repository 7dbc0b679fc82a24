package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
)

const habitColumns = `id, name, icon, action, time_location, identity,
	recurrence_type, recurrence_day, recurrence_reference,
	sort_order, goal_amount, goal_unit, habit_time, send_reminder,
	created_at, archived_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var recType, createdAt string
	var recDay sql.NullInt64
	var recRef, archivedAt, deletedAt sql.NullString

	err := row.Scan(&h.ID, &h.Name, &h.Icon, &h.Action, &h.TimeLocation, &h.Identity,
		&recType, &recDay, &recRef,
		&h.Order, &h.GoalAmount, &h.GoalUnit, &h.HabitTime, &h.SendReminder,
		&createdAt, &archivedAt, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}

	spec := models.RecurrenceSpec{Type: constants.RecurrenceType(recType), ReferenceDate: recRef.String}
	if recDay.Valid {
		day := int(recDay.Int64)
		spec.DayOfWeek = &day
	}
	h.Recurrence, err = models.DecodeRecurrence(spec)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to decode recurrence for habit %s: %w", h.ID, err)
	}

	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	if h.ArchivedAt, err = parseNullTime(archivedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse archived_at for habit %s: %w", h.ID, err)
	}
	if h.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse deleted_at for habit %s: %w", h.ID, err)
	}

	return h, nil
}

func (s *Store) AddHabit(habit models.Habit) error {
	return s.UpdateHabit(habit)
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}

	h, err := scanHabit(s.queryRow(`
		SELECT `+habitColumns+`
		FROM habits WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", id, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}

	h, err := scanHabit(s.queryRow(`
		SELECT `+habitColumns+`
		FROM habits WHERE LOWER(name) = LOWER(?) AND deleted_at IS NULL`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", name, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetAllHabits(includeArchived, includeDeleted bool) ([]models.Habit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := "SELECT " + habitColumns + " FROM habits WHERE 1=1"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	if !includeArchived {
		query += " AND archived_at IS NULL"
	}
	query += " ORDER BY sort_order, created_at, id"

	rows, err := s.query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	if err := s.ready(); err != nil {
		return err
	}

	spec := models.EncodeRecurrence(habit.Recurrence)
	var recDay sql.NullInt64
	if spec.DayOfWeek != nil {
		recDay = sql.NullInt64{Int64: int64(*spec.DayOfWeek), Valid: true}
	}
	var recRef sql.NullString
	if spec.ReferenceDate != "" {
		recRef = sql.NullString{String: spec.ReferenceDate, Valid: true}
	}

	_, err := s.exec(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			action = excluded.action,
			time_location = excluded.time_location,
			identity = excluded.identity,
			recurrence_type = excluded.recurrence_type,
			recurrence_day = excluded.recurrence_day,
			recurrence_reference = excluded.recurrence_reference,
			sort_order = excluded.sort_order,
			goal_amount = excluded.goal_amount,
			goal_unit = excluded.goal_unit,
			habit_time = excluded.habit_time,
			send_reminder = excluded.send_reminder,
			archived_at = excluded.archived_at,
			deleted_at = excluded.deleted_at`,
		habit.ID, habit.Name, habit.Icon, habit.Action, habit.TimeLocation, habit.Identity,
		string(spec.Type), recDay, recRef,
		habit.Order, habit.GoalAmount, habit.GoalUnit, habit.HabitTime, habit.SendReminder,
		formatTime(habit.CreatedAt), nullTime(habit.ArchivedAt), nullTime(habit.DeletedAt))

	return err
}

func (s *Store) ArchiveHabit(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := requireOne(s.exec(`
		UPDATE habits SET archived_at = ? WHERE id = ? AND deleted_at IS NULL AND archived_at IS NULL`,
		formatTime(s.now()), id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit not found or already archived/deleted: %w", err)
	}
	return err
}

func (s *Store) UnarchiveHabit(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := requireOne(s.exec(`
		UPDATE habits SET archived_at = NULL WHERE id = ? AND deleted_at IS NULL AND archived_at IS NOT NULL`,
		id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit not found or not archived: %w", err)
	}
	return err
}

func (s *Store) DeleteHabit(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := requireOne(s.exec(`
		UPDATE habits SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(s.now()), id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit not found or already deleted: %w", err)
	}
	return err
}

func (s *Store) RestoreHabit(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := requireOne(s.exec(`
		UPDATE habits SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`,
		id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit not found or not deleted: %w", err)
	}
	return err
}
