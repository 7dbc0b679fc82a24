package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
)

const routineColumns = "id, name, habit_ids, sort_order, created_at"

func scanRoutine(row scanner) (models.Routine, error) {
	var r models.Routine
	var habitIDs, createdAt string

	if err := row.Scan(&r.ID, &r.Name, &habitIDs, &r.Order, &createdAt); err != nil {
		return models.Routine{}, err
	}
	if err := json.Unmarshal([]byte(habitIDs), &r.HabitIDs); err != nil {
		return models.Routine{}, fmt.Errorf("failed to decode habit_ids for routine %s: %w", r.ID, err)
	}
	if r.HabitIDs == nil {
		r.HabitIDs = []string{}
	}

	var err error
	r.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Routine{}, fmt.Errorf("failed to parse created_at for routine %s: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) AddRoutine(r models.Routine) error {
	return s.UpdateRoutine(r)
}

func (s *Store) GetRoutine(id string) (models.Routine, error) {
	if err := s.ready(); err != nil {
		return models.Routine{}, err
	}
	r, err := scanRoutine(s.queryRow("SELECT "+routineColumns+" FROM routines WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Routine{}, fmt.Errorf("routine %q: %w", id, storage.ErrNotFound)
	}
	return r, err
}

func (s *Store) GetRoutineByName(name string) (models.Routine, error) {
	if err := s.ready(); err != nil {
		return models.Routine{}, err
	}
	r, err := scanRoutine(s.queryRow("SELECT "+routineColumns+" FROM routines WHERE LOWER(name) = LOWER(?)", name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Routine{}, fmt.Errorf("routine %q: %w", name, storage.ErrNotFound)
	}
	return r, err
}

func (s *Store) GetAllRoutines() ([]models.Routine, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.query("SELECT " + routineColumns + " FROM routines ORDER BY sort_order, created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines := []models.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func (s *Store) UpdateRoutine(r models.Routine) error {
	if err := s.ready(); err != nil {
		return err
	}

	ids := r.HabitIDs
	if ids == nil {
		ids = []string{}
	}
	habitIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode habit_ids: %w", err)
	}

	_, err = s.exec(`
		INSERT INTO routines (`+routineColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			habit_ids = excluded.habit_ids,
			sort_order = excluded.sort_order`,
		r.ID, r.Name, string(habitIDs), r.Order, formatTime(r.CreatedAt))
	return err
}

func (s *Store) DeleteRoutine(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := requireOne(s.exec("DELETE FROM routines WHERE id = ?", id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("routine %q: %w", id, err)
	}
	return err
}
