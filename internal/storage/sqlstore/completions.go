package sqlstore

import (
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
)

func (s *Store) SetCompletion(habitID, day string, completed bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.exec(`
		INSERT INTO completions (habit_id, day, completed, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		habitID, day, completed, s.stamp())
	return err
}

// MergeCompletion applies rec only if it is at least as new as the stored
// row, so replays and out-of-order pushes keep the newest write.
func (s *Store) MergeCompletion(rec models.CompletionRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	_, err := s.exec(`
		INSERT INTO completions (habit_id, day, completed, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			updated_at = excluded.updated_at
		WHERE completions.updated_at <= excluded.updated_at`,
		rec.HabitID, rec.Day, rec.Completed, updatedAt.UTC().Format(constants.TimestampFormat))
	return err
}

// GetCompletions returns records with startDay <= day <= endDay. An empty
// bound is open.
func (s *Store) GetCompletions(startDay, endDay string) ([]models.CompletionRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := "SELECT habit_id, day, completed, updated_at FROM completions WHERE 1=1"
	var args []any
	if startDay != "" {
		query += " AND day >= ?"
		args = append(args, startDay)
	}
	if endDay != "" {
		query += " AND day <= ?"
		args = append(args, endDay)
	}
	query += " ORDER BY day, habit_id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.CompletionRecord{}
	for rows.Next() {
		var rec models.CompletionRecord
		var updatedAt string
		if err := rows.Scan(&rec.HabitID, &rec.Day, &rec.Completed, &updatedAt); err != nil {
			return nil, err
		}
		rec.UpdatedAt, err = time.Parse(constants.TimestampFormat, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at for %s/%s: %w", rec.HabitID, rec.Day, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) GetAllCompletions() ([]models.CompletionRecord, error) {
	return s.GetCompletions("", "")
}
