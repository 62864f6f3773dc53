package store

import (
	"database/sql"
	"encoding/json"
)

// FrameRepository keeps the raw landmark frames of a workout for replay.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append adds frames after the workout's existing ones in a single transaction.
func (r *FrameRepository) Append(workoutID string, frames []json.RawMessage) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(sequence) + 1, 0) FROM workout_frames WHERE workout_id = ?`,
		workoutID,
	).Scan(&next); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO workout_frames (workout_id, sequence, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range frames {
		if _, err := stmt.Exec(workoutID, next+i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByWorkout returns the workout's frames in sequence order.
func (r *FrameRepository) ListByWorkout(workoutID string) ([]json.RawMessage, error) {
	rows, err := r.db.Query(
		`SELECT data FROM workout_frames WHERE workout_id = ? ORDER BY sequence`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		frames = append(frames, json.RawMessage(data))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Count returns how many frames the workout has.
func (r *FrameRepository) Count(workoutID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM workout_frames WHERE workout_id = ?`, workoutID).Scan(&n)
	return n, err
}
