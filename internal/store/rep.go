package store

import (
	"database/sql"
	"time"
)

// Rep is one completed repetition of a workout.
type Rep struct {
	ID        int64     `json:"id"`
	WorkoutID string    `json:"workout_id"`
	Number    int       `json:"number"`
	Depth     float64   `json:"depth"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// RepRepository stores completed reps.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Create inserts a rep and sets its ID.
func (r *RepRepository) Create(rp *Rep) error {
	if rp.CreatedAt.IsZero() {
		rp.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO reps (workout_id, number, depth, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rp.WorkoutID, rp.Number, rp.Depth, rp.Feedback, rp.CreatedAt,
	)
	if err != nil {
		return err
	}

	rp.ID, err = result.LastInsertId()
	return err
}

// ListByWorkout retrieves the reps of a workout in order.
func (r *RepRepository) ListByWorkout(workoutID string) ([]Rep, error) {
	rows, err := r.db.Query(
		`SELECT id, workout_id, number, depth, feedback, created_at
		 FROM reps
		 WHERE workout_id = ?
		 ORDER BY number`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []Rep
	for rows.Next() {
		var rp Rep
		if err := rows.Scan(&rp.ID, &rp.WorkoutID, &rp.Number, &rp.Depth, &rp.Feedback, &rp.CreatedAt); err != nil {
			return nil, err
		}
		reps = append(reps, rp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reps, nil
}
