package store

import (
	"database/sql"
	"errors"
	"time"
)

// WorkoutStatus is the lifecycle state of a workout.
type WorkoutStatus string

const (
	WorkoutActive   WorkoutStatus = "active"
	WorkoutFinished WorkoutStatus = "finished"
)

// Workout is one exercise session.
type Workout struct {
	ID        string        `json:"id"`
	Exercise  string        `json:"exercise"`
	Status    WorkoutStatus `json:"status"`
	Reps      int           `json:"reps"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

// WorkoutRepository provides CRUD operations for workouts.
type WorkoutRepository struct {
	db *sql.DB
}

// Workouts returns the workout repository for this store.
func (s *Store) Workouts() *WorkoutRepository {
	return &WorkoutRepository{db: s.db}
}

// Create inserts a new active workout.
func (r *WorkoutRepository) Create(w *Workout) error {
	if w.StartedAt.IsZero() {
		w.StartedAt = time.Now()
	}
	if w.Status == "" {
		w.Status = WorkoutActive
	}

	_, err := r.db.Exec(
		`INSERT INTO workouts (id, exercise, status, reps, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.Exercise, string(w.Status), w.Reps, w.StartedAt,
	)
	return err
}

const workoutColumns = `id, exercise, status, reps, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*Workout, error) {
	w := &Workout{}
	var status string
	var ended sql.NullTime

	if err := row.Scan(&w.ID, &w.Exercise, &status, &w.Reps, &w.StartedAt, &ended); err != nil {
		return nil, err
	}

	w.Status = WorkoutStatus(status)
	if ended.Valid {
		t := ended.Time
		w.EndedAt = &t
	}
	return w, nil
}

// GetByID retrieves a workout by its ID.
func (r *WorkoutRepository) GetByID(id string) (*Workout, error) {
	w, err := scanWorkout(r.db.QueryRow(
		`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List retrieves all workouts, newest first.
func (r *WorkoutRepository) List() ([]*Workout, error) {
	rows, err := r.db.Query(`SELECT ` + workoutColumns + ` FROM workouts ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}

// UpdateReps records the running rep count of an active workout.
func (r *WorkoutRepository) UpdateReps(id string, reps int) error {
	result, err := r.db.Exec(`UPDATE workouts SET reps = ? WHERE id = ?`, reps, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Finish marks a workout finished with its final rep count.
func (r *WorkoutRepository) Finish(id string, reps int) error {
	result, err := r.db.Exec(
		`UPDATE workouts SET status = ?, reps = ?, ended_at = ? WHERE id = ?`,
		string(WorkoutFinished), reps, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a workout and, by cascade, its reps and frames.
func (r *WorkoutRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
