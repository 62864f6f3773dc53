package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Workouts table - one row per exercise session
		`CREATE TABLE IF NOT EXISTS workouts (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('active', 'finished')),
			reps INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,

		// Reps table - one row per completed repetition
		`CREATE TABLE IF NOT EXISTS reps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workout_id TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
			number INTEGER NOT NULL,
			depth REAL NOT NULL,
			feedback TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Workout frames table - raw landmark frames kept for replay
		`CREATE TABLE IF NOT EXISTS workout_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workout_id TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reps_workout_id ON reps(workout_id)`,
		`CREATE INDEX IF NOT EXISTS idx_workout_frames_workout_id ON workout_frames(workout_id, sequence)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
