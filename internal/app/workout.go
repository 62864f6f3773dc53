package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/events"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
)

// ErrWorkoutFinished is returned when feeding or finishing a finished workout.
var ErrWorkoutFinished = errors.New("workout already finished")

// Workout is one running exercise session.
type Workout struct {
	app       *App
	id        string
	exercise  string
	startedAt time.Time
	session   *coach.Session

	// feedMu serializes Feed, Reset and Finish.
	feedMu   sync.Mutex
	mu       sync.Mutex
	finished bool
	frames   []json.RawMessage
	pending  sync.WaitGroup
}

// StartWorkout begins a workout for exercise, or the configured exercise when
// empty.
func (a *App) StartWorkout(exercise string) (*Workout, error) {
	cfg := a.config.Session
	if exercise != "" {
		cfg.Exercise = exercise
	}
	if cfg.Exercise == "" {
		cfg.Exercise = coach.ExerciseSquat
	}
	cfg.Speaker = a.speaker

	w := &Workout{
		app:       a,
		id:        uuid.New().String(),
		exercise:  cfg.Exercise,
		startedAt: time.Now().UTC(),
	}
	cfg.OnRep = w.onRep

	session, err := coach.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Exercise, err)
	}
	w.session = session

	if a.config.Store != nil {
		if err := a.config.Store.Workouts().Create(&store.Workout{
			ID:        w.id,
			Exercise:  w.exercise,
			Status:    store.WorkoutActive,
			StartedAt: w.startedAt,
		}); err != nil {
			return nil, fmt.Errorf("failed to create workout: %w", err)
		}
	}

	a.mu.Lock()
	a.workouts[w.id] = w
	a.mu.Unlock()

	a.publishWorkout(events.WorkoutMessage{
		WorkoutID: w.id,
		Exercise:  w.exercise,
		Status:    string(store.WorkoutActive),
		At:        w.startedAt,
	})

	log.Printf("started %s workout %s", w.exercise, w.id)
	return w, nil
}

// ID returns the workout ID.
func (w *Workout) ID() string {
	return w.id
}

// Exercise returns the exercise name.
func (w *Workout) Exercise() string {
	return w.exercise
}

// StartedAt returns when the workout started.
func (w *Workout) StartedAt() time.Time {
	return w.startedAt
}

// Session returns the underlying feedback session.
func (w *Workout) Session() *coach.Session {
	return w.session
}

// Feed processes one frame and returns the resulting snapshot. Frames are
// ignored while the app is paused or after Finish.
func (w *Workout) Feed(f pose.Frame) coach.Snapshot {
	w.feedMu.Lock()
	defer w.feedMu.Unlock()

	w.mu.Lock()
	finished := w.finished
	w.mu.Unlock()

	if finished || !w.app.IsEnabled() {
		return w.session.Snapshot()
	}

	snap := w.session.Update(f)

	if snap.Accepted && w.app.config.RecordFrames && w.app.config.Store != nil {
		w.record(f)
	}

	if hub := w.app.config.Hub; hub != nil {
		hub.Publish(broadcast.Update{WorkoutID: w.id, Exercise: w.exercise, Snapshot: snap})
	}

	return snap
}

// Reset clears the count and feedback without ending the workout.
func (w *Workout) Reset() {
	w.feedMu.Lock()
	defer w.feedMu.Unlock()

	w.session.Reset()
	if hub := w.app.config.Hub; hub != nil {
		hub.Publish(broadcast.Update{WorkoutID: w.id, Exercise: w.exercise, Snapshot: w.session.Snapshot()})
	}
}

func (w *Workout) record(f pose.Frame) {
	data, err := pose.EncodeJSON(&pose.Message{Landmarks: f, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Printf("failed to encode frame of workout %s: %v", w.id, err)
		return
	}

	w.mu.Lock()
	w.frames = append(w.frames, data)
	var batch []json.RawMessage
	if len(w.frames) >= FrameFlushSize {
		batch = w.frames
		w.frames = nil
	}
	w.mu.Unlock()

	w.flush(batch)
}

func (w *Workout) flush(batch []json.RawMessage) {
	if len(batch) == 0 {
		return
	}
	if err := w.app.config.Store.Frames().Append(w.id, batch); err != nil {
		log.Printf("failed to store frames of workout %s: %v", w.id, err)
	}
}

// onRep runs synchronously inside Session.Update on the producer goroutine.
func (w *Workout) onRep(ev coach.RepEvent) {
	log.Printf("workout %s rep %d (depth %.1f): %s", w.id, ev.Number, ev.Depth, ev.Messages)

	if s := w.app.config.Store; s != nil {
		if err := s.Reps().Create(&store.Rep{
			WorkoutID: w.id,
			Number:    ev.Number,
			Depth:     ev.Depth,
			Feedback:  ev.Feedback,
			CreatedAt: ev.At,
		}); err != nil {
			log.Printf("failed to store rep %d of workout %s: %v", ev.Number, w.id, err)
		}
		if err := s.Workouts().UpdateReps(w.id, ev.Number); err != nil {
			log.Printf("failed to update rep count of workout %s: %v", w.id, err)
		}
	}

	msg := events.RepMessage{
		WorkoutID: w.id,
		Exercise:  w.exercise,
		Number:    ev.Number,
		Depth:     ev.Depth,
		Feedback:  ev.Feedback,
		Messages:  ev.Messages,
		At:        ev.At,
	}
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		w.app.publishRep(msg)
	}()
}

// Finish ends the workout, stores its final count and returns the stored
// record (or an unsaved one without a store).
func (w *Workout) Finish() (*store.Workout, error) {
	// An in-flight Feed completes, rep events included, before the
	// workout is marked finished.
	w.feedMu.Lock()
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		w.feedMu.Unlock()
		return nil, ErrWorkoutFinished
	}
	w.finished = true
	batch := w.frames
	w.frames = nil
	w.mu.Unlock()
	w.feedMu.Unlock()

	w.app.remove(w.id)
	w.pending.Wait()

	reps := int(w.session.RepCount())
	ended := time.Now().UTC()
	result := &store.Workout{
		ID:        w.id,
		Exercise:  w.exercise,
		Status:    store.WorkoutFinished,
		Reps:      reps,
		StartedAt: w.startedAt,
		EndedAt:   &ended,
	}

	if s := w.app.config.Store; s != nil {
		w.flush(batch)
		if err := s.Workouts().Finish(w.id, reps); err != nil {
			return nil, fmt.Errorf("failed to finish workout: %w", err)
		}
		stored, err := s.Workouts().GetByID(w.id)
		if err != nil {
			return nil, err
		}
		result = stored
	}

	w.app.publishWorkout(events.WorkoutMessage{
		WorkoutID: w.id,
		Exercise:  w.exercise,
		Status:    string(store.WorkoutFinished),
		Reps:      reps,
		At:        ended,
	})

	log.Printf("finished %s workout %s with %d reps", w.exercise, w.id, reps)
	return result, nil
}
