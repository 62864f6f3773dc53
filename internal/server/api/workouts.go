// Package api provides the HTTP handlers for stored workouts.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
)

// WorkoutHandler handles HTTP requests for workout resources.
type WorkoutHandler struct {
	store *store.Store
}

// NewWorkoutHandler creates a new WorkoutHandler with the given store.
func NewWorkoutHandler(s *store.Store) *WorkoutHandler {
	return &WorkoutHandler{store: s}
}

// ServeHTTP routes requests for these paths:
//
//	/api/workouts
//	/api/workouts/{id}
//	/api/workouts/{id}/reps
//	/api/workouts/{id}/frames
func (h *WorkoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/workouts")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && (parts[1] == "reps" || parts[1] == "frames"):
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if parts[1] == "reps" {
			h.reps(w, r, id)
		} else {
			h.frames(w, r, id)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type workoutResponse struct {
	ID        string `json:"id"`
	Exercise  string `json:"exercise"`
	Status    string `json:"status"`
	Reps      int    `json:"reps"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type listWorkoutsResponse struct {
	Workouts []workoutResponse `json:"workouts"`
}

type repResponse struct {
	Number    int     `json:"number"`
	Depth     float64 `json:"depth"`
	Feedback  string  `json:"feedback"`
	CreatedAt string  `json:"created_at"`
}

type listRepsResponse struct {
	WorkoutID string        `json:"workout_id"`
	Reps      []repResponse `json:"reps"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(wk *store.Workout) workoutResponse {
	resp := workoutResponse{
		ID:        wk.ID,
		Exercise:  wk.Exercise,
		Status:    string(wk.Status),
		Reps:      wk.Reps,
		StartedAt: wk.StartedAt.Format(time.RFC3339),
	}
	if wk.EndedAt != nil {
		resp.EndedAt = wk.EndedAt.Format(time.RFC3339)
		resp.Duration = wk.EndedAt.Sub(wk.StartedAt).Round(time.Second).String()
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// WriteError writes a JSON error response for handlers outside this package.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}

func (h *WorkoutHandler) list(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.store.Workouts().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workouts")
		return
	}

	response := listWorkoutsResponse{
		Workouts: make([]workoutResponse, 0, len(workouts)),
	}
	for _, wk := range workouts {
		response.Workouts = append(response.Workouts, toResponse(wk))
	}

	writeJSON(w, http.StatusOK, response)
}

// lookup writes a 404 or 500 and returns nil when the workout cannot be read.
func (h *WorkoutHandler) lookup(w http.ResponseWriter, id string) *store.Workout {
	wk, err := h.store.Workouts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Workout not found")
			return nil
		}
		writeError(w, http.StatusInternalServerError, "Failed to get workout")
		return nil
	}
	return wk
}

func (h *WorkoutHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if wk := h.lookup(w, id); wk != nil {
		writeJSON(w, http.StatusOK, toResponse(wk))
	}
}

func (h *WorkoutHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Workouts().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Workout not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete workout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkoutHandler) reps(w http.ResponseWriter, r *http.Request, id string) {
	if h.lookup(w, id) == nil {
		return
	}

	reps, err := h.store.Reps().ListByWorkout(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reps")
		return
	}

	response := listRepsResponse{
		WorkoutID: id,
		Reps:      make([]repResponse, 0, len(reps)),
	}
	for _, rp := range reps {
		response.Reps = append(response.Reps, repResponse{
			Number:    rp.Number,
			Depth:     rp.Depth,
			Feedback:  rp.Feedback,
			CreatedAt: rp.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// frames streams the recorded frames as JSON lines, the recording format the
// replay command reads.
func (h *WorkoutHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	if h.lookup(w, id) == nil {
		return
	}

	frames, err := h.store.Frames().ListByWorkout(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.jsonl"`)
	w.WriteHeader(http.StatusOK)
	for _, f := range frames {
		w.Write(f)
		w.Write([]byte("\n"))
	}
}
