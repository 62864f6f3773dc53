package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/server/api"
)

const (
	// maxMessageSize bounds one incoming landmark message.
	maxMessageSize = 64 * 1024
	writeWait      = 5 * time.Second
	// liveBuffer is the number of updates a slow live viewer may lag behind.
	liveBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Messages sent on the session socket besides plain snapshots.
type startedMessage struct {
	Type      string `json:"type"`
	WorkoutID string `json:"workout_id"`
	Exercise  string `json:"exercise"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// liveMessage is sent on the live socket for every hub update.
type liveMessage struct {
	WorkoutID string `json:"workout_id"`
	Exercise  string `json:"exercise"`
	coach.Snapshot
}

// SessionHandler runs one workout per websocket connection. The client sends
// landmark messages (JSON text or msgpack binary) and receives a snapshot per
// message. Closing the connection finishes the workout.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a new SessionHandler for a.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workout, err := h.app.StartWorkout(r.URL.Query().Get("exercise"))
	if err != nil {
		if errors.Is(err, coach.ErrUnsupportedExercise) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "Failed to start workout")
		return
	}
	defer func() {
		if _, err := workout.Finish(); err != nil {
			log.Printf("failed to finish workout %s: %v", workout.ID(), err)
		}
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	if err := writeJSON(conn, startedMessage{Type: "started", WorkoutID: workout.ID(), Exercise: workout.Exercise()}); err != nil {
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		msg, err := decodeMessage(mt, data)
		if err != nil {
			log.Printf("workout %s: %v", workout.ID(), err)
			if err := writeJSON(conn, errorMessage{Type: "error", Error: err.Error()}); err != nil {
				return
			}
			continue
		}

		var snap coach.Snapshot
		switch msg.Type {
		case pose.MessageReset:
			workout.Reset()
			snap = workout.Session().Snapshot()
		case pose.MessageFrame:
			snap = workout.Feed(msg.Landmarks)
		default:
			if err := writeJSON(conn, errorMessage{Type: "error", Error: "unknown message type: " + msg.Type}); err != nil {
				return
			}
			continue
		}

		if err := writeJSON(conn, snap); err != nil {
			return
		}
	}
}

func decodeMessage(mt int, data []byte) (*pose.Message, error) {
	switch mt {
	case websocket.TextMessage:
		return pose.DecodeJSON(data)
	case websocket.BinaryMessage:
		return pose.DecodeMsgpack(data)
	default:
		return nil, pose.ErrMalformedFrame
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// LiveHandler streams every workout's snapshots to read-only viewers.
type LiveHandler struct {
	hub *broadcast.Hub
}

// NewLiveHandler creates a new LiveHandler over hub.
func NewLiveHandler(hub *broadcast.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.New().String()
	updates, err := h.hub.Subscribe(id, liveBuffer)
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return
	}

	// Viewers send nothing; reading detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.hub.Unsubscribe(id)
				return
			}
		}
	}()

	for u := range updates {
		if err := writeJSON(conn, liveMessage{WorkoutID: u.WorkoutID, Exercise: u.Exercise, Snapshot: u.Snapshot}); err != nil {
			h.hub.Unsubscribe(id)
			return
		}
	}
}
