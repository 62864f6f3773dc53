package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
)

type testEnv struct {
	store *store.Store
	app   *app.App
	hub   *broadcast.Hub
	ts    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	hub := broadcast.NewHub()
	a := app.New(app.Config{
		Store:     s,
		PluginDir: t.TempDir(),
		Hub:       hub,
		Session:   coach.DefaultConfig(),
		Speaker:   coach.SpeakerFunc(func(string) error { return nil }),
	})
	ts := httptest.NewServer(New(Config{Store: s, App: a}))

	t.Cleanup(func() {
		ts.Close()
		a.Close()
		hub.Close()
		s.Close()
	})
	return &testEnv{store: s, app: a, hub: hub, ts: ts}
}

func (e *testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", path, err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) coach.Snapshot {
	t.Helper()
	var snap coach.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return snap
}

func startSession(t *testing.T, e *testEnv) (*websocket.Conn, startedMessage) {
	t.Helper()
	conn := e.dial(t, "/api/session?exercise=squat")

	var started startedMessage
	if err := conn.ReadJSON(&started); err != nil {
		t.Fatalf("reading started message: %v", err)
	}
	if started.Type != "started" || started.WorkoutID == "" || started.Exercise != "squat" {
		t.Fatalf("unexpected started message: %+v", started)
	}
	return conn, started
}

func TestSessionHandler_CountsReps(t *testing.T) {
	e := newTestEnv(t)
	conn, started := startSession(t, e)

	var snaps []coach.Snapshot
	for _, f := range pose.SquatSequence(2, 5) {
		if err := conn.WriteJSON(pose.Message{Landmarks: f}); err != nil {
			t.Fatal(err)
		}
		snaps = append(snaps, readSnapshot(t, conn))
	}

	last := snaps[len(snaps)-1]
	if last.Reps != 2 || last.Feedback != form.MsgGoodForm {
		t.Errorf("final snapshot = %+v", last)
	}

	spoken := 0
	for _, snap := range snaps {
		if snap.Spoken != "" {
			spoken++
		}
	}
	if spoken != 1 {
		t.Errorf("expected one speak instruction, got %d", spoken)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	// Closing the socket finishes the workout.
	deadline := time.Now().Add(5 * time.Second)
	for {
		w, err := e.store.Workouts().GetByID(started.WorkoutID)
		if err == nil && w.Status == store.WorkoutFinished {
			if w.Reps != 2 {
				t.Errorf("stored reps = %d, want 2", w.Reps)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("workout not finished after close: %+v, %v", w, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionHandler_MsgpackAndReset(t *testing.T) {
	e := newTestEnv(t)
	conn, _ := startSession(t, e)
	defer conn.Close()

	for _, f := range pose.SquatSequence(1, 4) {
		data, err := pose.EncodeMsgpack(&pose.Message{Landmarks: f})
		if err != nil {
			t.Fatal(err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			t.Fatal(err)
		}
		readSnapshot(t, conn)
	}

	if err := conn.WriteJSON(pose.Message{Type: pose.MessageReset}); err != nil {
		t.Fatal(err)
	}
	if snap := readSnapshot(t, conn); snap.Reps != 0 || snap.RepCount != 0 || snap.Feedback != "" {
		t.Errorf("snapshot after reset = %+v", snap)
	}
}

func TestSessionHandler_BadMessages(t *testing.T) {
	e := newTestEnv(t)
	conn, _ := startSession(t, e)
	defer conn.Close()

	for _, raw := range []string{`not json`, `{"type":"dance"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
		var msg errorMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "error" || msg.Error == "" {
			t.Errorf("%s: unexpected reply %+v", raw, msg)
		}
	}

	// The session survives bad input.
	if err := conn.WriteJSON(pose.Message{Landmarks: pose.Standing()}); err != nil {
		t.Fatal(err)
	}
	if snap := readSnapshot(t, conn); !snap.Accepted {
		t.Errorf("expected frame to be accepted after bad messages: %+v", snap)
	}
}

func TestSessionHandler_UnsupportedExercise(t *testing.T) {
	e := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/api/session?exercise=pushup"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %v", http.StatusBadRequest, resp)
	}
}

func TestLiveHandler(t *testing.T) {
	e := newTestEnv(t)

	live := e.dial(t, "/api/live")
	defer live.Close()

	// Wait for the viewer to subscribe before producing updates.
	deadline := time.Now().Add(5 * time.Second)
	for e.hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("live viewer never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn, started := startSession(t, e)
	defer conn.Close()

	frames := pose.SquatSequence(1, 4)
	for _, f := range frames {
		conn.WriteJSON(pose.Message{Landmarks: f})
		readSnapshot(t, conn)
	}

	var last liveMessage
	for range frames {
		_, data, err := live.ReadMessage()
		if err != nil {
			t.Fatalf("live ReadMessage() error = %v", err)
		}
		if err := json.Unmarshal(data, &last); err != nil {
			t.Fatal(err)
		}
		if last.WorkoutID != started.WorkoutID {
			t.Errorf("live update for %s, want %s", last.WorkoutID, started.WorkoutID)
		}
	}
	if last.Reps != 1 {
		t.Errorf("last live update reps = %d, want 1", last.Reps)
	}
}
