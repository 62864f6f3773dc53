package coach

import (
	"bytes"
	"errors"
	"log"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

type recordingSpeaker struct {
	spoken []string
	err    error
}

func (r *recordingSpeaker) Speak(text string) error {
	r.spoken = append(r.spoken, text)
	return r.err
}

func newTestSession(t *testing.T, speaker Speaker, onRep func(RepEvent)) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Speaker = speaker
	cfg.OnRep = onRep
	cfg.Clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// repFrames returns one squat rep with both knees shifted by shift.
func repFrames(shift float64) []pose.Frame {
	var frames []pose.Frame
	for _, angle := range []float64{175, 120, 80, 100, 150, 170} {
		frames = append(frames, pose.Pose{KneeAngle: angle, BackAngle: 175, LeftKneeShift: shift}.Frame())
	}
	return frames
}

func feed(s *Session, frames []pose.Frame) []Snapshot {
	snaps := make([]Snapshot, 0, len(frames))
	for _, f := range frames {
		snaps = append(snaps, s.Update(f))
	}
	return snaps
}

func TestSession_CleanReps(t *testing.T) {
	speaker := &recordingSpeaker{}
	var events []RepEvent
	s := newTestSession(t, speaker, func(e RepEvent) { events = append(events, e) })

	snaps := feed(s, pose.SquatSequence(3, 5))

	completed := 0
	for _, snap := range snaps {
		if snap.RepCompleted {
			completed++
		}
	}
	if completed != 3 {
		t.Errorf("expected 3 completions, got %d", completed)
	}

	last := snaps[len(snaps)-1]
	if last.Reps != 3 || last.RepCount != 3 {
		t.Errorf("expected 3 reps, got %d (%.1f)", last.Reps, last.RepCount)
	}
	if last.Feedback != form.MsgGoodForm {
		t.Errorf("Feedback = %q, want %q", last.Feedback, form.MsgGoodForm)
	}
	if !reflect.DeepEqual(speaker.spoken, []string{form.MsgGoodForm}) {
		t.Errorf("spoken = %v, want a single %q", speaker.spoken, form.MsgGoodForm)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 rep events, got %d", len(events))
	}
	for i, e := range events {
		if e.Number != i+1 {
			t.Errorf("event %d number = %d", i, e.Number)
		}
		if e.Depth >= rep.DefaultBottomAngle {
			t.Errorf("event %d depth %.1f is not below the bottom threshold", i, e.Depth)
		}
		if e.Feedback != form.MsgGoodForm || len(e.Messages) != 0 {
			t.Errorf("event %d feedback = %q %v", i, e.Feedback, e.Messages)
		}
	}
}

func TestSession_DisplayCountTruncates(t *testing.T) {
	s := newTestSession(t, nil, nil)

	s.Update(pose.Standing())
	snap := s.Update(pose.Squatting())

	if snap.RepCount != 0.5 || snap.Reps != 0 {
		t.Errorf("expected 0.5 internal and 0 displayed, got %.1f and %d", snap.RepCount, snap.Reps)
	}
	if snap.Phase != rep.PhaseBottom {
		t.Errorf("expected bottom phase, got %s", snap.Phase)
	}
}

func TestSession_NilFrame(t *testing.T) {
	s := newTestSession(t, nil, nil)
	s.Update(pose.Squatting())
	before := s.Snapshot()

	snap := s.Update(nil)
	if snap.Accepted {
		t.Error("expected nil frame to be rejected")
	}
	if got := s.Snapshot(); got != before {
		t.Errorf("nil frame changed the session: %+v -> %+v", before, got)
	}
}

func TestSession_DuplicateFrame(t *testing.T) {
	s := newTestSession(t, nil, nil)
	f := pose.Squatting()

	if snap := s.Update(f); !snap.Accepted {
		t.Fatal("expected first frame to be accepted")
	}
	depths := s.Depths()

	snap := s.Update(f)
	if snap.Accepted {
		t.Error("expected duplicate frame to be ignored")
	}
	if !reflect.DeepEqual(s.Depths(), depths) {
		t.Errorf("duplicate frame changed depth history: %v -> %v", depths, s.Depths())
	}
}

func TestSession_FeedbackPersistsBetweenReps(t *testing.T) {
	s := newTestSession(t, nil, nil)
	feed(s, repFrames(0.1))

	want := form.MsgLeftKneeValgus
	if s.Feedback() != want {
		t.Fatalf("Feedback() = %q, want %q", s.Feedback(), want)
	}

	// Start the next rep without completing it.
	for _, snap := range feed(s, repFrames(0)[1:3]) {
		if snap.Feedback != want {
			t.Errorf("feedback cleared mid rep: %q", snap.Feedback)
		}
	}
}

func TestSession_SpeechDedup(t *testing.T) {
	speaker := &recordingSpeaker{}
	s := newTestSession(t, speaker, nil)

	var spoken []string
	for _, shift := range []float64{0.1, 0.1, 0} {
		for _, snap := range feed(s, repFrames(shift)) {
			if snap.Spoken != "" {
				spoken = append(spoken, snap.Spoken)
			}
		}
	}

	want := []string{form.MsgLeftKneeValgus, form.MsgGoodForm}
	if !reflect.DeepEqual(speaker.spoken, want) {
		t.Errorf("speaker got %v, want %v", speaker.spoken, want)
	}
	if !reflect.DeepEqual(spoken, want) {
		t.Errorf("snapshots spoke %v, want %v", spoken, want)
	}
	if s.LastSpoken() != form.MsgGoodForm {
		t.Errorf("LastSpoken() = %q", s.LastSpoken())
	}
}

func TestSession_SpeakerErrorIgnored(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	speaker := &recordingSpeaker{err: errors.New("no audio device")}
	s := newTestSession(t, speaker, nil)

	feed(s, pose.SquatSequence(2, 5))

	if s.RepCount() != 2 {
		t.Errorf("expected 2 reps despite speaker errors, got %.1f", s.RepCount())
	}
	if len(speaker.spoken) != 1 {
		t.Errorf("expected the failing speaker to be asked once, got %d", len(speaker.spoken))
	}
	if !strings.Contains(logs.String(), "no audio device") {
		t.Errorf("expected the speaker error to be logged, got %q", logs.String())
	}
}

func TestSession_ZeroConfigUsesDefaults(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	feed(s, pose.SquatSequence(3, 5))
	if s.RepCount() != 3 {
		t.Errorf("expected 3 reps with a zero config, got %.1f", s.RepCount())
	}
	if s.Exercise() != ExerciseSquat {
		t.Errorf("Exercise() = %q", s.Exercise())
	}

	// A partial threshold set is kept as given.
	custom := rep.DefaultThresholds()
	custom.BottomAngle = 70
	s, err = New(Config{Rep: custom})
	if err != nil {
		t.Fatal(err)
	}
	feed(s, pose.SquatSequence(1, 5))
	if s.RepCount() != 0 {
		t.Errorf("expected no rep above a 70 degree bottom, got %.1f", s.RepCount())
	}
}

func TestSession_Reset(t *testing.T) {
	speaker := &recordingSpeaker{}
	s := newTestSession(t, speaker, nil)

	feed(s, pose.SquatSequence(1, 5))
	s.Reset()

	snap := s.Snapshot()
	if snap.RepCount != 0 || snap.Phase != rep.PhaseRest || snap.Feedback != "" || len(s.Depths()) != 0 {
		t.Errorf("expected initial state after reset, got %+v", snap)
	}

	// The dedup boundary resets too.
	feed(s, pose.SquatSequence(1, 5))
	if len(speaker.spoken) != 2 {
		t.Errorf("expected feedback to be spoken again after reset, got %v", speaker.spoken)
	}
}

func TestSession_Exercise(t *testing.T) {
	if _, err := New(Config{Exercise: "lunge"}); !errors.Is(err, ErrUnsupportedExercise) {
		t.Errorf("New(lunge) error = %v, want ErrUnsupportedExercise", err)
	}

	s, err := New(Config{Rep: rep.DefaultThresholds(), Form: form.DefaultThresholds()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Exercise() != ExerciseSquat {
		t.Errorf("default exercise = %q", s.Exercise())
	}

	s.Update(pose.Squatting())
	if err := s.SetExercise("lunge"); !errors.Is(err, ErrUnsupportedExercise) {
		t.Errorf("SetExercise(lunge) error = %v", err)
	}
	if err := s.SetExercise(ExerciseSquat); err != nil {
		t.Errorf("SetExercise(squat) error = %v", err)
	}
	if s.RepCount() != 0.5 {
		t.Error("expected unchanged exercise to keep the session state")
	}
}

func TestSession_FeedbackLines(t *testing.T) {
	s := newTestSession(t, nil, nil)
	if s.FeedbackLines() != nil {
		t.Error("expected no feedback lines before the first rep")
	}

	var frames []pose.Frame
	for _, angle := range []float64{175, 80, 150} {
		frames = append(frames, pose.Pose{KneeAngle: angle, BackAngle: 150, LeftKneeShift: 0.1, RightKneeShift: 0.1}.Frame())
	}
	feed(s, frames)

	want := []string{form.MsgLeftKneeValgus, form.MsgRightKneeValgus, form.MsgBackRounding}
	if got := s.FeedbackLines(); !reflect.DeepEqual(got, want) {
		t.Errorf("FeedbackLines() = %v, want %v", got, want)
	}
}
