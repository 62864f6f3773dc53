package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
)

func TestWorkout_Run(t *testing.T) {
	a := New(Config{PluginDir: t.TempDir()})
	w, err := a.StartWorkout("")
	if err != nil {
		t.Fatal(err)
	}

	frames := make(chan pose.Frame)
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), frames) }()

	for _, f := range pose.SquatSequence(4, 5) {
		frames <- f
	}
	close(frames)

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := w.Session().RepCount(); got != 4 {
		t.Errorf("RepCount() = %v, want 4", got)
	}
}

func TestWorkout_Run_Cancel(t *testing.T) {
	a := New(Config{PluginDir: t.TempDir()})
	w, _ := a.StartWorkout("")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, make(chan pose.Frame)) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWorkout_Replay(t *testing.T) {
	a := New(Config{PluginDir: t.TempDir()})
	w, _ := a.StartWorkout("")

	frames := pose.SquatSequence(2, 3)
	var seen []int
	snap, err := w.Replay(context.Background(), frames, 1000, func(i int, _ coach.Snapshot) {
		seen = append(seen, i)
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if snap.Reps != 2 {
		t.Errorf("Reps = %d, want 2", snap.Reps)
	}
	if len(seen) != len(frames) || seen[len(seen)-1] != len(frames)-1 {
		t.Errorf("callback saw %v", seen)
	}
}

func TestWorkout_Replay_Cancel(t *testing.T) {
	a := New(Config{PluginDir: t.TempDir()})
	w, _ := a.StartWorkout("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Replay(ctx, pose.SquatSequence(1, 3), 0, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Replay() error = %v, want context.Canceled", err)
	}
	if _, err := w.Replay(ctx, pose.SquatSequence(1, 3), 10, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("paced Replay() error = %v, want context.Canceled", err)
	}
}
