// Package events publishes workout and rep events to external subscribers.
package events

import (
	"context"
	"time"
)

// RepMessage is published for every completed rep.
type RepMessage struct {
	WorkoutID string    `json:"workout_id"`
	Exercise  string    `json:"exercise"`
	Number    int       `json:"number"`
	Depth     float64   `json:"depth"`
	Feedback  string    `json:"feedback"`
	Messages  []string  `json:"messages,omitempty"`
	At        time.Time `json:"at"`
}

// WorkoutMessage is published when a workout starts or finishes.
type WorkoutMessage struct {
	WorkoutID string    `json:"workout_id"`
	Exercise  string    `json:"exercise"`
	Status    string    `json:"status"`
	Reps      int       `json:"reps"`
	At        time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishRep(ctx context.Context, msg RepMessage) error
	PublishWorkout(ctx context.Context, msg WorkoutMessage) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishRep(context.Context, RepMessage) error         { return nil }
func (Nop) PublishWorkout(context.Context, WorkoutMessage) error { return nil }
func (Nop) Close() error                                         { return nil }
