package app

import (
	"context"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
)

// Run feeds frames to the workout in arrival order until the channel closes
// (nil error) or ctx is cancelled (ctx.Err()). It is the workout's single
// producer; do not call Feed concurrently with Run.
func (w *Workout) Run(ctx context.Context, frames <-chan pose.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			w.Feed(f)
		}
	}
}

// ReplayFunc observes every replayed frame.
type ReplayFunc func(index int, snap coach.Snapshot)

// Replay feeds recorded frames at fps, or as fast as possible when fps <= 0,
// and returns the final snapshot.
func (w *Workout) Replay(ctx context.Context, frames []pose.Frame, fps int, fn ReplayFunc) (coach.Snapshot, error) {
	var tick <-chan time.Time
	if fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	for i, f := range frames {
		if tick != nil {
			select {
			case <-ctx.Done():
				return w.session.Snapshot(), ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return w.session.Snapshot(), err
		}

		snap := w.Feed(f)
		if fn != nil {
			fn(i, snap)
		}
	}

	return w.session.Snapshot(), nil
}
