package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/tui"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . }} {{ string . "reps" }}`

func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default: ~/.formcoach/config.toml)")
	withTUI := fs.Bool("tui", false, "replay in an interactive terminal viewer")
	fps := fs.Int("fps", 0, "frames per second (0 replays as fast as possible)")
	speak := fs.Bool("speak", false, "voice feedback through the speech plugin")
	save := fs.Bool("save", false, "store the workout in the database")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("expected exactly one recording file")
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	frames, err := pose.ReadRecordingFile(path)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%s: no frames", path)
	}

	ac := appConfig(cfg, *speak)
	if *save {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()
		ac.Store = st
		ac.RecordFrames = true
	}

	a := app.New(ac)
	defer a.Close()
	if *speak {
		if err := a.DiscoverPlugins(); err != nil {
			return err
		}
	}

	w, err := a.StartWorkout("")
	if err != nil {
		return err
	}

	var final coach.Snapshot
	if *withTUI {
		final, err = tui.Run(w, frames, filepath.Base(path), *fps)
	} else {
		final, err = replayWithProgress(w, frames, filepath.Base(path), *fps)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	record, ferr := w.Finish()
	if ferr != nil {
		return ferr
	}

	fmt.Printf("\n%s: %d reps\n", path, final.Reps)
	if *save {
		fmt.Printf("Saved workout %s (%d reps)\n", record.ID, record.Reps)
	}
	return nil
}

func replayWithProgress(w *app.Workout, frames []pose.Frame, name string, fps int) (coach.Snapshot, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bar := pb.ProgressBarTemplate(progressTemplate).Start(len(frames))
	bar.Set("prefix", name)
	bar.Set("reps", "0 reps")

	var history []string
	final, err := w.Replay(ctx, frames, fps, func(_ int, snap coach.Snapshot) {
		bar.Increment()
		if snap.RepCompleted {
			bar.Set("reps", fmt.Sprintf("%d reps", snap.Reps))
			history = append(history, fmt.Sprintf("Rep %d: %s", snap.Reps, strings.ReplaceAll(snap.Feedback, "\n", "; ")))
		}
	})
	bar.Finish()

	for _, line := range history {
		fmt.Println(line)
	}
	if err != nil {
		log.Printf("replay stopped: %v", err)
	}
	return final, err
}
