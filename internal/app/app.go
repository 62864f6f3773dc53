// Package app wires the feedback session to persistence, announcer plugins,
// event publishing and live viewers.
package app

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/events"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/plugin"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
)

const (
	// DefaultPluginTimeoutMs bounds a single announcer plugin run.
	DefaultPluginTimeoutMs = 10000
	// PublishTimeout bounds a single event publication.
	PublishTimeout = 2 * time.Second
	// FrameFlushSize is the number of recorded frames buffered per store write.
	FrameFlushSize = 64

	settingEnabled = "enabled"
)

// ErrWorkoutNotFound is returned for unknown or finished workout IDs.
var ErrWorkoutNotFound = errors.New("workout not found")

// Config holds configuration options for the application.
type Config struct {
	// Store is optional; without it workouts are not persisted.
	Store     *store.Store
	PluginDir string
	// Speech selects the announcer plugin. An empty Plugin disables it.
	Speech          plugin.SpeakerConfig
	PluginTimeoutMs int
	// Speaker replaces the plugin speaker when set.
	Speaker coach.Speaker
	// Publisher defaults to events.Nop.
	Publisher events.Publisher
	// Hub is optional.
	Hub *broadcast.Hub
	// Session carries the exercise and thresholds of new workouts.
	Session coach.Config
	// RecordFrames stores every accepted frame for later export.
	RecordFrames bool
}

// App is the main application that runs workouts.
type App struct {
	config        Config
	pluginMgr     *plugin.Manager
	pluginExec    *plugin.Executor
	pluginSpeaker *plugin.Speaker
	speaker       coach.Speaker
	publisher     events.Publisher

	enabled  bool
	mu       sync.RWMutex
	workouts map[string]*Workout
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.PluginTimeoutMs <= 0 {
		config.PluginTimeoutMs = DefaultPluginTimeoutMs
	}
	if config.Publisher == nil {
		config.Publisher = events.Nop{}
	}

	a := &App{
		config:     config,
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(config.PluginTimeoutMs),
		publisher:  config.Publisher,
		enabled:    true,
		workouts:   make(map[string]*Workout),
	}

	switch {
	case config.Speaker != nil:
		a.speaker = config.Speaker
	case config.Speech.Plugin != "":
		if config.Speech.Exercise == "" {
			config.Speech.Exercise = config.Session.Exercise
		}
		a.pluginSpeaker = plugin.NewSpeaker(a.pluginMgr, a.pluginExec, config.Speech)
		a.speaker = a.pluginSpeaker
	}

	if config.Store != nil {
		if v, err := config.Store.Settings().Get(settingEnabled); err == nil {
			if enabled, err := strconv.ParseBool(v); err == nil {
				a.enabled = enabled
			}
		}
	}

	return a
}

// SetEnabled pauses or resumes analysis. Frames fed while paused are ignored.
// The choice is persisted when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingEnabled, strconv.FormatBool(enabled)); err != nil {
			log.Printf("failed to save enabled setting: %v", err)
		}
	}
}

// IsEnabled returns whether analysis is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Hub returns the configured hub, which may be nil.
func (a *App) Hub() *broadcast.Hub {
	return a.config.Hub
}

// Workout returns an active workout by ID.
func (a *App) Workout(id string) (*Workout, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	w, ok := a.workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

// ActiveWorkouts returns the running workouts, oldest first.
func (a *App) ActiveWorkouts() []*Workout {
	a.mu.RLock()
	list := make([]*Workout, 0, len(a.workouts))
	for _, w := range a.workouts {
		list = append(list, w)
	}
	a.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].startedAt.Before(list[j].startedAt)
	})
	return list
}

func (a *App) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.workouts, id)
}

func (a *App) publishRep(msg events.RepMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()
	if err := a.publisher.PublishRep(ctx, msg); err != nil {
		log.Printf("failed to publish rep %d of workout %s: %v", msg.Number, msg.WorkoutID, err)
	}
}

func (a *App) publishWorkout(msg events.WorkoutMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()
	if err := a.publisher.PublishWorkout(ctx, msg); err != nil {
		log.Printf("failed to publish %s status of workout %s: %v", msg.Status, msg.WorkoutID, err)
	}
}

// Close finishes every active workout and stops the announcer.
func (a *App) Close() error {
	var errs []error
	for _, w := range a.ActiveWorkouts() {
		if _, err := w.Finish(); err != nil && !errors.Is(err, ErrWorkoutFinished) {
			errs = append(errs, err)
		}
	}
	if a.pluginSpeaker != nil {
		if err := a.pluginSpeaker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
