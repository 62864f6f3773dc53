// Package coach provides the feedback session that turns a stream of pose
// frames into a rep count and spoken form feedback.
package coach

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

// ExerciseSquat is the only supported exercise.
const ExerciseSquat = "squat"

// ErrUnsupportedExercise is returned for exercises without a rep machine.
var ErrUnsupportedExercise = errors.New("unsupported exercise")

// Speaker voices feedback. Implementations may work asynchronously.
type Speaker interface {
	Speak(text string) error
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(text string) error

// Speak calls f(text).
func (f SpeakerFunc) Speak(text string) error {
	return f(text)
}

// RepEvent describes one completed rep.
type RepEvent struct {
	Number   int
	Depth    float64
	Feedback string
	Messages []string
	At       time.Time
}

// Config configures a Session.
type Config struct {
	// Exercise defaults to ExerciseSquat.
	Exercise string
	Rep      rep.Thresholds
	Form     form.Thresholds
	// Speaker is optional.
	Speaker Speaker
	// OnRep is called synchronously after every completed rep.
	OnRep func(RepEvent)
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns a squat config with default thresholds.
func DefaultConfig() Config {
	return Config{
		Exercise: ExerciseSquat,
		Rep:      rep.DefaultThresholds(),
		Form:     form.DefaultThresholds(),
	}
}

// Snapshot is the presentation view of a session after an update.
type Snapshot struct {
	// Reps is RepCount truncated toward zero.
	Reps         int       `json:"reps"`
	RepCount     float64   `json:"rep_count"`
	Phase        rep.Phase `json:"phase"`
	Feedback     string    `json:"feedback"`
	RepCompleted bool      `json:"rep_completed"`
	Accepted     bool      `json:"accepted"`
	// Spoken is the feedback handed to the speaker on this update, if any.
	Spoken string `json:"speak,omitempty"`
}

// Session owns the running state of one workout view.
//
// Frames must come from a single producer. The mutex only makes reads from
// other goroutines safe.
type Session struct {
	mu       sync.Mutex
	exercise string
	config   Config
	machine  *rep.Machine
	analyzer *form.Analyzer
	state    *rep.State

	// feedback is replaced only when a rep completes.
	feedback string
	// lastSpoken is the last text handed to the speaker.
	lastSpoken string
}

// New creates a Session.
func New(config Config) (*Session, error) {
	if config.Exercise == "" {
		config.Exercise = ExerciseSquat
	}
	if config.Exercise != ExerciseSquat {
		return nil, ErrUnsupportedExercise
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	// Zero threshold sets would never reach the bottom phase.
	if config.Rep == (rep.Thresholds{}) {
		config.Rep = rep.DefaultThresholds()
	}
	if config.Form == (form.Thresholds{}) {
		config.Form = form.DefaultThresholds()
	}

	return &Session{
		exercise: config.Exercise,
		config:   config,
		machine:  rep.NewMachine(config.Rep, config.Clock),
		analyzer: form.NewAnalyzer(config.Form),
		state:    rep.NewState(config.Rep.HistorySize),
	}, nil
}

// Exercise returns the current exercise name.
func (s *Session) Exercise() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exercise
}

// Update processes one frame. A nil frame means no person was detected and
// changes nothing.
func (s *Session) Update(f pose.Frame) Snapshot {
	s.mu.Lock()

	u := s.machine.Advance(s.state, f)

	var (
		event  *RepEvent
		spoken string
	)

	if u.Completed {
		report := s.analyzer.Analyze(form.Input{
			Frame:       f,
			Depths:      s.state.Depths.Values(),
			BottomDepth: s.state.RepDepth,
			KneeAngle:   u.KneeAngle,
			Phase:       u.From,
		})
		s.feedback = report.Text()

		event = &RepEvent{
			Number:   int(s.state.RepCount),
			Depth:    s.state.RepDepth,
			Feedback: s.feedback,
			Messages: report.Messages,
			At:       s.config.Clock(),
		}

		if s.feedback != s.lastSpoken {
			s.lastSpoken = s.feedback
			spoken = s.feedback
		}
	}

	snap := s.snapshotLocked()
	snap.Accepted = u.Accepted
	snap.RepCompleted = u.Completed
	snap.Spoken = spoken
	s.mu.Unlock()

	// Collaborators run outside the lock so they may read the session.
	if spoken != "" && s.config.Speaker != nil {
		if err := s.config.Speaker.Speak(spoken); err != nil {
			log.Printf("failed to speak feedback %q: %v", spoken, err)
		}
	}
	if event != nil && s.config.OnRep != nil {
		s.config.OnRep(*event)
	}

	return snap
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.state.Reset()
	s.feedback = ""
	s.lastSpoken = ""
}

// SetExercise switches the exercise and resets the session if it changed.
func (s *Session) SetExercise(name string) error {
	if name != ExerciseSquat {
		return ErrUnsupportedExercise
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if name != s.exercise {
		s.exercise = name
		s.resetLocked()
	}
	return nil
}

// RepCount returns the fractional rep count.
func (s *Session) RepCount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RepCount
}

// Feedback returns the feedback of the most recent completed rep.
func (s *Session) Feedback() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// FeedbackLines splits Feedback into one fault per line.
func (s *Session) FeedbackLines() []string {
	fb := s.Feedback()
	if fb == "" {
		return nil
	}
	return strings.Split(fb, "\n")
}

// Phase returns the current phase.
func (s *Session) Phase() rep.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

// LastSpoken returns the last text handed to the speaker.
func (s *Session) LastSpoken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSpoken
}

// Depths returns a copy of the depth history, oldest first.
func (s *Session) Depths() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Depths.Values()
}

// Snapshot returns the current view without processing a frame.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Reps:     int(s.state.RepCount),
		RepCount: s.state.RepCount,
		Phase:    s.state.Phase,
		Feedback: s.feedback,
	}
}
