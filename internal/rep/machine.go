package rep

import (
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/geometry"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
)

// Default squat thresholds in degrees.
const (
	DefaultBottomAngle = 90.0
	DefaultTopAngle    = 140.0
	DefaultRestAngle   = 160.0
	DefaultHistorySize = 5
)

// Thresholds holds the knee-angle boundaries that drive phase changes.
type Thresholds struct {
	// BottomAngle is the average knee angle below which the rep is at the bottom.
	BottomAngle float64
	// TopAngle is the angle above which a bottom turns into a completed rep.
	TopAngle float64
	// RestAngle is the angle above which the top settles into rest.
	RestAngle float64
	// HistorySize is the depth history capacity.
	HistorySize int
	// MinVisibility rejects frames whose leg landmarks score below it (0 disables).
	MinVisibility float64
}

// DefaultThresholds returns the standard squat thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BottomAngle: DefaultBottomAngle,
		TopAngle:    DefaultTopAngle,
		RestAngle:   DefaultRestAngle,
		HistorySize: DefaultHistorySize,
	}
}

// State is the running state of one exercise session.
//
// Every field is written only by Machine.Advance, Reset, and the owning
// session; callers must not share a State between goroutines.
type State struct {
	// RepCount grows in half reps: 0.5 on the descent, 0.5 on the ascent.
	RepCount float64
	Phase    Phase
	// LastPhaseChange is when Phase last changed.
	LastPhaseChange time.Time
	// Depths holds the most recent bottom-position knee angles.
	Depths *History
	// RepDepth is the deepest knee angle seen at the bottom of the current rep.
	RepDepth float64
	// LastFrame is the most recent accepted frame, used to skip duplicates.
	LastFrame pose.Frame
}

// NewState creates a State at rest with an empty depth history.
func NewState(historySize int) *State {
	return &State{
		Phase:  PhaseRest,
		Depths: NewHistory(historySize),
	}
}

// Reset returns the state to its initial values.
func (s *State) Reset() {
	s.RepCount = 0
	s.Phase = PhaseRest
	s.LastPhaseChange = time.Time{}
	s.Depths.Reset()
	s.RepDepth = 0
	s.LastFrame = nil
}

// Update reports the outcome of one Advance call.
type Update struct {
	// Accepted is false when the frame was ignored and nothing changed.
	Accepted  bool
	KneeAngle float64
	From      Phase
	To        Phase
	// Completed is true only on the bottom-to-top edge.
	Completed bool
}

// Machine advances a State one frame at a time.
type Machine struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewMachine creates a Machine. A nil clock uses time.Now.
func NewMachine(t Thresholds, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{thresholds: t, now: now}
}

// Thresholds returns the machine's thresholds.
func (m *Machine) Thresholds() Thresholds {
	return m.thresholds
}

// KneeAngle returns the average of the left and right hip-knee-ankle angles.
// The second result is false when any of the six leg landmarks is unusable.
func (m *Machine) KneeAngle(f pose.Frame) (float64, bool) {
	p, ok := f.Points(m.thresholds.MinVisibility,
		pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
		pose.RightHip, pose.RightKnee, pose.RightAnkle,
	)
	if !ok {
		return 0, false
	}
	left := geometry.AngleBetween(p[0], p[1], p[2])
	right := geometry.AngleBetween(p[3], p[4], p[5])
	return (left + right) / 2, true
}

// Advance applies one frame to the state.
//
// Frames that are too short, unusable, or identical to the previous accepted
// frame leave the state untouched. Otherwise at most one transition fires,
// checked in order:
//
//	any phase but bottom, angle < bottom  -> bottom, +0.5
//	bottom, angle > top                   -> top, +0.5, rep completed
//	top, angle > rest                     -> rest
func (m *Machine) Advance(s *State, f pose.Frame) Update {
	u := Update{From: s.Phase, To: s.Phase}

	if !f.Valid() {
		return u
	}
	if s.LastFrame != nil && f.Equal(s.LastFrame) {
		return u
	}

	angle, ok := m.KneeAngle(f)
	if !ok {
		return u
	}

	s.LastFrame = f.Clone()
	u.Accepted = true
	u.KneeAngle = angle

	t := m.thresholds
	switch {
	case angle < t.BottomAngle && s.Phase != PhaseBottom:
		m.transition(s, PhaseBottom)
		s.RepCount += 0.5
		s.RepDepth = angle
	case angle > t.TopAngle && s.Phase == PhaseBottom:
		m.transition(s, PhaseTop)
		s.RepCount += 0.5
		u.Completed = true
	case angle > t.RestAngle && s.Phase == PhaseTop:
		m.transition(s, PhaseRest)
	}

	if s.Phase == PhaseBottom && angle < t.BottomAngle {
		s.Depths.Push(angle)
		if angle < s.RepDepth {
			s.RepDepth = angle
		}
	}

	u.To = s.Phase
	return u
}

func (m *Machine) transition(s *State, to Phase) {
	s.Phase = to
	s.LastPhaseChange = m.now()
}
