// Package rep implements repetition counting over a stream of pose frames.
package rep

import "fmt"

// Phase is the current stage of a repetition cycle.
type Phase int

const (
	// PhaseRest is standing fully upright between reps.
	PhaseRest Phase = iota
	// PhaseBottom is the bottom of the descent.
	PhaseBottom
	// PhaseTop is back up after a bottom, not yet fully extended.
	PhaseTop
	// PhaseTransition is reserved for movement between named phases.
	PhaseTransition
)

var phaseNames = map[Phase]string{
	PhaseRest:       "rest",
	PhaseBottom:     "bottom",
	PhaseTop:        "top",
	PhaseTransition: "transition",
}

// String returns the lower-case phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
