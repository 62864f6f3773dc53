package form

import (
	"strings"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

// Default form thresholds. The back and shortfall values are empirical.
const (
	DefaultValgusOffset       = 0.08
	DefaultBackHyperextension = 195.0
	DefaultBackRounding       = 165.0
	DefaultDepthVariation     = 50.0
	DefaultDepthShortfall     = 10.0
	DefaultDepthTarget        = 100.0
	DefaultMinDepthSamples    = 3
)

// Thresholds holds the tunable limits for every detector.
type Thresholds struct {
	ValgusOffset       float64
	BackHyperextension float64
	BackRounding       float64
	DepthVariation     float64
	DepthShortfall     float64
	// DepthTarget is the bottom knee angle a rep must get under to count as deep enough.
	DepthTarget     float64
	MinDepthSamples int
}

// DefaultThresholds returns the standard squat form thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ValgusOffset:       DefaultValgusOffset,
		BackHyperextension: DefaultBackHyperextension,
		BackRounding:       DefaultBackRounding,
		DepthVariation:     DefaultDepthVariation,
		DepthShortfall:     DefaultDepthShortfall,
		DepthTarget:        DefaultDepthTarget,
		MinDepthSamples:    DefaultMinDepthSamples,
	}
}

// Report is the outcome of analyzing one rep.
type Report struct {
	Messages []string
}

// Good reports whether no fault was found.
func (r Report) Good() bool {
	return len(r.Messages) == 0
}

// Text returns one fault per line, or MsgGoodForm when there are none.
func (r Report) Text() string {
	if r.Good() {
		return MsgGoodForm
	}
	return strings.Join(r.Messages, "\n")
}

// Analyzer runs a fixed list of detectors against completed reps.
type Analyzer struct {
	detectors   []Detector
	depthTarget float64
}

// NewAnalyzer creates an Analyzer with the squat detectors in reporting order:
// knee valgus, back curvature, depth consistency.
func NewAnalyzer(t Thresholds) *Analyzer {
	return NewAnalyzerWith(t.DepthTarget,
		KneeValgus{Threshold: t.ValgusOffset},
		BackCurvature{Hyperextension: t.BackHyperextension, Rounding: t.BackRounding},
		DepthConsistency{
			MinSamples:   t.MinDepthSamples,
			MaxVariation: t.DepthVariation,
			MaxShortfall: t.DepthShortfall,
		},
	)
}

// NewAnalyzerWith creates an Analyzer running the given detectors in order.
func NewAnalyzerWith(depthTarget float64, detectors ...Detector) *Analyzer {
	return &Analyzer{
		detectors:   detectors,
		depthTarget: depthTarget,
	}
}

// Detectors returns the detectors in reporting order.
func (a *Analyzer) Detectors() []Detector {
	return a.detectors
}

// Analyze concatenates every detector's messages and adds the depth
// sufficiency check for reps judged at the bottom.
func (a *Analyzer) Analyze(in Input) Report {
	var messages []string
	for _, d := range a.detectors {
		messages = append(messages, d.Detect(in)...)
	}

	if in.Phase == rep.PhaseBottom && in.BottomDepth > a.depthTarget {
		messages = append(messages, MsgGoDeeper)
	}

	return Report{Messages: messages}
}
