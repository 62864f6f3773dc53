// Package form provides squat form analysis over completed repetitions.
package form

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/geometry"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

// Feedback messages.
const (
	MsgLeftKneeValgus    = "Left knee caving in - push knees out"
	MsgRightKneeValgus   = "Right knee caving in - push knees out"
	MsgHyperextension    = "Don't hyperextend your back - engage core"
	MsgBackRounding      = "Back rounding - maintain neutral spine"
	MsgInconsistentDepth = "Maintain consistent depth between reps"
	MsgShallowerDepth    = "You're not going as deep as previous reps"
	MsgGoDeeper          = "Go deeper! Aim for 90° knee bend"
	MsgGoodForm          = "Good form!"
)

// Input is everything a detector may inspect for one completed rep.
type Input struct {
	// Frame is the frame on which the rep completed.
	Frame pose.Frame
	// Depths is the depth history after the update, oldest first.
	Depths []float64
	// BottomDepth is the deepest knee angle reached during the rep.
	BottomDepth float64
	// KneeAngle is the average knee angle of Frame.
	KneeAngle float64
	// Phase is the phase the rep was judged in.
	Phase rep.Phase
}

// Detector inspects a completed rep for one category of form fault.
// Detectors never fail: when their landmarks are unusable they return nothing.
type Detector interface {
	Name() string
	Detect(in Input) []string
}

// KneeValgus flags knees drifting sideways away from the ankles.
type KneeValgus struct {
	// Threshold is the largest tolerated |knee.x - ankle.x| in normalized units.
	Threshold float64
}

// Name implements Detector.
func (d KneeValgus) Name() string { return "knee-valgus" }

// Detect implements Detector.
func (d KneeValgus) Detect(in Input) []string {
	var messages []string
	if d.caving(in.Frame, pose.LeftKnee, pose.LeftAnkle) {
		messages = append(messages, MsgLeftKneeValgus)
	}
	if d.caving(in.Frame, pose.RightKnee, pose.RightAnkle) {
		messages = append(messages, MsgRightKneeValgus)
	}
	return messages
}

func (d KneeValgus) caving(f pose.Frame, knee, ankle int) bool {
	k, ok := f.At(knee)
	if !ok {
		return false
	}
	a, ok := f.At(ankle)
	if !ok {
		return false
	}
	return math.Abs(k.X-a.X) > d.Threshold
}

// BackCurvature flags torso lean using the left shoulder-hip-knee angle.
type BackCurvature struct {
	// Hyperextension is the angle above which the back is leaning too far back.
	Hyperextension float64
	// Rounding is the angle below which the back is rounding forward.
	Rounding float64
}

// Name implements Detector.
func (d BackCurvature) Name() string { return "back-curvature" }

// Detect implements Detector.
func (d BackCurvature) Detect(in Input) []string {
	p, ok := in.Frame.Points(0, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee)
	if !ok {
		return nil
	}

	angle := geometry.AngleBetween(p[0], p[1], p[2])

	var messages []string
	if angle > d.Hyperextension {
		messages = append(messages, MsgHyperextension)
	}
	if angle < d.Rounding {
		messages = append(messages, MsgBackRounding)
	}
	return messages
}

// DepthConsistency compares the rep's depth against recent reps.
type DepthConsistency struct {
	// MinSamples is the history length required before judging.
	MinSamples int
	// MaxVariation is the largest tolerated max-min spread of the history.
	MaxVariation float64
	// MaxShortfall is how much shallower than the mean the rep may be.
	MaxShortfall float64
}

// Name implements Detector.
func (d DepthConsistency) Name() string { return "depth-consistency" }

// Detect implements Detector.
func (d DepthConsistency) Detect(in Input) []string {
	if len(in.Depths) < d.MinSamples || len(in.Depths) == 0 {
		return nil
	}

	mean := stat.Mean(in.Depths, nil)
	spread := floats.Max(in.Depths) - floats.Min(in.Depths)

	var messages []string
	if spread > d.MaxVariation {
		messages = append(messages, MsgInconsistentDepth)
	}
	// Larger knee angles are shallower.
	if in.BottomDepth > mean+d.MaxShortfall {
		messages = append(messages, MsgShallowerDepth)
	}
	return messages
}
