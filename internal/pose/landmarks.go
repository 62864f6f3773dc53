// Package pose provides body-pose landmark types and frame handling for exercise analysis.
package pose

import (
	"errors"
	"math"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/geometry"
)

// Pose landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33

	// MinLandmarks is the shortest frame that still carries every joint
	// the squat analysis reads.
	MinLandmarks = RightAnkle + 1
)

// ErrMalformedFrame is returned when a frame is too short or carries unusable coordinates.
var ErrMalformedFrame = errors.New("malformed frame")

// Landmark is one anatomical keypoint in normalized image space.
type Landmark struct {
	X          float64  `json:"x" msgpack:"x"`
	Y          float64  `json:"y" msgpack:"y"`
	Z          float64  `json:"z" msgpack:"z"`
	Visibility *float64 `json:"visibility,omitempty" msgpack:"visibility,omitempty"`
}

// Point returns the landmark projected onto the image plane.
func (l Landmark) Point() geometry.Point {
	return geometry.Point{X: l.X, Y: l.Y}
}

// Finite reports whether every coordinate is a real number.
func (l Landmark) Finite() bool {
	return !math.IsNaN(l.X) && !math.IsInf(l.X, 0) &&
		!math.IsNaN(l.Y) && !math.IsInf(l.Y, 0) &&
		!math.IsNaN(l.Z) && !math.IsInf(l.Z, 0)
}

// Visible reports whether the landmark meets the minimum visibility.
// Landmarks without a visibility score are always visible.
func (l Landmark) Visible(min float64) bool {
	if l.Visibility == nil {
		return true
	}
	return *l.Visibility >= min
}

// Equal reports whether two landmarks carry identical values.
func (l Landmark) Equal(o Landmark) bool {
	if l.X != o.X || l.Y != o.Y || l.Z != o.Z {
		return false
	}
	if (l.Visibility == nil) != (o.Visibility == nil) {
		return false
	}
	return l.Visibility == nil || *l.Visibility == *o.Visibility
}

// Frame is one set of pose landmarks indexed by the MediaPipe schema.
type Frame []Landmark

// Valid reports whether the frame is long enough to index every required joint.
func (f Frame) Valid() bool {
	return len(f) >= MinLandmarks
}

// At returns the landmark at index i. The second result is false when the index
// is out of range or the landmark has non-finite coordinates.
func (f Frame) At(i int) (Landmark, bool) {
	if i < 0 || i >= len(f) {
		return Landmark{}, false
	}
	l := f[i]
	if !l.Finite() {
		return Landmark{}, false
	}
	return l, true
}

// Points returns the image-plane points for the given indices, or false if any is unusable.
func (f Frame) Points(minVisibility float64, indices ...int) ([]geometry.Point, bool) {
	points := make([]geometry.Point, len(indices))
	for i, idx := range indices {
		l, ok := f.At(idx)
		if !ok || !l.Visible(minVisibility) {
			return nil, false
		}
		points[i] = l.Point()
	}
	return points, true
}

// Equal reports whether two frames carry identical landmarks.
func (f Frame) Equal(o Frame) bool {
	if len(f) != len(o) {
		return false
	}
	for i := range f {
		if !f[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	if f == nil {
		return nil
	}
	c := make(Frame, len(f))
	for i, l := range f {
		c[i] = l
		if l.Visibility != nil {
			v := *l.Visibility
			c[i].Visibility = &v
		}
	}
	return c
}
