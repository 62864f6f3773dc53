package pose

import "math"

// Segment lengths used for synthetic frames, in normalized image units.
const (
	shinLength  = 0.20
	thighLength = 0.20
	torsoLength = 0.25
)

// Pose describes a synthetic side-on squat posture.
// It is used by tests and demo recordings in place of a live pose detector.
type Pose struct {
	// KneeAngle is the hip-knee-ankle angle in degrees for both legs.
	KneeAngle float64
	// BackAngle is the shoulder-hip-knee angle in degrees.
	BackAngle float64
	// LeftKneeShift and RightKneeShift move each knee horizontally
	// away from its ankle (knee.x - ankle.x).
	LeftKneeShift  float64
	RightKneeShift float64
}

// Frame builds a full 33-point frame whose computed joint angles match the pose.
func (p Pose) Frame() Frame {
	f := make(Frame, NumLandmarks)

	leftAnkle := vec{0.45, 0.90}
	rightAnkle := vec{0.55, 0.90}
	leftKnee := vec{leftAnkle.x + p.LeftKneeShift, 0.90 - shinLength}
	rightKnee := vec{rightAnkle.x + p.RightKneeShift, 0.90 - shinLength}

	leftHip := joint(leftKnee, leftAnkle, p.KneeAngle, thighLength)
	rightHip := joint(rightKnee, rightAnkle, p.KneeAngle, thighLength)
	leftShoulder := joint(leftHip, leftKnee, p.BackAngle, torsoLength)
	rightShoulder := joint(rightHip, rightKnee, p.BackAngle, torsoLength)

	set := func(i int, v vec) {
		vis := 0.99
		f[i] = Landmark{X: v.x, Y: v.y, Z: 0, Visibility: &vis}
	}

	head := vec{(leftShoulder.x + rightShoulder.x) / 2, (leftShoulder.y+rightShoulder.y)/2 - 0.12}
	for i := Nose; i <= MouthRight; i++ {
		set(i, vec{head.x + float64(i-5)*0.005, head.y + float64(i%3)*0.005})
	}

	set(LeftShoulder, leftShoulder)
	set(RightShoulder, rightShoulder)
	set(LeftElbow, leftShoulder.add(vec{0.05, 0.10}))
	set(RightElbow, rightShoulder.add(vec{0.05, 0.10}))
	set(LeftWrist, leftShoulder.add(vec{0.15, 0.10}))
	set(RightWrist, rightShoulder.add(vec{0.15, 0.10}))
	set(LeftPinky, leftShoulder.add(vec{0.17, 0.11}))
	set(RightPinky, rightShoulder.add(vec{0.17, 0.11}))
	set(LeftIndex, leftShoulder.add(vec{0.18, 0.10}))
	set(RightIndex, rightShoulder.add(vec{0.18, 0.10}))
	set(LeftThumb, leftShoulder.add(vec{0.17, 0.09}))
	set(RightThumb, rightShoulder.add(vec{0.17, 0.09}))

	set(LeftHip, leftHip)
	set(RightHip, rightHip)
	set(LeftKnee, leftKnee)
	set(RightKnee, rightKnee)
	set(LeftAnkle, leftAnkle)
	set(RightAnkle, rightAnkle)
	set(LeftHeel, leftAnkle.add(vec{-0.02, 0.02}))
	set(RightHeel, rightAnkle.add(vec{-0.02, 0.02}))
	set(LeftFootIndex, leftAnkle.add(vec{0.06, 0.02}))
	set(RightFootIndex, rightAnkle.add(vec{0.06, 0.02}))

	return f
}

// Standing returns an upright frame: knees and back nearly straight.
func Standing() Frame {
	return Pose{KneeAngle: 175, BackAngle: 175}.Frame()
}

// Squatting returns a frame at the bottom of a deep squat.
func Squatting() Frame {
	return Pose{KneeAngle: 80, BackAngle: 170}.Frame()
}

// SquatSequence returns a clean squat recording of the given number of reps.
// Each rep descends from 175 to 80 degrees, holds briefly, and rises back,
// using framesPerPhase frames per half.
func SquatSequence(reps, framesPerPhase int) []Frame {
	if framesPerPhase < 2 {
		framesPerPhase = 2
	}

	const top, bottom = 175.0, 80.0
	step := (top - bottom) / float64(framesPerPhase-1)

	var frames []Frame
	for r := 0; r < reps; r++ {
		start := 0
		if r > 0 {
			start = 1 // the previous ascent already ended at the top
		}
		for i := start; i < framesPerPhase; i++ {
			frames = append(frames, Pose{KneeAngle: top - step*float64(i), BackAngle: 175}.Frame())
		}
		for _, hold := range []float64{bottom - 1, bottom + 1} {
			frames = append(frames, Pose{KneeAngle: hold, BackAngle: 175}.Frame())
		}
		for i := 0; i < framesPerPhase; i++ {
			frames = append(frames, Pose{KneeAngle: bottom + step*float64(i), BackAngle: 175}.Frame())
		}
	}
	return frames
}

type vec struct{ x, y float64 }

func (v vec) add(o vec) vec { return vec{v.x + o.x, v.y + o.y} }

// joint places the far end of a segment of the given length starting at
// vertex so that the angle between vertex->ref and the new segment equals
// angle degrees. Of the two solutions, the one higher in the image wins.
func joint(vertex, ref vec, angle, length float64) vec {
	dx, dy := ref.x-vertex.x, ref.y-vertex.y
	norm := math.Hypot(dx, dy)
	ux, uy := dx/norm, dy/norm

	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	a := vec{vertex.x + length*(ux*cos-uy*sin), vertex.y + length*(ux*sin+uy*cos)}
	b := vec{vertex.x + length*(ux*cos+uy*sin), vertex.y + length*(-ux*sin+uy*cos)}
	if b.y < a.y {
		return b
	}
	return a
}
