// Package geometry provides the planar angle math used for joint analysis.
package geometry

import "math"

// Point is a 2D point in normalized image space.
type Point struct {
	X float64
	Y float64
}

// AngleBetween returns the angle in degrees at vertex b formed by the rays
// b->a and b->c, normalized into [0, 180].
//
// Coincident points are not special-cased: the result is whatever atan2
// yields for zero-length rays.
func AngleBetween(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}
