// Package geometry provides the 3-D vector math used to classify piping
// connectivity: direction vectors of segments and the dot/cross products
// the flow and side classifiers are built on.
package geometry

import "math"

// degenerateLength is the magnitude below which a vector has no usable
// direction. Host models report coincident endpoints as tiny, not zero.
const degenerateLength = 1e-9

// Vec3 is a three-component vector in model space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns the vector pointing the opposite way.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot calculates the dot product of two vectors.
// Formula: v.X*w.X + v.Y*w.Y + v.Z*w.Z
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross calculates the cross product of two vectors. The Z component of
// the result is what decides left/right side classification.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Magnitude calculates the L2 norm of the vector.
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector pointing the same way as v. The
// second return is false when v is too short to carry a direction; the
// zero vector is returned in that case.
func (v Vec3) Normalize() (Vec3, bool) {
	m := v.Magnitude()
	if m < degenerateLength {
		return Vec3{}, false
	}
	return Vec3{v.X / m, v.Y / m, v.Z / m}, true
}

// Direction returns the unit vector from one point to another. The second
// return is false when the points are coincident (a degenerate chord has
// no direction).
func Direction(from, to Vec3) (Vec3, bool) {
	return to.Sub(from).Normalize()
}
