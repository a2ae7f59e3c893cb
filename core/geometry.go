package core

import "math"

// Vec3 is a position or direction in world units. World space is
// right-handed; the map ground plane spans x/z with y up.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// GroundDistance returns the distance between two points measured in the
// ground plane only (y ignored).
func (v Vec3) GroundDistance(other Vec3) float64 {
	dx := v.X - other.X
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// intersectGroundPlane returns the point where the ray origin+t*dir (t ≥ 0)
// meets the y=0 plane. ok is false when the ray is parallel to the plane or
// points away from it.
func intersectGroundPlane(origin, dir Vec3) (Vec3, bool) {
	if dir.Y == 0 {
		return Vec3{}, false
	}
	t := -origin.Y / dir.Y
	if t < 0 {
		return Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}
