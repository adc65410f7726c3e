// Package math provides the vector and rigid-transform helpers used by the compiler.
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a 3D vector indexed by axis (0 = X, 1 = Y, 2 = Z).
type Vec3 = mgl32.Vec3

// Pi is π as float32.
const Pi = math32.Pi

// Min returns the per-axis minimum of a and b.
func Min(a, b Vec3) Vec3 {
	return Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

// Max returns the per-axis maximum of a and b.
func Max(a, b Vec3) Vec3 {
	return Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

// Negate returns -v.
func Negate(v Vec3) Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Normalize returns a unit vector, or the zero vector for a zero input.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// WrapAngle folds a radian angle into [-π, π).
func WrapAngle(a float32) float32 {
	for a >= Pi {
		a -= 2 * Pi
	}
	for a < -Pi {
		a += 2 * Pi
	}
	return a
}

// WrapAngles folds each component of v into [-π, π).
func WrapAngles(v Vec3) Vec3 {
	return Vec3{WrapAngle(v[0]), WrapAngle(v[1]), WrapAngle(v[2])}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float32) float32 {
	return d * (Pi / 180)
}
