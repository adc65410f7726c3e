package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b Vec3) bool {
	const eps = 1e-4
	for i := 0; i < 3; i++ {
		if math32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{Pi, -Pi},
		{-Pi, -Pi},
		{3 * Pi / 2, -Pi / 2},
		{-3 * Pi / 2, Pi / 2},
	}
	for _, tt := range tests {
		got := WrapAngle(tt.in)
		if math32.Abs(got-tt.want) > 1e-4 {
			t.Errorf("WrapAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < -Pi || got >= Pi {
			t.Errorf("WrapAngle(%v) = %v out of range", tt.in, got)
		}
	}
}

func TestAngleMatrixZ(t *testing.T) {
	m := AngleMatrix(Vec3{0, 0, Pi / 2})
	got := m.Rotate(Vec3{1, 0, 0})
	if !near(got, Vec3{0, 1, 0}) {
		t.Errorf("rotate x by z90 = %v, want (0,1,0)", got)
	}
}

func TestAngleMatrixOrder(t *testing.T) {
	// X is applied before Z.
	m := AngleMatrix(Vec3{Pi / 2, 0, Pi / 2})
	got := m.Rotate(Vec3{0, 1, 0})
	// X90 maps Y to Z; Z90 leaves Z alone.
	if !near(got, Vec3{0, 0, 1}) {
		t.Errorf("got %v, want (0,0,1)", got)
	}
}

func TestConcatAndInverse(t *testing.T) {
	parent := PoseMatrix(Vec3{0, 0, Pi / 2}, Vec3{10, 0, 0})
	child := PoseMatrix(Vec3{}, Vec3{5, 0, 0})
	world := Concat(parent, child)

	if got := world.Origin(); !near(got, Vec3{10, 5, 0}) {
		t.Errorf("child origin = %v, want (10,5,0)", got)
	}

	p := Vec3{1, 2, 3}
	back := world.ITransform(world.Transform(p))
	if !near(back, p) {
		t.Errorf("ITransform(Transform(p)) = %v, want %v", back, p)
	}
}

func TestMinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, 0, -1}
	if got := Min(a, b); got != (Vec3{1, 0, -2}) {
		t.Errorf("Min = %v", got)
	}
	if got := Max(a, b); got != (Vec3{3, 5, -1}) {
		t.Errorf("Max = %v", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	if got := Normalize(Vec3{}); got != (Vec3{}) {
		t.Errorf("Normalize(0) = %v", got)
	}
	if l := Normalize(Vec3{3, 4, 0}).Len(); math32.Abs(l-1) > 1e-5 {
		t.Errorf("len = %v", l)
	}
}
