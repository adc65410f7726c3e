package math

import "github.com/go-gl/mathgl/mgl32"

// Mat34 is a row-major 3x4 rigid transform. Column 3 holds the translation.
type Mat34 [3][4]float32

// Identity34 returns the identity transform.
func Identity34() Mat34 {
	return Mat34{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// AngleMatrix builds a rotation from Euler angles in radians, applied
// X first, then Y, then Z.
func AngleMatrix(angles Vec3) Mat34 {
	r := mgl32.Rotate3DZ(angles[2]).Mul3(mgl32.Rotate3DY(angles[1])).Mul3(mgl32.Rotate3DX(angles[0]))
	var m Mat34
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = r.At(i, j)
		}
	}
	return m
}

// PoseMatrix returns the transform for a bone with the given local rotation and position.
func PoseMatrix(rot, pos Vec3) Mat34 {
	m := AngleMatrix(rot)
	m[0][3] = pos[0]
	m[1][3] = pos[1]
	m[2][3] = pos[2]
	return m
}

// Concat returns a*b, i.e. b applied first.
func Concat(a, b Mat34) Mat34 {
	var out Mat34
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
		out[i][3] += a[i][3]
	}
	return out
}

// Origin returns the translation column.
func (m Mat34) Origin() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// Transform applies the full transform to a point.
func (m Mat34) Transform(v Vec3) Vec3 {
	return m.Rotate(v).Add(m.Origin())
}

// Rotate applies only the rotation part.
func (m Mat34) Rotate(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// IRotate applies the inverse (transposed) rotation.
func (m Mat34) IRotate(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[1][0]*v[1] + m[2][0]*v[2],
		m[0][1]*v[0] + m[1][1]*v[1] + m[2][1]*v[2],
		m[0][2]*v[0] + m[1][2]*v[1] + m[2][2]*v[2],
	}
}

// ITransform maps a world point back into the local space of m.
func (m Mat34) ITransform(v Vec3) Vec3 {
	return m.IRotate(v.Sub(m.Origin()))
}

// Chain concatenates local bone transforms down a hierarchy in which every
// parent index precedes its children. A parent of -1 marks a root.
func Chain(parents []int, local []Mat34) []Mat34 {
	world := make([]Mat34, len(local))
	for i := range local {
		if p := parents[i]; p >= 0 {
			world[i] = Concat(world[p], local[i])
		} else {
			world[i] = local[i]
		}
	}
	return world
}
