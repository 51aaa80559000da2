package stage

import "math"

// Mat4 is a 4x4 transformation matrix in column-major order, matching
// the memory layout expected by WGSL mat4x4<f32> uniforms.
//
// Element (row r, column c) is stored at index c*4+r.
type Mat4 [16]float32

// Vec2 is a point or vector in stage units.
type Vec2 struct {
	X, Y float32
}

// minStageExtent is the smallest stage width or height used when deriving
// a projection. Degenerate bounds are widened to this extent around their
// center so the projection stays invertible.
const minStageExtent = 1e-6

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns the orthographic projection mapping the stage rectangle
// to normalized device coordinates, with near=-1 and far=1.
//
// Zero-width or zero-height bounds are widened to minStageExtent around
// their center rather than producing a singular matrix.
func Ortho(left, right, bottom, top float32) Mat4 {
	left, right = clampExtent(left, right)
	bottom, top = clampExtent(bottom, top)

	rl := right - left
	tb := top - bottom

	var m Mat4
	m[0] = 2 / rl
	m[5] = 2 / tb
	m[10] = -1
	m[12] = -(right + left) / rl
	m[13] = -(top + bottom) / tb
	m[15] = 1
	return m
}

// clampExtent widens a degenerate [lo, hi] interval to minStageExtent
// around its center.
func clampExtent(lo, hi float32) (float32, float32) {
	if diff := hi - lo; diff < minStageExtent && diff > -minStageExtent {
		center := (lo + hi) / 2
		return center - minStageExtent/2, center + minStageExtent/2
	}
	return lo, hi
}

// Compose returns the model matrix Translate(x,y) * RotateZ(rotation) *
// Scale(scaleX, scaleY). Rotation is in radians, counterclockwise.
func Compose(x, y, rotation, scaleX, scaleY float32) Mat4 {
	sin, cos := math.Sincos(float64(rotation))
	s := float32(sin)
	c := float32(cos)

	var m Mat4
	m[0] = c * scaleX
	m[1] = s * scaleX
	m[4] = -s * scaleY
	m[5] = c * scaleY
	m[10] = 1
	m[12] = x
	m[13] = y
	m[15] = 1
	return m
}

// Multiply multiplies two matrices (m * other).
func (m Mat4) Multiply(other Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * other[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// TransformPoint applies the transformation to a point (w=1).
func (m Mat4) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		X: m[0]*p.X + m[4]*p.Y + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[13],
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}
