package math

import "github.com/chewxy/math32"

// Mat4 is an affine node transform in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Compose builds translation * rotation * uniform scale, the transform a
// node's position, orientation and scale fields describe.
func Compose(position Vec3, rotation Quat, scale float32) Mat4 {
	m := rotation.ToMat4()
	for i := 0; i < 12; i++ {
		m[i] *= scale
	}
	m[12], m[13], m[14] = position.X, position.Y, position.Z
	return m
}

// Decompose splits an affine matrix with uniform scale into its
// translation, rotation and scale. Shear is discarded.
func (m Mat4) Decompose() (Vec3, Quat, float32) {
	position := m.Translation()
	scale := Vec3{m[0], m[1], m[2]}.Length()
	if scale == 0 {
		return position, QuatIdentity(), 0
	}
	var r Mat4
	for i := 0; i < 12; i++ {
		r[i] = m[i] / scale
	}
	r[15] = 1
	return position, QuatFromMat4(r), scale
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			result[col*4+row] = sum
		}
	}
	return result
}

// TransformVec3 transforms a point, treating m as affine.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

// Inverse returns the inverse of an affine matrix: the inverted upper 3x3
// block and the translation mapped back through it. A singular matrix
// yields the identity.
func (m Mat4) Inverse() Mat4 {
	a, b, c := m[0], m[4], m[8]
	d, e, f := m[1], m[5], m[9]
	g, h, i := m[2], m[6], m[10]

	co00 := e*i - f*h
	co01 := f*g - d*i
	co02 := d*h - e*g
	det := a*co00 + b*co01 + c*co02
	if math32.Abs(det) < 1e-12 {
		return Identity()
	}
	inv := 1 / det

	var out Mat4
	out[0] = co00 * inv
	out[1] = co01 * inv
	out[2] = co02 * inv
	out[4] = (c*h - b*i) * inv
	out[5] = (a*i - c*g) * inv
	out[6] = (b*g - a*h) * inv
	out[8] = (b*f - c*e) * inv
	out[9] = (c*d - a*f) * inv
	out[10] = (a*e - b*d) * inv

	t := m.Translation()
	out[12] = -(out[0]*t.X + out[4]*t.Y + out[8]*t.Z)
	out[13] = -(out[1]*t.X + out[5]*t.Y + out[9]*t.Z)
	out[14] = -(out[2]*t.X + out[6]*t.Y + out[10]*t.Z)
	out[15] = 1
	return out
}
