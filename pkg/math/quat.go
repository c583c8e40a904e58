package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// The axis is normalized here; a zero axis yields the identity.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	axis = axis.Normalize()
	if axis == (Vec3{}) {
		return QuatIdentity()
	}
	s, c := math32.Sincos(angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// AxisAngle converts the quaternion back to an axis and an angle in
// radians. The identity rotation maps to axis (0, 0, 0) and angle 0, which
// is what model files use for "no rotation".
func (q Quat) AxisAngle() (Vec3, float32) {
	q = q.Normalize()
	if q.W < 0 {
		q = Quat{-q.X, -q.Y, -q.Z, -q.W}
	}
	s := math32.Sqrt(1 - q.W*q.W)
	if s < 1e-6 {
		return Vec3{}, 0
	}
	angle := 2 * math32.Acos(math32.Min(q.W, 1))
	return Vec3{q.X / s, q.Y / s, q.Z / s}, angle
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.Dot(q))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	// Take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta0 := math32.Acos(dot)
	theta := theta0 * t
	sinTheta := math32.Sin(theta)
	sinTheta0 := math32.Sin(theta0)

	s0 := math32.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// QuatFromMat4 extracts the rotation of a pure rotation matrix.
func QuatFromMat4(m Mat4) Quat {
	// Row/column naming follows the column-major layout of Mat4.
	m00, m11, m22 := m[0], m[5], m[10]
	trace := m00 + m11 + m22
	var q Quat
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = Quat{
			W: s / 4,
			X: (m[6] - m[9]) / s,
			Y: (m[8] - m[2]) / s,
			Z: (m[1] - m[4]) / s,
		}
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		q = Quat{
			W: (m[6] - m[9]) / s,
			X: s / 4,
			Y: (m[4] + m[1]) / s,
			Z: (m[8] + m[2]) / s,
		}
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		q = Quat{
			W: (m[8] - m[2]) / s,
			X: (m[4] + m[1]) / s,
			Y: s / 4,
			Z: (m[9] + m[6]) / s,
		}
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		q = Quat{
			W: (m[1] - m[4]) / s,
			X: (m[8] + m[2]) / s,
			Y: (m[9] + m[6]) / s,
			Z: s / 4,
		}
	}
	return q.Normalize()
}

// LerpVec3 performs linear interpolation between two 3D vectors.
func LerpVec3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
		a[2] + t*(b[2]-a[2]),
	}
}
