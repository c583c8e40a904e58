package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()

	length := float32(math.Sqrt(float64(n.Dot(n))))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	if r := q1.Slerp(q2, 0); math.Abs(float64(r.W-q1.W)) > 0.001 {
		t.Errorf("Slerp at t=0 should equal q1")
	}
	if r := q1.Slerp(q2, 1); math.Abs(float64(r.W-q2.W)) > 0.001 {
		t.Errorf("Slerp at t=1 should equal q2")
	}

	// Halfway through a 90 degree turn is 45 degrees
	r := q1.Slerp(q2, 0.5)
	expectedW := float32(math.Cos(math.Pi / 8))
	if math.Abs(float64(r.W-expectedW)) > 0.01 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, r.W)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatAxisAngleRoundTrip(t *testing.T) {
	tests := []struct {
		axis  Vec3
		angle float32
	}{
		{Vec3{0, 0, 1}, 0.5},
		{Vec3{1, 0, 0}, 3},
		{Vec3{0, 0.6, 0.8}, 1.25},
	}

	for _, tt := range tests {
		axis, angle := QuatFromAxisAngle(tt.axis, tt.angle).AxisAngle()
		if !axis.ApproxEqual(tt.axis, 1e-4) || abs(angle-tt.angle) > 1e-4 {
			t.Errorf("AxisAngle(%v, %v) = (%v, %v)", tt.axis, tt.angle, axis, angle)
		}
	}
}

func TestQuatAxisAngleIdentity(t *testing.T) {
	axis, angle := QuatIdentity().AxisAngle()
	if axis != (Vec3{}) || angle != 0 {
		t.Errorf("identity AxisAngle = (%v, %v), want zero", axis, angle)
	}
}

func TestQuatFromMat4(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 2, 3}, 2.9)
	got := QuatFromMat4(q.ToMat4())
	if d := got.Dot(q); math.Abs(math.Abs(float64(d))-1) > 1e-4 {
		t.Errorf("QuatFromMat4: got %v, want %v", got, q)
	}
}

func TestLerpVec3(t *testing.T) {
	result := LerpVec3([3]float32{0, 0, 0}, [3]float32{10, 20, 30}, 0.5)
	expected := [3]float32{5, 10, 15}

	for i := 0; i < 3; i++ {
		if math.Abs(float64(result[i]-expected[i])) > 0.001 {
			t.Errorf("LerpVec3 component %d: expected %v, got %v", i, expected[i], result[i])
		}
	}
}
