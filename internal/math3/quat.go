package math3

import "math"

// Quat is a rotation quaternion (w + xi + yj + zk).
type Quat struct {
	W, X, Y, Z float64
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// Mul composes two rotations: q then o applied in o's frame.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

func (q Quat) Length() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns the unit quaternion, or identity if degenerate.
func (q Quat) Normalized() Quat {
	l := q.Length()
	if l == 0 {
		return IdentityQuat()
	}
	return Quat{q.W / l, q.X / l, q.Y / l, q.Z / l}
}

// AxisAngle builds a rotation of angle radians around the given axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalized()
	s := math.Sin(angle / 2)
	return Quat{
		W: math.Cos(angle / 2),
		X: a.X * s,
		Y: a.Y * s,
		Z: a.Z * s,
	}
}

// Integrate advances the orientation by an angular velocity over dt using
// first-order quaternion integration, then renormalizes.
func (q Quat) Integrate(angVel Vec3, dt float64) Quat {
	omega := Quat{W: 0, X: angVel.X, Y: angVel.Y, Z: angVel.Z}
	dq := omega.Mul(q)
	return Quat{
		W: q.W + 0.5*dt*dq.W,
		X: q.X + 0.5*dt*dq.X,
		Y: q.Y + 0.5*dt*dq.Y,
		Z: q.Z + 0.5*dt*dq.Z,
	}.Normalized()
}
