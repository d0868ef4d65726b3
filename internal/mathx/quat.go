package mathx

import (
	"fmt"
	"math"
	"strings"
)

// Quat is a quaternion stored in MJCF order (w, x, y, z).
type Quat [4]float64

// Identity is the no-rotation quaternion.
var Identity = Quat{1, 0, 0, 0}

// Mul returns the Hamilton product q × r (apply r, then q).
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		q[0]*r[0] - q[1]*r[1] - q[2]*r[2] - q[3]*r[3],
		q[0]*r[1] + q[1]*r[0] + q[2]*r[3] - q[3]*r[2],
		q[0]*r[2] - q[1]*r[3] + q[2]*r[0] + q[3]*r[1],
		q[0]*r[3] + q[1]*r[2] - q[2]*r[1] + q[3]*r[0],
	}
}

func (q Quat) Conjugate() Quat { return Quat{q[0], -q[1], -q[2], -q[3]} }

// Normalize returns q scaled to unit length; a zero quaternion becomes Identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < Epsilon {
		return Identity
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Rotate applies the rotation q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := q.Mul(Quat{0, v[0], v[1], v[2]}).Mul(q.Conjugate())
	return Vec3{p[1], p[2], p[3]}
}

// IsIdentity reports whether q represents no rotation (q and -q both count).
func (q Quat) IsIdentity() bool {
	return math.Abs(math.Abs(q[0])-1) < Epsilon &&
		math.Abs(q[1]) < Epsilon && math.Abs(q[2]) < Epsilon && math.Abs(q[3]) < Epsilon
}

// SameRotation reports whether q and r describe the same rotation within tol.
func (q Quat) SameRotation(r Quat, tol float64) bool {
	d := q[0]*r[0] + q[1]*r[1] + q[2]*r[2] + q[3]*r[3]
	return math.Abs(math.Abs(d)-1) <= tol
}

// AxisAngle builds the rotation of angle radians about axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	if axis.IsZero() {
		return Identity
	}
	s := math.Sin(angle / 2)
	return Quat{math.Cos(angle / 2), axis[0] * s, axis[1] * s, axis[2] * s}
}

// ShortestArc returns the minimal rotation that carries from onto to.
// Antiparallel inputs rotate half a turn about an arbitrary perpendicular axis.
func ShortestArc(from, to Vec3) Quat {
	from, to = from.Normalize(), to.Normalize()
	if from.IsZero() || to.IsZero() {
		return Identity
	}
	d := from.Dot(to)
	if d >= 1-Epsilon {
		return Identity
	}
	if d <= -1+Epsilon {
		axis := from.Orthogonal()
		return Quat{0, axis[0], axis[1], axis[2]}
	}
	c := from.Cross(to)
	return Quat{1 + d, c[0], c[1], c[2]}.Normalize()
}

// FromFrame builds the rotation whose columns are the orthonormal basis x, y, z.
func FromFrame(x, y, z Vec3) Quat {
	m00, m11, m22 := x[0], y[1], z[2]
	tr := m00 + m11 + m22
	var q Quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quat{s / 4, (y[2] - z[1]) / s, (z[0] - x[2]) / s, (x[1] - y[0]) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quat{(y[2] - z[1]) / s, s / 4, (y[0] + x[1]) / s, (z[0] + x[2]) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quat{(z[0] - x[2]) / s, (y[0] + x[1]) / s, s / 4, (z[1] + y[2]) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quat{(x[1] - y[0]) / s, (z[0] + x[2]) / s, (z[1] + y[2]) / s, s / 4}
	}
	return q.Normalize()
}

// XYAxes builds the rotation from the MJCF xyaxes form. The y axis is
// orthogonalized against x; z completes the right-handed frame.
func XYAxes(x, y Vec3) Quat {
	x = x.Normalize()
	y = y.Sub(x.Scale(x.Dot(y))).Normalize()
	z := x.Cross(y)
	return FromFrame(x, y, z)
}

// Euler composes three rotations about the axes named by seq. Lowercase
// letters select intrinsic (moving) axes, uppercase extrinsic (fixed) axes.
func Euler(angles Vec3, seq string) (Quat, error) {
	if len(seq) != 3 {
		return Identity, fmt.Errorf("euler sequence %q must have 3 axes", seq)
	}
	q := Identity
	for i, c := range seq {
		var axis Vec3
		switch strings.ToLower(string(c)) {
		case "x":
			axis = UnitX
		case "y":
			axis = UnitY
		case "z":
			axis = UnitZ
		default:
			return Identity, fmt.Errorf("euler sequence %q: invalid axis %q", seq, c)
		}
		r := AxisAngle(axis, angles[i])
		if c >= 'a' && c <= 'z' {
			q = q.Mul(r)
		} else {
			q = r.Mul(q)
		}
	}
	return q.Normalize(), nil
}
