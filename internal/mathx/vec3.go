// Package mathx holds the small amount of vector and rotation math the
// translator needs: 3-vectors, unit quaternions and the MJCF orientation
// conventions (quat, axisangle, euler, xyaxes, zaxis).
package mathx

import "math"

// Epsilon is the tolerance used for near-zero and near-parallel checks.
const Epsilon = 1e-9

// Vec3 is a 3-component vector. Value type for zero heap allocation.
type Vec3 [3]float64

var (
	Zero  = Vec3{0, 0, 0}
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{a[0] * s, a[1] * s, a[2] * s} }

// Mul is the component-wise product.
func (a Vec3) Mul(b Vec3) Vec3 { return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]} }

func (a Vec3) Dot(b Vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Len() float64 { return math.Sqrt(a.Dot(a)) }

// Normalize returns a unit vector in the direction of a, or the zero vector
// when a has no length.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l < Epsilon {
		return Zero
	}
	return a.Scale(1 / l)
}

func (a Vec3) IsZero() bool { return a.Len() < Epsilon }

// ApproxEqual reports whether every component of a and b differs by at most tol.
func (a Vec3) ApproxEqual(b Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// Orthogonal returns some unit vector perpendicular to a.
func (a Vec3) Orthogonal() Vec3 {
	// Cross with the basis axis least aligned with a.
	ax, ay, az := math.Abs(a[0]), math.Abs(a[1]), math.Abs(a[2])
	switch {
	case ax <= ay && ax <= az:
		return a.Cross(UnitX).Normalize()
	case ay <= az:
		return a.Cross(UnitY).Normalize()
	default:
		return a.Cross(UnitZ).Normalize()
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 { return r * 180 / math.Pi }
