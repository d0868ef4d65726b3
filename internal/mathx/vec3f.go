package mathx

import "github.com/chewxy/math32"

// Vec3f is the single-precision vector used for authored point, normal and
// direction arrays.
type Vec3f [3]float32

// F32 narrows a to single precision.
func (a Vec3) F32() Vec3f { return Vec3f{float32(a[0]), float32(a[1]), float32(a[2])} }

// F64 widens a to double precision.
func (a Vec3f) F64() Vec3 { return Vec3{float64(a[0]), float64(a[1]), float64(a[2])} }

func (a Vec3f) Add(b Vec3f) Vec3f { return Vec3f{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3f) Sub(b Vec3f) Vec3f { return Vec3f{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func (a Vec3f) Cross(b Vec3f) Vec3f {
	return Vec3f{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3f) Len() float32 { return math32.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2]) }

// Normalize returns a unit vector, or the zero vector for degenerate input.
func (a Vec3f) Normalize() Vec3f {
	l := a.Len()
	if l < 1e-12 {
		return Vec3f{}
	}
	return Vec3f{a[0] / l, a[1] / l, a[2] / l}
}
