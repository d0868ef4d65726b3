package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortestArc(t *testing.T) {
	tests := []struct {
		name string
		to   Vec3
	}{
		{"identity", UnitZ},
		{"y axis", UnitY},
		{"negative x", Vec3{-1, 0, 0}},
		{"diagonal", Vec3{1, 1, 1}},
		{"antiparallel", Vec3{0, 0, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ShortestArc(UnitZ, tt.to)
			got := q.Rotate(UnitZ)
			assert.True(t, got.ApproxEqual(tt.to.Normalize(), 1e-9), "got %v", got)
		})
	}
}

func TestShortestArcIsMinimal(t *testing.T) {
	q := ShortestArc(UnitZ, UnitY)
	// A quarter turn about -X.
	want := AxisAngle(Vec3{-1, 0, 0}, math.Pi/2)
	assert.True(t, q.SameRotation(want, 1e-9), "got %v want %v", q, want)
}

func TestEulerSequences(t *testing.T) {
	q, err := Euler(Vec3{0, 0, math.Pi / 2}, "xyz")
	assert.NoError(t, err)
	assert.True(t, q.Rotate(UnitX).ApproxEqual(UnitY, 1e-9))

	// Intrinsic xyz equals extrinsic ZYX with the angles reversed.
	a, _ := Euler(Vec3{0.3, 0.2, 0.1}, "xyz")
	b, _ := Euler(Vec3{0.1, 0.2, 0.3}, "ZYX")
	c, _ := Euler(Vec3{0.3, 0.2, 0.1}, "XYZ")
	assert.True(t, a.SameRotation(b, 1e-9))
	assert.False(t, a.SameRotation(c, 1e-9))

	_, err = Euler(Vec3{}, "xy")
	assert.Error(t, err)
	_, err = Euler(Vec3{}, "xyw")
	assert.Error(t, err)
}

func TestXYAxes(t *testing.T) {
	q := XYAxes(Vec3{0, 1, 0}, Vec3{-1, 0, 0})
	assert.True(t, q.Rotate(UnitX).ApproxEqual(UnitY, 1e-9))
	assert.True(t, q.Rotate(UnitZ).ApproxEqual(UnitZ, 1e-9))
}

func TestVec3fNormalize(t *testing.T) {
	n := Vec3{2, 3, 6}.F32().Normalize()
	assert.InDelta(t, 0.2857143, n[0], 1e-6)
	assert.InDelta(t, 0.4285714, n[1], 1e-6)
	assert.InDelta(t, 0.8571429, n[2], 1e-6)
	assert.Equal(t, Vec3f{}, Vec3f{}.Normalize())
}
