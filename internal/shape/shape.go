// Package shape maps MJCF primitive geom and site kinds onto scene gprims.
//
// MJCF sizes are half-extents; gprims use full extents, so lengths double.
// Box and ellipsoid have no direct sized gprim and are expressed as a unit
// Cube or Sphere carrying a non-uniform scale op.
package shape

import (
	"fmt"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// Attr is one attribute a shape authors.
type Attr struct {
	Name    string
	Type    scene.ValueType
	Value   any
	Uniform bool
}

// Spec is the gprim a geom or site becomes.
type Spec struct {
	TypeName string
	Attrs    []Attr
	// Scale is the non-uniform scale op for box and ellipsoid, else nil.
	Scale *mathx.Vec3f
}

// Map returns the gprim for a primitive geom kind. Mesh, height field and
// SDF geoms have no primitive form; ok is false for them.
func Map(kind mjcf.GeomType, size [3]float64) (spec Spec, ok bool) {
	switch kind {
	case mjcf.GeomPlane:
		return Spec{TypeName: tokens.TypePlane, Attrs: []Attr{
			{Name: tokens.Width, Type: scene.Double, Value: 2 * size[0]},
			{Name: tokens.Length, Type: scene.Double, Value: 2 * size[1]},
			{Name: tokens.Axis, Type: scene.Token, Value: tokens.AxisZ, Uniform: true},
		}}, true
	case mjcf.GeomSphere:
		return Spec{TypeName: tokens.TypeSphere, Attrs: []Attr{
			{Name: tokens.Radius, Type: scene.Double, Value: size[0]},
		}}, true
	case mjcf.GeomCapsule:
		return Spec{TypeName: tokens.TypeCapsule, Attrs: []Attr{
			{Name: tokens.Radius, Type: scene.Double, Value: size[0]},
			{Name: tokens.Height, Type: scene.Double, Value: 2 * size[1]},
		}}, true
	case mjcf.GeomCylinder:
		return Spec{TypeName: tokens.TypeCylinder, Attrs: []Attr{
			{Name: tokens.Radius, Type: scene.Double, Value: size[0]},
			{Name: tokens.Height, Type: scene.Double, Value: 2 * size[1]},
		}}, true
	case mjcf.GeomBox:
		scale := mathx.Vec3(size).F32()
		return Spec{TypeName: tokens.TypeCube, Scale: &scale, Attrs: []Attr{
			{Name: tokens.Size, Type: scene.Double, Value: 2.0},
			{Name: tokens.Extent, Type: scene.Float3Array, Value: []mathx.Vec3f{{-1, -1, -1}, {1, 1, 1}}},
		}}, true
	case mjcf.GeomEllipsoid:
		scale := mathx.Vec3(size).F32()
		return Spec{TypeName: tokens.TypeSphere, Scale: &scale, Attrs: []Attr{
			{Name: tokens.Radius, Type: scene.Double, Value: 1.0},
		}}, true
	}
	return Spec{}, false
}

// SiteKind returns the geom kind whose gprim a site of type t uses.
func SiteKind(t mjcf.SiteType) mjcf.GeomType {
	switch t {
	case mjcf.SiteCapsule:
		return mjcf.GeomCapsule
	case mjcf.SiteEllipsoid:
		return mjcf.GeomEllipsoid
	case mjcf.SiteCylinder:
		return mjcf.GeomCylinder
	case mjcf.SiteBox:
		return mjcf.GeomBox
	}
	return mjcf.GeomSphere
}

// Author writes spec's attributes and the element transform onto p, which
// must already be defined with spec.TypeName.
func Author(p *scene.Prim, spec Spec, xf mjcf.Transform) error {
	if p.TypeName != spec.TypeName {
		return fmt.Errorf("author %s: prim is a %q, shape needs %q", p.Path, p.TypeName, spec.TypeName)
	}
	for _, a := range spec.Attrs {
		attr, err := p.CreateAttribute(a.Name, a.Type)
		if err != nil {
			return err
		}
		attr.Uniform = a.Uniform
		if err := attr.Set(a.Value); err != nil {
			return err
		}
	}
	return p.SetTransform(xf.Pos, xf.Quat, spec.Scale)
}

// DefaultDisplay reports whether rgba equals MJCF's implicit geom color, in
// which case no display primvars are authored.
func DefaultDisplay(rgba [4]float64) bool { return rgba == mjcf.DefaultRGBA }

// AuthorDisplay authors displayColor and, for translucent colors,
// displayOpacity. Nothing is written for the default color.
func AuthorDisplay(p *scene.Prim, rgba [4]float64) error {
	if DefaultDisplay(rgba) {
		return nil
	}
	color := []mathx.Vec3f{{float32(rgba[0]), float32(rgba[1]), float32(rgba[2])}}
	a, err := p.CreateAttribute(tokens.DisplayColor, scene.Color3fArray)
	if err != nil {
		return err
	}
	a.Interpolation = tokens.Constant
	if err := a.Set(color); err != nil {
		return err
	}
	if rgba[3] == 1 {
		return nil
	}
	a, err = p.CreateAttribute(tokens.DisplayOpacity, scene.FloatArray)
	if err != nil {
		return err
	}
	a.Interpolation = tokens.Constant
	return a.Set([]float32{float32(rgba[3])})
}
