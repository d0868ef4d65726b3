// Package options maps the <option>, <flag> and <compiler> sections onto the
// single PhysicsScene prim of a translated model.
package options

import (
	"fmt"
	"strings"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// entry copies one source attribute to one scene attribute.
type entry struct {
	src  string
	dst  string
	kind scene.ValueType
	// n is the expected element count of array values; 0 means any.
	n int
}

var optionTable = []entry{
	{src: "timestep", kind: scene.Double},
	{src: "apirate", kind: scene.Double},
	{src: "impratio", kind: scene.Double},
	{src: "tolerance", kind: scene.Double},
	{src: "ls_tolerance", kind: scene.Double},
	{src: "noslip_tolerance", kind: scene.Double},
	{src: "ccd_tolerance", kind: scene.Double},
	{src: "density", kind: scene.Double},
	{src: "viscosity", kind: scene.Double},
	{src: "o_margin", kind: scene.Double},
	{src: "wind", kind: scene.Double3},
	{src: "magnetic", kind: scene.Double3},
	{src: "o_solref", kind: scene.DoubleArray, n: 2},
	{src: "o_solimp", kind: scene.DoubleArray, n: 5},
	{src: "o_friction", kind: scene.DoubleArray, n: 5},
	{src: "integrator", kind: scene.Token},
	{src: "cone", kind: scene.Token},
	{src: "jacobian", kind: scene.Token},
	{src: "solver", kind: scene.Token},
	{src: "iterations", kind: scene.Int},
	{src: "ls_iterations", kind: scene.Int},
	{src: "noslip_iterations", kind: scene.Int},
	{src: "ccd_iterations", kind: scene.Int},
	{src: "sdf_initpoints", kind: scene.Int},
	{src: "sdf_iterations", kind: scene.Int},
}

var flagNames = []string{
	// Disable flags.
	"constraint", "equality", "frictionloss", "limit", "contact", "passive",
	"gravity", "clampctrl", "warmstart", "filterparent", "actuation",
	"refsafe", "sensor", "midphase", "nativeccd", "eulerdamp", "autoreset",
	// Enable flags.
	"override", "energy", "fwdinv", "invdiscrete", "multiccd", "island",
}

var compilerTable = []entry{
	{src: "autolimits", dst: "autoLimits", kind: scene.Bool},
	{src: "usethread", dst: "useThread", kind: scene.Bool},
	{src: "balanceinertia", dst: "balanceInertia", kind: scene.Bool},
	{src: "fitaabb", dst: "fitAABB", kind: scene.Bool},
	{src: "fusestatic", dst: "fuseStatic", kind: scene.Bool},
	{src: "alignfree", dst: "alignFree", kind: scene.Bool},
	{src: "saveinertial", dst: "saveInertial", kind: scene.Bool},
	{src: "boundmass", dst: "boundMass", kind: scene.Double},
	{src: "boundinertia", dst: "boundInertia", kind: scene.Double},
	{src: "settotalmass", dst: "setTotalMass", kind: scene.Double},
	{src: "angle", dst: "angle", kind: scene.Token},
	{src: "inertiafromgeom", dst: "inertiaFromGeom", kind: scene.Token},
}

// DefaultGravity is MJCF's gravity when <option> does not set one.
var DefaultGravity = mathx.Vec3{0, 0, -9.81}

// Author defines root/PhysicsScene and copies every declared option, flag
// and compiler setting onto it. Gravity is always authored.
func Author(s *scene.Store, root scene.Path, m *mjcf.Model) (*scene.Prim, error) {
	p, err := s.DefinePrim(root.AppendChild(tokens.PhysicsScene), tokens.TypePhysicsScene)
	if err != nil {
		return nil, err
	}
	p.ApplyAPI(tokens.MjcSceneAPI)

	opt := m.Option.Attrs
	for _, e := range optionTable {
		if err := copyAttr(p, opt, e, tokens.OptionPrefix+e.src); err != nil {
			return nil, err
		}
	}
	if err := authorGravity(p, opt); err != nil {
		return nil, err
	}

	for _, name := range flagNames {
		raw, ok := m.Option.Flags.Lookup(name)
		if !ok {
			continue
		}
		switch raw {
		case "enable", "disable":
		default:
			return nil, fmt.Errorf("%w: flag %s=%q: want enable or disable", mjcf.ErrMalformed, name, raw)
		}
		if err := p.Set(tokens.FlagPrefix+name, scene.Bool, raw == "enable"); err != nil {
			return nil, err
		}
	}

	comp := m.Compiler.Attrs
	for _, e := range compilerTable {
		if err := copyAttr(p, comp, e, tokens.CompilerPrefix+e.dst); err != nil {
			return nil, err
		}
	}
	if comp.Declared("inertiagrouprange") {
		r, err := comp.Ints("inertiagrouprange")
		if err != nil {
			return nil, err
		}
		if len(r) != 2 {
			return nil, fmt.Errorf("%w: compiler inertiagrouprange needs 2 values", mjcf.ErrMalformed)
		}
		name := tokens.CompilerPrefix + "inertiaGroupRange"
		if err := p.Set(name+":min", scene.Int, r[0]); err != nil {
			return nil, err
		}
		if err := p.Set(name+":max", scene.Int, r[1]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func copyAttr(p *scene.Prim, a mjcf.Attrs, e entry, dst string) error {
	if !a.Declared(e.src) {
		return nil
	}
	var v any
	var err error
	switch e.kind {
	case scene.Bool:
		v, err = a.Bool(e.src, false)
	case scene.Int:
		v, err = a.Int(e.src, 0)
	case scene.Double:
		v, err = a.Float(e.src, 0)
	case scene.Token:
		v = strings.ToLower(a.String(e.src, ""))
	case scene.Double3:
		var xs []float64
		xs, err = a.Floats(e.src, []float64{0, 0, 0})
		if err == nil {
			v = mathx.Vec3{xs[0], xs[1], xs[2]}
		}
	case scene.DoubleArray:
		var xs []float64
		xs, err = a.Floats(e.src, nil)
		if err == nil && e.n > 0 && len(xs) > e.n {
			err = fmt.Errorf("%w: %s has %d values, at most %d", mjcf.ErrMalformed, e.src, len(xs), e.n)
		}
		v = xs
	default:
		return fmt.Errorf("option %s: unsupported type %s", e.src, e.kind)
	}
	if err != nil {
		return err
	}
	return p.Set(dst, e.kind, v)
}

// authorGravity splits the gravity vector into a magnitude and a unit
// direction; a zero vector has no direction.
func authorGravity(p *scene.Prim, opt mjcf.Attrs) error {
	xs, err := opt.Floats("gravity", DefaultGravity[:])
	if err != nil {
		return err
	}
	g := mathx.Vec3{xs[0], xs[1], xs[2]}
	mag := g.Len()
	if err := p.Set(tokens.GravityMagnitude, scene.Float, float32(mag)); err != nil {
		return err
	}
	if g.IsZero() {
		return nil
	}
	return p.Set(tokens.GravityDirection, scene.Vector3f, g.F32().Normalize())
}
