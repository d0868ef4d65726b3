// Package kinematics turns the MJCF body tree into a prim hierarchy: one
// Xform per body, physics joints between bodies, collider and mass schemas
// on geoms, and articulation roots on the articulated world children.
//
// Geom and site prims themselves are defined by the caller through
// ElementAuthor; this package only decides where they go and what physics
// they carry.
package kinematics

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// ElementAuthor defines the prims of geoms and sites. Each method returns
// the gprim that carries the element's shape: the shape prim itself for
// primitives, the nested Mesh for mesh geoms. A nil prim means the element
// had no shape to author and gets no physics.
type ElementAuthor interface {
	Geom(parent scene.Path, g *mjcf.Geom, xf mjcf.Transform) (*scene.Prim, error)
	Site(parent scene.Path, s *mjcf.Site, xf mjcf.Transform) (*scene.Prim, error)
}

// Namer hands out prim names and records named entities.
type Namer interface {
	// Claim returns a valid identifier for name that no earlier sibling
	// under parent uses.
	Claim(parent scene.Path, name string) string
	// Register records the prim authored for the MJCF element tag/name.
	Register(tag, name string, p scene.Path)
}

// Builder authors the world body under Root.
type Builder struct {
	Store    *scene.Store
	Root     scene.Path
	Compiler mjcf.Compiler
	Assets   *mjcf.Assets
	Elements ElementAuthor
	Names    Namer

	// Classes maps non-root default class names to their class prims.
	Classes map[string]scene.Path

	// Warn receives dropped features. May be nil.
	Warn func(path scene.Path, msg string)

	tops []*topBody
}

// topBody tracks one world child for articulation-root placement.
type topBody struct {
	path        scene.Path
	nested      bool
	unsupported bool
}

// scope is where the children of a body or frame are authored.
type scope struct {
	prim  scene.Path
	body  scene.Path // enclosing body prim; empty for the world
	depth int
	top   *topBody
}

func (b *Builder) warn(p scene.Path, format string, args ...any) {
	if b.Warn != nil {
		b.Warn(p, fmt.Sprintf(format, args...))
	}
}

// BuildWorld authors everything below <worldbody> in document order.
// Cancellation is checked before each world child body.
func (b *Builder) BuildWorld(ctx context.Context, world *mjcf.Body) error {
	root, err := b.Store.Ensure(b.Root, tokens.TypeXform)
	if err != nil {
		return err
	}
	root.Kind = tokens.KindGroup
	if world == nil {
		return nil
	}
	return b.children(ctx, scope{prim: root.Path}, world.Children, mjcf.IdentityTransform)
}

func (b *Builder) children(ctx context.Context, sc scope, children []mjcf.BodyChild, xf mjcf.Transform) error {
	for _, c := range children {
		var err error
		switch c := c.(type) {
		case *mjcf.Body:
			if sc.depth == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			err = b.body(ctx, sc, c, xf.Compose(c.Transform))
		case *mjcf.Frame:
			err = b.children(ctx, sc, c.Children, xf.Compose(c.Transform))
		case *mjcf.Geom:
			err = b.geom(sc, c, xf.Compose(c.Transform))
		case *mjcf.Site:
			_, err = b.Elements.Site(sc.prim, c, xf.Compose(c.Transform))
		case *mjcf.Joint:
			// Authored with the owning body.
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func (b *Builder) body(ctx context.Context, sc scope, body *mjcf.Body, xf mjcf.Transform) error {
	name := b.Names.Claim(sc.prim, nameOr(body.Name, "body"))
	p, err := b.Store.DefinePrim(sc.prim.AppendChild(name), tokens.TypeXform)
	if err != nil {
		return err
	}
	top := sc.top
	if sc.depth == 0 {
		p.Kind = tokens.KindComponent
		top = &topBody{path: p.Path}
		b.tops = append(b.tops, top)
	} else {
		p.Kind = tokens.KindSubcomponent
		top.nested = true
	}
	if err := p.SetTransform(xf.Pos, xf.Quat, nil); err != nil {
		return err
	}
	p.ApplyAPI(tokens.RigidBodyAPI)
	if body.Name != "" {
		b.Names.Register(mjcf.TagBody, body.Name, p.Path)
	}
	if body.Inertial != nil {
		if err := authorInertial(p, body.Inertial); err != nil {
			return err
		}
	}

	inner := scope{prim: p.Path, body: p.Path, depth: sc.depth + 1, top: top}
	if err := b.joints(inner, sc.body, xf, collectJoints(body.Children, mjcf.IdentityTransform)); err != nil {
		return err
	}
	return b.children(ctx, inner, body.Children, mjcf.IdentityTransform)
}

// authorInertial applies the explicit <inertial> override to the body.
func authorInertial(p *scene.Prim, in *mjcf.Inertial) error {
	p.ApplyAPI(tokens.MassAPI)
	if err := p.Set(tokens.Mass, scene.Float, float32(in.Mass)); err != nil {
		return err
	}
	if err := p.Set(tokens.CenterOfMass, scene.Point3f, in.Pos.F32()); err != nil {
		return err
	}
	if in.HasDiag {
		if err := p.Set(tokens.DiagonalInertia, scene.Float3, in.DiagInertia.F32()); err != nil {
			return err
		}
	}
	if !in.Quat.IsIdentity() {
		return p.Set(tokens.PrincipalAxes, scene.Quatf, scene.QuatF(in.Quat))
	}
	return nil
}

// placedJoint is a joint with its anchor and axis in the body frame.
type placedJoint struct {
	*mjcf.Joint
	pos  mathx.Vec3
	axis mathx.Vec3
}

// collectJoints gathers the joints of a body, including those nested in
// frames, in document order.
func collectJoints(children []mjcf.BodyChild, xf mjcf.Transform) []placedJoint {
	var out []placedJoint
	for _, c := range children {
		switch c := c.(type) {
		case *mjcf.Joint:
			out = append(out, placedJoint{
				Joint: c,
				pos:   xf.Compose(mjcf.Transform{Pos: c.Pos, Quat: mathx.Identity}).Pos,
				axis:  xf.Quat.Rotate(c.Axis),
			})
		case *mjcf.Frame:
			out = append(out, collectJoints(c.Children, xf.Compose(c.Transform))...)
		}
	}
	return out
}

// joints connects the body in sc to parent. A body without joints is welded
// with a FixedJoint; a free first joint means no connector at all.
func (b *Builder) joints(sc scope, parent scene.Path, offset mjcf.Transform, placed []placedJoint) error {
	if len(placed) == 0 {
		return b.fixedJoint(sc, parent, offset)
	}
	if placed[0].Type == mjcf.JointFree {
		return nil
	}
	for _, j := range placed {
		switch j.Type {
		case mjcf.JointHinge, mjcf.JointSlide:
			if err := b.joint(sc, parent, offset, j); err != nil {
				return err
			}
		default:
			sc.top.unsupported = true
			b.warn(sc.prim, "%s joint %q is not supported and was dropped", j.Type, j.Name)
		}
	}
	return nil
}

func connect(p *scene.Prim, parent, child scene.Path) {
	body0 := p.CreateRelationship(tokens.Body0)
	if parent != "" {
		body0.AddTarget(parent)
	}
	p.CreateRelationship(tokens.Body1).AddTarget(child)
}

func (b *Builder) fixedJoint(sc scope, parent scene.Path, offset mjcf.Transform) error {
	name := b.Names.Claim(sc.prim, tokens.FixedJoint)
	p, err := b.Store.DefinePrim(sc.prim.AppendChild(name), tokens.TypeFixedJoint)
	if err != nil {
		return err
	}
	connect(p, parent, sc.body)
	if !offset.Pos.IsZero() {
		if err := p.Set(tokens.LocalPos0, scene.Point3f, offset.Pos.F32()); err != nil {
			return err
		}
	}
	if !offset.Quat.IsIdentity() {
		return p.Set(tokens.LocalRot0, scene.Quatf, scene.QuatF(offset.Quat))
	}
	return nil
}

func (b *Builder) joint(sc scope, parent scene.Path, offset mjcf.Transform, j placedJoint) error {
	typeName := tokens.TypeRevoluteJoint
	if j.Type == mjcf.JointSlide {
		typeName = tokens.TypePrismaticJoint
	}
	name := b.Names.Claim(sc.prim, nameOr(j.Name, j.Type.String()))
	p, err := b.Store.DefinePrim(sc.prim.AppendChild(name), typeName)
	if err != nil {
		return err
	}
	if j.Name != "" {
		b.Names.Register(mjcf.TagJoint, j.Name, p.Path)
	}
	if cls, ok := b.Classes[j.Class]; ok {
		p.AddInherit(cls)
	}
	p.ApplyAPI(tokens.MjcJointAPI)
	connect(p, parent, sc.body)

	// The joint's Z axis is aligned with its MJCF axis on both sides.
	rot := scene.QuatF(mathx.ShortestArc(mathx.UnitZ, j.axis))
	set := []struct {
		name string
		typ  scene.ValueType
		v    any
	}{
		{tokens.LocalPos0, scene.Point3f, offset.Pos.Add(j.pos).F32()},
		{tokens.LocalPos1, scene.Point3f, j.pos.F32()},
		{tokens.LocalRot0, scene.Quatf, rot},
		{tokens.LocalRot1, scene.Quatf, rot},
	}
	for _, s := range set {
		if err := p.Set(s.name, s.typ, s.v); err != nil {
			return err
		}
	}
	axis, err := p.CreateAttribute(tokens.JointAxis, scene.Token)
	if err != nil {
		return err
	}
	axis.Uniform = true
	if err := axis.Set(tokens.AxisZ); err != nil {
		return err
	}

	if j.IsLimited(b.Compiler.AutoLimits) {
		lo, hi := j.Range[0], j.Range[1]
		if j.Type == mjcf.JointHinge {
			lo, hi = b.Compiler.ToDegrees(lo), b.Compiler.ToDegrees(hi)
		}
		if err := p.Set(tokens.LowerLimit, scene.Float, float32(lo)); err != nil {
			return err
		}
		if err := p.Set(tokens.UpperLimit, scene.Float, float32(hi)); err != nil {
			return err
		}
	}
	return authorJointAPI(p, j.Joint)
}

// authorJointAPI writes the MjcJointAPI attributes that differ from MJCF's
// defaults.
func authorJointAPI(p *scene.Prim, j *mjcf.Joint) error {
	w := attrWriter{p: p}
	w.int(tokens.Group, j.Group, 0)
	w.doubles(tokens.SpringDamper, j.SpringDamper, []float64{0, 0})
	w.doubles(tokens.SolRefLimit, j.SolRefLimit, mjcf.DefaultSolRef)
	w.doubles(tokens.SolImpLimit, j.SolImpLimit, mjcf.DefaultSolImp)
	w.doubles(tokens.SolRefFriction, j.SolRefFriction, mjcf.DefaultSolRef)
	w.doubles(tokens.SolImpFriction, j.SolImpFriction, mjcf.DefaultSolImp)
	w.double(tokens.Stiffness, j.Stiffness, 0)
	w.double(tokens.Damping, j.Damping, 0)
	w.double(tokens.Armature, j.Armature, 0)
	w.double(tokens.FrictionLoss, j.FrictionLoss, 0)
	w.double(tokens.Ref, j.Ref, 0)
	w.double(tokens.SpringRef, j.SpringRef, 0)
	w.double(tokens.Margin, j.Margin, 0)
	if j.ActuatorFrcRange != [2]float64{} {
		w.double(tokens.ActuatorFrcRange+":min", j.ActuatorFrcRange[0], 0)
		w.double(tokens.ActuatorFrcRange+":max", j.ActuatorFrcRange[1], 0)
	}
	if j.ActuatorFrcLimited != mjcf.Auto {
		w.set(tokens.ActuatorFrcLimited, scene.Token, j.ActuatorFrcLimited.String())
	}
	if j.ActuatorGravComp {
		w.set(tokens.ActuatorGravComp, scene.Bool, true)
	}
	return w.err
}

// attrWriter authors values that differ from their defaults and keeps the
// first error.
type attrWriter struct {
	p   *scene.Prim
	err error
}

func (w *attrWriter) set(name string, t scene.ValueType, v any) {
	if w.err == nil {
		w.err = w.p.Set(name, t, v)
	}
}

func (w *attrWriter) int(name string, v, def int) {
	if v != def {
		w.set(name, scene.Int, v)
	}
}

func (w *attrWriter) double(name string, v, def float64) {
	if v != def {
		w.set(name, scene.Double, v)
	}
}

func (w *attrWriter) doubles(name string, v, def []float64) {
	if !slices.Equal(v, def) {
		w.set(name, scene.DoubleArray, v)
	}
}

func (w *attrWriter) bool(name string, v, def bool) {
	if v != def {
		w.set(name, scene.Bool, v)
	}
}

// geom authors g through the ElementAuthor and adds its physics.
func (b *Builder) geom(sc scope, g *mjcf.Geom, xf mjcf.Transform) error {
	p, err := b.Elements.Geom(sc.prim, g, xf)
	if err != nil || p == nil {
		return err
	}
	if g.Group != 0 {
		p.ApplyAPI(tokens.MjcImageableAPI)
		if err := p.Set(tokens.Group, scene.Int, g.Group); err != nil {
			return err
		}
	}
	if g.Collides() {
		if err := b.collider(p, g); err != nil {
			return err
		}
	}
	if g.HasMass || g.HasDensity {
		p.ApplyAPI(tokens.MassAPI)
	}
	if g.HasMass {
		if err := p.Set(tokens.Mass, scene.Float, float32(g.Mass)); err != nil {
			return err
		}
	}
	if g.HasDensity {
		return p.Set(tokens.Density, scene.Float, float32(g.Density))
	}
	return nil
}

func (b *Builder) collider(p *scene.Prim, g *mjcf.Geom) error {
	p.ApplyAPI(tokens.CollisionAPI)
	p.ApplyAPI(tokens.MjcCollisionAPI)
	w := attrWriter{p: p}
	w.int(tokens.Group, g.Group, 0)
	w.int(tokens.Priority, g.Priority, 0)
	w.int(tokens.CondIm, g.CondIm, 3)
	w.double(tokens.SolMix, g.SolMix, 1)
	w.doubles(tokens.SolRef, g.SolRef, mjcf.DefaultSolRef)
	w.doubles(tokens.SolImp, g.SolImp, mjcf.DefaultSolImp)
	w.double(tokens.Margin, g.Margin, 0)
	w.double(tokens.Gap, g.Gap, 0)
	w.bool(tokens.ShellInertia, g.ShellInertia, false)
	if w.err != nil || g.Type != mjcf.GeomMesh {
		return w.err
	}

	p.ApplyAPI(tokens.MeshCollisionAPI)
	p.ApplyAPI(tokens.MjcMeshCollisionAPI)
	approx, err := p.CreateAttribute(tokens.Approximation, scene.Token)
	if err != nil {
		return err
	}
	approx.Uniform = true
	if err := approx.Set(tokens.ConvexHull); err != nil {
		return err
	}
	m := b.Assets.Mesh(g.Mesh)
	if m == nil {
		return fmt.Errorf("%w: mesh %q", mjcf.ErrUnknownAsset, g.Mesh)
	}
	w.set(tokens.Inertia, scene.Token, m.Inertia)
	w.int(tokens.MaxHullVert, m.MaxHullVert, -1)
	return w.err
}

// InsertArticulationRoots applies the articulation root to every world
// child that has at least one descendant body and no unsupported joint in
// its subtree. It returns the number of roots applied.
func (b *Builder) InsertArticulationRoots() int {
	n := 0
	for _, top := range b.tops {
		if !top.nested || top.unsupported {
			continue
		}
		p, err := b.Store.GetPrim(top.path)
		if err != nil {
			continue
		}
		if p.ApplyAPI(tokens.ArticulationRootAPI) {
			n++
		}
	}
	return n
}
