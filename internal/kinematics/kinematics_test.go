package kinematics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// fakeNames dedupes by counting and records registrations.
type fakeNames struct {
	used       map[scene.Path]int
	registered map[string]scene.Path
}

func (n *fakeNames) Claim(parent scene.Path, name string) string {
	p := parent.AppendChild(scene.MakeValidIdentifier(name))
	k := n.used[p]
	n.used[p]++
	if k == 0 {
		return p.Name()
	}
	return fmt.Sprintf("%s_%d", p.Name(), k)
}

func (n *fakeNames) Register(tag, name string, p scene.Path) {
	n.registered[tag+":"+name] = p
}

// fakeElements defines every geom as a Sphere, mesh geoms as Xform + Mesh.
type fakeElements struct {
	store *scene.Store
	names *fakeNames
}

func (e *fakeElements) Geom(parent scene.Path, g *mjcf.Geom, xf mjcf.Transform) (*scene.Prim, error) {
	name := e.names.Claim(parent, g.Name)
	if g.Type == mjcf.GeomMesh {
		x, err := e.store.DefinePrim(parent.AppendChild(name), tokens.TypeXform)
		if err != nil {
			return nil, err
		}
		return e.store.DefinePrim(x.Path.AppendChild(tokens.MeshPrim), tokens.TypeMesh)
	}
	p, err := e.store.DefinePrim(parent.AppendChild(name), tokens.TypeSphere)
	if err != nil {
		return nil, err
	}
	return p, p.SetTransform(xf.Pos, xf.Quat, nil)
}

func (e *fakeElements) Site(parent scene.Path, s *mjcf.Site, xf mjcf.Transform) (*scene.Prim, error) {
	return e.store.DefinePrim(parent.AppendChild(e.names.Claim(parent, s.Name)), tokens.TypeSphere)
}

type built struct {
	store    *scene.Store
	builder  *Builder
	names    *fakeNames
	warnings []string
}

func build(t *testing.T, doc string) *built {
	t.Helper()
	el, err := mjcf.ParseString(doc)
	require.NoError(t, err)
	m, err := mjcf.Load(el)
	require.NoError(t, err)

	s := scene.NewStore()
	names := &fakeNames{used: map[scene.Path]int{}, registered: map[string]scene.Path{}}
	out := &built{store: s, names: names}
	out.builder = &Builder{
		Store:    s,
		Root:     "/test",
		Compiler: m.Compiler,
		Assets:   &m.Assets,
		Elements: &fakeElements{store: s, names: names},
		Names:    names,
		Classes:  map[string]scene.Path{"arm": "/__class__/arm"},
		Warn:     func(_ scene.Path, msg string) { out.warnings = append(out.warnings, msg) },
	}
	require.NoError(t, out.builder.BuildWorld(context.Background(), m.World))
	out.builder.InsertArticulationRoots()
	return out
}

func (b *built) prim(t *testing.T, path string) *scene.Prim {
	t.Helper()
	p, err := b.store.GetPrim(scene.Path(path))
	require.NoError(t, err, path)
	return p
}

func value(t *testing.T, p *scene.Prim, name string) any {
	t.Helper()
	a := p.Attribute(name)
	require.NotNil(t, a, "%s missing %s", p.Path, name)
	v, ok := a.Get()
	require.True(t, ok)
	return v
}

func TestBodyHierarchyAndKinds(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <geom name="floor" type="plane" size="1 1 0.1"/>
    <body name="parent" pos="1 2 3">
      <frame pos="0 0 1">
        <body name="child"/>
      </frame>
      <geom name="g" size="1"/>
    </body>
  </worldbody>
</mujoco>`)

	assert.Equal(t, tokens.KindGroup, b.prim(t, "/test").Kind)
	assert.Equal(t, tokens.KindComponent, b.prim(t, "/test/parent").Kind)
	assert.Equal(t, tokens.KindSubcomponent, b.prim(t, "/test/parent/child").Kind)

	// Frames make no prims; their transform moves into the child body.
	assert.Equal(t, mathx.Vec3{0, 0, 1}, value(t, b.prim(t, "/test/parent/child"), tokens.Translate))
	assert.True(t, b.store.HasPrim("/test/parent/g"))

	floor := b.prim(t, "/test/floor")
	assert.True(t, floor.HasAPI(tokens.CollisionAPI))
	assert.False(t, floor.HasAPI(tokens.RigidBodyAPI))

	for _, p := range []string{"/test/parent", "/test/parent/child"} {
		assert.True(t, b.prim(t, p).HasAPI(tokens.RigidBodyAPI), p)
	}
	assert.Equal(t, scene.Path("/test/parent/child"), b.names.registered["body:child"])
}

func TestFixedJoints(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="parent">
      <body name="child" pos="0 0 1">
        <body name="grandchild"/>
      </body>
    </body>
  </worldbody>
</mujoco>`)

	fixed := b.prim(t, "/test/parent/FixedJoint")
	assert.Equal(t, tokens.TypeFixedJoint, fixed.TypeName)
	assert.Empty(t, fixed.Relationship(tokens.Body0).Targets())
	assert.Equal(t, []scene.Path{"/test/parent"}, fixed.Relationship(tokens.Body1).Targets())

	fixed = b.prim(t, "/test/parent/child/FixedJoint")
	assert.Equal(t, []scene.Path{"/test/parent"}, fixed.Relationship(tokens.Body0).Targets())
	assert.Equal(t, []scene.Path{"/test/parent/child"}, fixed.Relationship(tokens.Body1).Targets())
	assert.Equal(t, mathx.Vec3f{0, 0, 1}, value(t, fixed, tokens.LocalPos0))

	fixed = b.prim(t, "/test/parent/child/grandchild/FixedJoint")
	assert.Equal(t, []scene.Path{"/test/parent/child"}, fixed.Relationship(tokens.Body0).Targets())
}

func TestFreeJointHasNoConnector(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="floating">
      <freejoint/>
      <body name="child"><joint name="hinge"/></body>
    </body>
  </worldbody>
</mujoco>`)

	floating := b.prim(t, "/test/floating")
	for _, c := range floating.Children() {
		p := b.prim(t, string(c))
		assert.NotEqual(t, tokens.TypeFixedJoint, p.TypeName)
	}
	assert.True(t, b.store.HasPrim("/test/floating/child/hinge"))
	assert.True(t, floating.HasAPI(tokens.ArticulationRootAPI))
}

func TestRevoluteAndPrismaticJoints(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <default>
    <default class="arm"><joint damping="1"/></default>
  </default>
  <worldbody>
    <body name="root_body">
      <joint name="hinge_root"/>
      <body name="child">
        <joint name="slider" type="slide" limited="true" range="-2.5 2.5"/>
        <joint name="elbow" type="hinge" class="arm" range="-30 45"/>
      </body>
    </body>
  </worldbody>
</mujoco>`)

	root := b.prim(t, "/test/root_body/hinge_root")
	assert.Equal(t, tokens.TypeRevoluteJoint, root.TypeName)
	assert.Empty(t, root.Relationship(tokens.Body0).Targets())
	assert.Equal(t, []scene.Path{"/test/root_body"}, root.Relationship(tokens.Body1).Targets())
	assert.Nil(t, root.Attribute(tokens.LowerLimit), "no range means unlimited")
	assert.Equal(t, tokens.AxisZ, value(t, root, tokens.JointAxis))
	assert.True(t, root.Attribute(tokens.JointAxis).Uniform)
	assert.True(t, root.HasAPI(tokens.MjcJointAPI))

	slider := b.prim(t, "/test/root_body/child/slider")
	assert.Equal(t, tokens.TypePrismaticJoint, slider.TypeName)
	assert.Equal(t, []scene.Path{"/test/root_body"}, slider.Relationship(tokens.Body0).Targets())
	assert.Equal(t, float32(-2.5), value(t, slider, tokens.LowerLimit))
	assert.Equal(t, float32(2.5), value(t, slider, tokens.UpperLimit))

	// autolimits defaults on, so a declared range limits the joint.
	elbow := b.prim(t, "/test/root_body/child/elbow")
	assert.Equal(t, float32(-30), value(t, elbow, tokens.LowerLimit))
	assert.Equal(t, float32(45), value(t, elbow, tokens.UpperLimit))
	assert.Equal(t, []scene.Path{"/__class__/arm"}, elbow.Inherits())
	assert.Equal(t, scene.Path("/test/root_body/child/elbow"), b.names.registered["joint:elbow"])
}

func TestRadianLimits(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <compiler angle="radian"/>
  <worldbody>
    <body name="b">
      <joint name="j" limited="true" range="-3.141592653589793 0.7853981633974483"/>
    </body>
  </worldbody>
</mujoco>`)

	j := b.prim(t, "/test/b/j")
	assert.InDelta(t, -180, value(t, j, tokens.LowerLimit), 1e-4)
	assert.InDelta(t, 45, value(t, j, tokens.UpperLimit), 1e-4)
}

func TestJointFrames(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="parent">
      <body name="child0" pos="1 0 0">
        <joint name="j0" pos="0.1 0.2 0.3" axis="0 1 0"/>
      </body>
      <body name="child1" pos="2 3 4">
        <joint name="j1" pos="0.4 0.5 0.6" axis="-1 0 0"/>
      </body>
      <body name="child2" pos="5 6 7">
        <joint name="j2" pos="0.7 0.8 0.9" axis="1 1 1"/>
      </body>
    </body>
  </worldbody>
</mujoco>`)

	tests := []struct {
		path       string
		pos0, pos1 mathx.Vec3
		axis       mathx.Vec3
	}{
		{"/test/parent/child0/j0", mathx.Vec3{1.1, 0.2, 0.3}, mathx.Vec3{0.1, 0.2, 0.3}, mathx.Vec3{0, 1, 0}},
		{"/test/parent/child1/j1", mathx.Vec3{2.4, 3.5, 4.6}, mathx.Vec3{0.4, 0.5, 0.6}, mathx.Vec3{-1, 0, 0}},
		{"/test/parent/child2/j2", mathx.Vec3{5.7, 6.8, 7.9}, mathx.Vec3{0.7, 0.8, 0.9}, mathx.Vec3{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			j := b.prim(t, tt.path)
			pos0 := value(t, j, tokens.LocalPos0).(mathx.Vec3f)
			pos1 := value(t, j, tokens.LocalPos1).(mathx.Vec3f)
			assert.True(t, pos0.F64().ApproxEqual(tt.pos0, 1e-5), "localPos0 %v", pos0)
			assert.True(t, pos1.F64().ApproxEqual(tt.pos1, 1e-5), "localPos1 %v", pos1)

			want := mathx.ShortestArc(mathx.UnitZ, tt.axis.Normalize())
			for _, name := range []string{tokens.LocalRot0, tokens.LocalRot1} {
				q := value(t, j, name).(scene.Quat4f)
				got := mathx.Quat{float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])}
				assert.True(t, got.SameRotation(want, 1e-5), "%s %v", name, q)
			}
		})
	}
}

func TestJointAPIElision(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="b">
      <joint name="plain"/>
      <joint name="tuned" group="2" stiffness="3" damping="0.5" armature="0.1"
             frictionloss="0.2" ref="0.3" springref="0.4" margin="0.01"
             springdamper="0.5 1" solreflimit="0.03 2" solimplimit="0.8 0.9 0.01 0.4 3"
             solreffriction="0.04 1.5" solimpfriction="0.7 0.8 0.02 0.3 4"
             actuatorfrcrange="-1 1" actuatorfrclimited="true" actuatorgravcomp="true"/>
    </body>
  </worldbody>
</mujoco>`)

	plain := b.prim(t, "/test/b/plain")
	for _, name := range []string{tokens.Group, tokens.Stiffness, tokens.SolRefLimit, tokens.ActuatorFrcLimited, tokens.ActuatorGravComp} {
		assert.Nil(t, plain.Attribute(name), name)
	}

	tuned := b.prim(t, "/test/b/tuned")
	want := map[string]any{
		tokens.Group:                     2,
		tokens.Stiffness:                 3.0,
		tokens.Damping:                   0.5,
		tokens.Armature:                  0.1,
		tokens.FrictionLoss:              0.2,
		tokens.Ref:                       0.3,
		tokens.SpringRef:                 0.4,
		tokens.Margin:                    0.01,
		tokens.SpringDamper:              []float64{0.5, 1},
		tokens.SolRefLimit:               []float64{0.03, 2},
		tokens.SolImpLimit:               []float64{0.8, 0.9, 0.01, 0.4, 3},
		tokens.SolRefFriction:            []float64{0.04, 1.5},
		tokens.SolImpFriction:            []float64{0.7, 0.8, 0.02, 0.3, 4},
		tokens.ActuatorFrcRange + ":min": -1.0,
		tokens.ActuatorFrcRange + ":max": 1.0,
		tokens.ActuatorFrcLimited:        tokens.True,
		tokens.ActuatorGravComp:          true,
	}
	for name, v := range want {
		assert.Equal(t, v, value(t, tuned, name), name)
	}
}

func TestBallJointIsDropped(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="arm">
      <body name="wrist"><joint name="ball" type="ball"/></body>
    </body>
  </worldbody>
</mujoco>`)

	assert.False(t, b.store.HasPrim("/test/arm/wrist/ball"))
	assert.False(t, b.store.HasPrim("/test/arm/wrist/FixedJoint"))
	assert.False(t, b.prim(t, "/test/arm").HasAPI(tokens.ArticulationRootAPI))
	require.Len(t, b.warnings, 1)
	assert.Contains(t, b.warnings[0], "ball")
}

func TestArticulationRoots(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="body_0">
      <freejoint/>
      <body name="body_0_0"><joint/></body>
    </body>
    <body name="body_1"/>
    <frame>
      <body name="body_2"><body name="body_2_0"/></body>
    </frame>
  </worldbody>
</mujoco>`)

	assert.Equal(t, 2, len(b.store.PrimsWithAPI(tokens.ArticulationRootAPI)))
	assert.True(t, b.prim(t, "/test/body_0").HasAPI(tokens.ArticulationRootAPI))
	assert.True(t, b.prim(t, "/test/body_2").HasAPI(tokens.ArticulationRootAPI))
	assert.False(t, b.prim(t, "/test/body_1").HasAPI(tokens.ArticulationRootAPI))
	assert.False(t, b.prim(t, "/test").HasAPI(tokens.ArticulationRootAPI))
	assert.False(t, b.prim(t, "/test/body_0/body_0_0").HasAPI(tokens.ArticulationRootAPI))

	// A second pass applies nothing new.
	assert.Equal(t, 0, b.builder.InsertArticulationRoots())
}

func TestColliders(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <asset>
    <mesh name="tet" vertex="0 0 0  1 0 0  0 1 0  0 0 1" inertia="convex" maxhullvert="12"/>
  </asset>
  <worldbody>
    <body name="b">
      <geom name="box" type="box" size="1 1 1" group="4" priority="2" condim="4"
            solmix="0.5" solref="0.01 0.5" solimp="0.8 0.9 0.01 0.4 3"
            margin="0.8" gap="0.9" shellinertia="true" mass="0.1"/>
      <geom name="ghost" contype="0" conaffinity="0" group="4"/>
      <geom name="plain" density="1234"/>
      <geom name="tet_geom" mesh="tet"/>
    </body>
  </worldbody>
</mujoco>`)

	box := b.prim(t, "/test/b/box")
	assert.True(t, box.HasAPI(tokens.CollisionAPI))
	assert.True(t, box.HasAPI(tokens.MjcCollisionAPI))
	want := map[string]any{
		tokens.Group:        4,
		tokens.Priority:     2,
		tokens.CondIm:       4,
		tokens.SolMix:       0.5,
		tokens.SolRef:       []float64{0.01, 0.5},
		tokens.SolImp:       []float64{0.8, 0.9, 0.01, 0.4, 3},
		tokens.Margin:       0.8,
		tokens.Gap:          0.9,
		tokens.ShellInertia: true,
		tokens.Mass:         float32(0.1),
	}
	for name, v := range want {
		assert.Equal(t, v, value(t, box, name), name)
	}
	assert.False(t, b.prim(t, "/test/b").HasAPI(tokens.MassAPI))

	ghost := b.prim(t, "/test/b/ghost")
	assert.False(t, ghost.HasAPI(tokens.CollisionAPI))
	assert.True(t, ghost.HasAPI(tokens.MjcImageableAPI))
	assert.Equal(t, 4, value(t, ghost, tokens.Group))

	plain := b.prim(t, "/test/b/plain")
	assert.Equal(t, float32(1234), value(t, plain, tokens.Density))
	assert.Nil(t, plain.Attribute(tokens.CondIm))

	mesh := b.prim(t, "/test/b/tet_geom/Mesh")
	for _, api := range []string{tokens.CollisionAPI, tokens.MeshCollisionAPI, tokens.MjcMeshCollisionAPI} {
		assert.True(t, mesh.HasAPI(api), api)
	}
	assert.False(t, b.prim(t, "/test/b/tet_geom").HasAPI(tokens.CollisionAPI))
	assert.Equal(t, tokens.ConvexHull, value(t, mesh, tokens.Approximation))
	assert.Equal(t, "convex", value(t, mesh, tokens.Inertia))
	assert.Equal(t, 12, value(t, mesh, tokens.MaxHullVert))
}

func TestBodyInertial(t *testing.T) {
	b := build(t, `
<mujoco model="test">
  <worldbody>
    <body name="b">
      <inertial pos="1 2 3" mass="3" diaginertia="0.1 0.2 0.3"/>
    </body>
  </worldbody>
</mujoco>`)

	body := b.prim(t, "/test/b")
	assert.True(t, body.HasAPI(tokens.MassAPI))
	assert.Equal(t, float32(3), value(t, body, tokens.Mass))
	assert.Equal(t, mathx.Vec3f{1, 2, 3}, value(t, body, tokens.CenterOfMass))
	assert.Equal(t, mathx.Vec3f{0.1, 0.2, 0.3}, value(t, body, tokens.DiagonalInertia))
	assert.Nil(t, body.Attribute(tokens.PrincipalAxes))
}

func TestBuildWorldHonorsCancellation(t *testing.T) {
	el, err := mjcf.ParseString(`<mujoco model="test"><worldbody><body name="b"/></worldbody></mujoco>`)
	require.NoError(t, err)
	m, err := mjcf.Load(el)
	require.NoError(t, err)

	s := scene.NewStore()
	names := &fakeNames{used: map[scene.Path]int{}, registered: map[string]scene.Path{}}
	b := &Builder{Store: s, Root: "/test", Compiler: m.Compiler, Assets: &m.Assets,
		Elements: &fakeElements{store: s, names: names}, Names: names}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.BuildWorld(ctx, m.World), context.Canceled)
	assert.False(t, s.HasPrim("/test/b"))
}
