package mjcf

import (
	"math"
	"testing"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, doc string) *Model {
	t.Helper()
	root, err := ParseString(doc)
	require.NoError(t, err)
	m, err := Load(root)
	require.NoError(t, err)
	return m
}

func loadErr(t *testing.T, doc string) error {
	t.Helper()
	root, err := ParseString(doc)
	require.NoError(t, err)
	_, err = Load(root)
	return err
}

func TestParseRejectsMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"not xml":     "<mujoco><worldbody></mujoco>",
		"wrong root":  "<robot/>",
		"empty":       "",
		"two roots":   "<mujoco/><mujoco/>",
		"bad closing": "<mujoco></worldbody>",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(doc)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	root, err := ParseString(`<mujoco model="m"><worldbody><geom b="1" a="2"/><site/><geom/></worldbody></mujoco>`)
	require.NoError(t, err)
	wb := root.Child("worldbody")
	require.NotNil(t, wb)
	require.Len(t, wb.Children, 3)
	assert.Equal(t, []Attr{{"b", "1"}, {"a", "2"}}, wb.Children[0].Attrs)
	assert.Len(t, wb.ChildrenNamed("geom"), 2)
	assert.Nil(t, root.Child("asset"))
	assert.Nil(t, root.Child("asset").Child("mesh"))
}

func TestLoadModelName(t *testing.T) {
	assert.Equal(t, "mesh test", load(t, `<mujoco model="mesh test"/>`).Name)
	assert.Equal(t, DefaultModelName, load(t, `<mujoco/>`).Name)
}

func TestDefaultClassResolution(t *testing.T) {
	m := load(t, `
<mujoco>
  <default>
    <geom rgba="1 0 0 1" condim="1"/>
    <default class="arm">
      <geom type="capsule" size="0.1 0.2"/>
      <joint damping="3"/>
      <default class="finger">
        <geom size="0.01"/>
      </default>
    </default>
  </default>
  <worldbody>
    <geom name="plain"/>
    <body name="b" childclass="arm">
      <joint name="j"/>
      <geom name="inherited"/>
      <geom name="own" class="finger" condim="6"/>
      <frame>
        <geom name="framed"/>
      </frame>
    </body>
  </worldbody>
</mujoco>`)

	require.Len(t, m.World.Children, 2)
	plain := m.World.Children[0].(*Geom)
	assert.Equal(t, GeomSphere, plain.Type)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, plain.RGBA)
	assert.Equal(t, 1, plain.CondIm)
	assert.Empty(t, plain.Class)

	b := m.World.Children[1].(*Body)
	assert.Equal(t, "arm", b.ChildClass)
	j := b.Children[0].(*Joint)
	assert.Equal(t, 3.0, j.Damping)
	assert.Equal(t, "arm", j.Class)

	inherited := b.Children[1].(*Geom)
	assert.Equal(t, GeomCapsule, inherited.Type)
	assert.Equal(t, [3]float64{0.1, 0.2, 0}, inherited.Size)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, inherited.RGBA)

	own := b.Children[2].(*Geom)
	assert.Equal(t, "finger", own.Class)
	assert.Equal(t, 6, own.CondIm)
	assert.Equal(t, GeomCapsule, own.Type)
	assert.Equal(t, 0.01, own.Size[0])

	framed := b.Children[3].(*Frame).Children[0].(*Geom)
	assert.Equal(t, "arm", framed.Class)

	assert.Equal(t, []string{"main", "arm", "finger"}, m.Defaults.Find("finger").Chain())
}

func TestUnknownClass(t *testing.T) {
	err := loadErr(t, `<mujoco><worldbody><geom class="nope"/></worldbody></mujoco>`)
	assert.ErrorIs(t, err, ErrUnknownClass)

	err = loadErr(t, `<mujoco><worldbody><body childclass="nope"/></worldbody></mujoco>`)
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestUnknownAsset(t *testing.T) {
	for name, doc := range map[string]string{
		"mesh":     `<mujoco><worldbody><geom type="mesh" mesh="m"/></worldbody></mujoco>`,
		"material": `<mujoco><worldbody><geom material="red"/></worldbody></mujoco>`,
		"texture":  `<mujoco><asset><material name="m" texture="t"/></asset></mujoco>`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, loadErr(t, doc), ErrUnknownAsset)
		})
	}
}

func TestMalformedAttribute(t *testing.T) {
	err := loadErr(t, `<mujoco><worldbody><geom size="big"/></worldbody></mujoco>`)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "size")

	err = loadErr(t, `<mujoco><worldbody><joint type="spherical"/></worldbody></mujoco>`)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestOrientationForms(t *testing.T) {
	m := load(t, `
<mujoco>
  <compiler angle="radian" eulerseq="XYZ"/>
  <worldbody>
    <body name="q" quat="0 0 0 2"/>
    <body name="aa" axisangle="0 0 1 1.5707963267948966"/>
    <body name="xy" xyaxes="0 1 0 -1 0 0"/>
    <body name="z" zaxis="0 1 0"/>
    <body name="e" euler="0 0 1.5707963267948966"/>
  </worldbody>
</mujoco>`)
	quarterZ := mathx.AxisAngle(mathx.UnitZ, math.Pi/2)
	bodies := m.World.Children
	assert.True(t, bodies[0].(*Body).Quat.SameRotation(mathx.Quat{0, 0, 0, 1}, 1e-9))
	assert.True(t, bodies[1].(*Body).Quat.SameRotation(quarterZ, 1e-9))
	assert.True(t, bodies[2].(*Body).Quat.SameRotation(quarterZ, 1e-9))
	assert.True(t, bodies[3].(*Body).Quat.SameRotation(mathx.ShortestArc(mathx.UnitZ, mathx.UnitY), 1e-9))
	assert.True(t, bodies[4].(*Body).Quat.SameRotation(quarterZ, 1e-9))
}

func TestDegreeAxisAngle(t *testing.T) {
	m := load(t, `<mujoco><worldbody><body axisangle="1 0 0 90"/></worldbody></mujoco>`)
	got := m.World.Children[0].(*Body).Quat
	assert.True(t, got.SameRotation(mathx.AxisAngle(mathx.UnitX, math.Pi/2), 1e-9))
}

func TestFromTo(t *testing.T) {
	m := load(t, `<mujoco><worldbody><geom type="capsule" size="0.05" fromto="0 0 0 0 2 0"/></worldbody></mujoco>`)
	g := m.World.Children[0].(*Geom)
	assert.True(t, g.Pos.ApproxEqual(mathx.Vec3{0, 1, 0}, 1e-12))
	assert.InDelta(t, 1.0, g.Size[1], 1e-12)
	assert.Equal(t, 0.05, g.Size[0])
	assert.True(t, g.Quat.Rotate(mathx.UnitZ).ApproxEqual(mathx.UnitY, 1e-9))
}

func TestJointLimits(t *testing.T) {
	m := load(t, `
<mujoco>
  <worldbody>
    <body>
      <joint name="declared" range="-1 1"/>
      <joint name="off" limited="false" range="-1 1"/>
      <joint name="free"/>
      <freejoint name="fj"/>
    </body>
  </worldbody>
</mujoco>`)
	b := m.World.Children[0].(*Body)
	declared := b.Children[0].(*Joint)
	assert.True(t, declared.IsLimited(m.Compiler.AutoLimits))
	assert.False(t, declared.IsLimited(false))
	assert.False(t, b.Children[1].(*Joint).IsLimited(true))
	assert.False(t, b.Children[2].(*Joint).IsLimited(true))
	assert.Equal(t, JointHinge, declared.Type)
	assert.Equal(t, JointFree, b.Children[3].(*Joint).Type)
	assert.Equal(t, DefaultSolRef, declared.SolRefLimit)
}

func TestAssets(t *testing.T) {
	m := load(t, `
<mujoco>
  <compiler assetdir="assets" texturedir="textures"/>
  <asset>
    <texture type="2d" file="img/wood.png"/>
    <texture name="orm" type="2d" file="orm.png"/>
    <mesh file="meshes/bunny.obj" scale="2 2 2"/>
    <mesh name="tet" vertex="0 0 0 1 0 0 0 1 0 0 0 1" face="0 1 2"/>
    <material name="wood" texture="wood" metallic="0.6">
      <layer texture="orm" role="orm"/>
    </material>
  </asset>
</mujoco>`)
	assert.Equal(t, "assets", m.Compiler.MeshDir)
	assert.Equal(t, "textures", m.Compiler.TextureDir)
	require.NotNil(t, m.Assets.Texture("wood"))
	bunny := m.Assets.Mesh("bunny")
	require.NotNil(t, bunny)
	assert.Equal(t, mathx.Vec3{2, 2, 2}, bunny.Scale)
	assert.Equal(t, "legacy", bunny.Inertia)
	assert.Equal(t, -1, bunny.MaxHullVert)
	assert.Equal(t, []int{0, 1, 2}, m.Assets.Mesh("tet").Face)

	wood := m.Assets.Material("wood")
	require.NotNil(t, wood)
	assert.Equal(t, 0.6, wood.Metallic)
	assert.Equal(t, -1.0, wood.Roughness)
	tex, ok := wood.Layer(RoleRGB)
	assert.True(t, ok)
	assert.Equal(t, "wood", tex)
	tex, ok = wood.Layer(RoleORM)
	assert.True(t, ok)
	assert.Equal(t, "orm", tex)
	_, ok = wood.Layer(RoleNormal)
	assert.False(t, ok)
}

func TestActuatorShortcuts(t *testing.T) {
	m := load(t, `
<mujoco>
  <default>
    <position kp="5"/>
  </default>
  <actuator>
    <motor name="m" joint="j" gear="2"/>
    <position name="p" joint="j" kv="0.5" timeconst="0.1"/>
    <velocity name="v" joint="j" kv="3"/>
    <intvelocity name="iv" joint="j" actrange="-1 1"/>
    <damper name="d" joint="j" kv="2" ctrlrange="0 1"/>
    <cylinder name="c" joint="j" diameter="2"/>
    <adhesion name="a" body="b" gain="4"/>
    <general name="g" site="s" dyntype="integrator" gainprm="7 8"/>
    <plugin name="x"/>
  </actuator>
</mujoco>`)
	require.Len(t, m.Actuators, 8)
	require.Len(t, m.Skipped, 1)
	assert.Equal(t, "plugin", m.Skipped[0].Element)

	byName := map[string]*Actuator{}
	for _, a := range m.Actuators {
		byName[a.Name] = a
	}

	assert.Equal(t, []float64{2, 0, 0, 0, 0, 0}, byName["m"].Gear)
	assert.Equal(t, "fixed", byName["m"].GainType)

	p := byName["p"]
	assert.Equal(t, ActuatorPosition, p.Kind)
	assert.Equal(t, "affine", p.BiasType)
	assert.Equal(t, "filterexact", p.DynType)
	assert.Equal(t, 5.0, p.GainPrm[0])
	assert.Equal(t, []float64{0, -5, -0.5}, p.BiasPrm[:3])
	assert.Equal(t, 0.1, p.DynPrm[0])

	assert.Equal(t, []float64{0, 0, -3}, byName["v"].BiasPrm[:3])
	assert.Equal(t, 3.0, byName["v"].GainPrm[0])

	iv := byName["iv"]
	assert.Equal(t, "integrator", iv.DynType)
	assert.Equal(t, True, iv.ActLimited)

	d := byName["d"]
	assert.Equal(t, "affine", d.GainType)
	assert.Equal(t, []float64{0, 0, -2}, d.GainPrm[:3])
	assert.Equal(t, True, d.CtrlLimited)

	assert.InDelta(t, math.Pi, byName["c"].GainPrm[0], 1e-12)
	assert.Equal(t, "filter", byName["c"].DynType)

	assert.Equal(t, "b", byName["a"].Body)
	assert.Equal(t, 4.0, byName["a"].GainPrm[0])

	g := byName["g"]
	assert.Equal(t, "s", g.Site)
	assert.Equal(t, "integrator", g.DynType)
	assert.Equal(t, []float64{7, 8, 0}, g.GainPrm[:3])
	assert.Equal(t, -1, g.ActDim)
}

func TestKeys(t *testing.T) {
	m := load(t, `
<mujoco>
  <keyframe>
    <key qpos="1"/>
    <key name="home" qpos="0"/>
    <key time="1" qpos="2"/>
  </keyframe>
</mujoco>`)
	require.Len(t, m.Keys, 3)
	assert.False(t, m.Keys[0].HasTime)
	assert.Equal(t, "home", m.Keys[1].Name)
	assert.True(t, m.Keys[2].HasTime)
	assert.Equal(t, 1.0, m.Keys[2].Time)
	assert.Equal(t, []float64{2}, m.Keys[2].QPos)
}

func TestRepeatedSectionsMerge(t *testing.T) {
	m := load(t, `
<mujoco>
  <option timestep="0.01"/>
  <option><flag gravity="disable"/></option>
  <worldbody><body name="a"/></worldbody>
  <worldbody><body name="b"/></worldbody>
</mujoco>`)
	v, ok := m.Option.Attrs.Lookup("timestep")
	assert.True(t, ok)
	assert.Equal(t, "0.01", v)
	assert.Equal(t, "disable", m.Option.Flags.String("gravity", ""))
	assert.Len(t, m.World.Children, 2)
}

func TestTransformCompose(t *testing.T) {
	parent := Transform{Pos: mathx.Vec3{1, 0, 0}, Quat: mathx.AxisAngle(mathx.UnitZ, math.Pi/2)}
	child := Transform{Pos: mathx.Vec3{1, 0, 0}, Quat: mathx.Identity}
	got := parent.Compose(child)
	assert.True(t, got.Pos.ApproxEqual(mathx.Vec3{1, 1, 0}, 1e-9))
	assert.True(t, IdentityTransform.IsIdentity())
	assert.False(t, got.IsIdentity())
}
