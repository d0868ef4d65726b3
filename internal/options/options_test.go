package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

func physicsScene(t *testing.T, doc string) *scene.Prim {
	t.Helper()
	el, err := mjcf.ParseString(doc)
	require.NoError(t, err)
	m, err := mjcf.Load(el)
	require.NoError(t, err)
	s := scene.NewStore()
	_, err = s.DefinePrim("/test", tokens.TypeXform)
	require.NoError(t, err)
	p, err := Author(s, "/test", m)
	require.NoError(t, err)
	assert.Equal(t, scene.Path("/test/PhysicsScene"), p.Path)
	return p
}

func get(t *testing.T, p *scene.Prim, name string) any {
	t.Helper()
	a := p.Attribute(name)
	require.NotNil(t, a, "missing %s", name)
	v, ok := a.Get()
	require.True(t, ok)
	return v
}

func TestOptionAttributes(t *testing.T) {
	tests := []struct {
		xml  string
		name string
		want any
	}{
		{`timestep="0.005"`, "timestep", 0.005},
		{`apirate="200"`, "apirate", 200.0},
		{`impratio="2"`, "impratio", 2.0},
		{`density="1.2"`, "density", 1.2},
		{`viscosity="0.3"`, "viscosity", 0.3},
		{`o_margin="0.01"`, "o_margin", 0.01},
		{`tolerance="1e-6"`, "tolerance", 1e-6},
		{`ls_tolerance="0.02"`, "ls_tolerance", 0.02},
		{`noslip_tolerance="1e-5"`, "noslip_tolerance", 1e-5},
		{`ccd_tolerance="1e-4"`, "ccd_tolerance", 1e-4},
		{`wind="1 2 3"`, "wind", mathx.Vec3{1, 2, 3}},
		{`magnetic="0 -0.5 0"`, "magnetic", mathx.Vec3{0, -0.5, 0}},
		{`o_solref="0.01 0.5"`, "o_solref", []float64{0.01, 0.5}},
		{`o_solimp="0.8 0.9 0.01 0.4 3"`, "o_solimp", []float64{0.8, 0.9, 0.01, 0.4, 3}},
		{`o_friction="1 1 0.01 0.001 0.001"`, "o_friction", []float64{1, 1, 0.01, 0.001, 0.001}},
		{`cone="elliptic"`, "cone", "elliptic"},
		{`integrator="RK4"`, "integrator", "rk4"},
		{`jacobian="sparse"`, "jacobian", "sparse"},
		{`solver="CG"`, "solver", "cg"},
		{`iterations="12"`, "iterations", 12},
		{`ls_iterations="7"`, "ls_iterations", 7},
		{`noslip_iterations="3"`, "noslip_iterations", 3},
		{`ccd_iterations="40"`, "ccd_iterations", 40},
		{`sdf_initpoints="20"`, "sdf_initpoints", 20},
		{`sdf_iterations="9"`, "sdf_iterations", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := physicsScene(t, `<mujoco model="test"><option `+tt.xml+`/></mujoco>`)
			assert.Equal(t, tt.want, get(t, p, tokens.OptionPrefix+tt.name))
		})
	}
}

func TestUndeclaredOptionsAreNotAuthored(t *testing.T) {
	p := physicsScene(t, `<mujoco model="test"/>`)
	assert.True(t, p.HasAPI(tokens.MjcSceneAPI))
	assert.Nil(t, p.Attribute(tokens.OptionPrefix+"timestep"))
	assert.Nil(t, p.Attribute(tokens.FlagPrefix+"gravity"))
	assert.Nil(t, p.Attribute(tokens.CompilerPrefix+"angle"))

	// Gravity falls back to MJCF's default.
	assert.InDelta(t, 9.81, get(t, p, tokens.GravityMagnitude), 1e-6)
	assert.Equal(t, mathx.Vec3f{0, 0, -1}, get(t, p, tokens.GravityDirection))
}

func TestGravity(t *testing.T) {
	p := physicsScene(t, `<mujoco model="test"><option gravity="-123 0 0"/></mujoco>`)
	assert.Equal(t, float32(123), get(t, p, tokens.GravityMagnitude))
	assert.Equal(t, mathx.Vec3f{-1, 0, 0}, get(t, p, tokens.GravityDirection))

	p = physicsScene(t, `<mujoco model="test"><option gravity="2 3 6"/></mujoco>`)
	assert.Equal(t, float32(7), get(t, p, tokens.GravityMagnitude))
	dir := get(t, p, tokens.GravityDirection).(mathx.Vec3f)
	assert.InDelta(t, 0.2857143, dir[0], 1e-6)
	assert.InDelta(t, 0.42857143, dir[1], 1e-6)
	assert.InDelta(t, 0.85714287, dir[2], 1e-6)
	assert.InDelta(t, 1, dir.Len(), 1e-6)

	p = physicsScene(t, `<mujoco model="test"><option gravity="0 0 0"/></mujoco>`)
	assert.Equal(t, float32(0), get(t, p, tokens.GravityMagnitude))
	assert.Nil(t, p.Attribute(tokens.GravityDirection))
}

func TestDisableFlags(t *testing.T) {
	names := []string{
		"constraint", "equality", "frictionloss", "limit", "contact", "passive",
		"gravity", "clampctrl", "warmstart", "filterparent", "actuation",
		"refsafe", "sensor", "midphase", "nativeccd", "eulerdamp", "autoreset",
	}
	doc := `<mujoco model="test"><option><flag`
	for _, n := range names {
		doc += ` ` + n + `="disable"`
	}
	doc += `/></option></mujoco>`

	p := physicsScene(t, doc)
	for _, n := range names {
		assert.Equal(t, false, get(t, p, tokens.FlagPrefix+n), n)
	}
}

func TestEnableFlags(t *testing.T) {
	names := []string{"override", "energy", "fwdinv", "invdiscrete", "multiccd", "island"}
	doc := `<mujoco model="test"><option><flag`
	for _, n := range names {
		doc += ` ` + n + `="enable"`
	}
	doc += `/></option></mujoco>`

	p := physicsScene(t, doc)
	for _, n := range names {
		assert.Equal(t, true, get(t, p, tokens.FlagPrefix+n), n)
	}
}

func TestBadFlagValue(t *testing.T) {
	el, err := mjcf.ParseString(`<mujoco model="test"><option><flag gravity="off"/></option></mujoco>`)
	require.NoError(t, err)
	m, err := mjcf.Load(el)
	require.NoError(t, err)
	s := scene.NewStore()
	_, err = s.DefinePrim("/test", tokens.TypeXform)
	require.NoError(t, err)
	_, err = Author(s, "/test", m)
	assert.ErrorIs(t, err, mjcf.ErrMalformed)
}

func TestCompilerOptions(t *testing.T) {
	p := physicsScene(t, `
<mujoco model="test">
  <compiler
    autolimits="true"
    boundmass="1.2"
    boundinertia="3.4"
    settotalmass="5.6"
    usethread="false"
    balanceinertia="true"
    angle="radian"
    fitaabb="true"
    fusestatic="true"
    inertiafromgeom="true"
    alignfree="true"
    inertiagrouprange="1 6"
    saveinertial="true"
  />
</mujoco>`)

	want := map[string]any{
		"autoLimits":            true,
		"boundMass":             1.2,
		"boundInertia":          3.4,
		"setTotalMass":          5.6,
		"useThread":             false,
		"balanceInertia":        true,
		"angle":                 "radian",
		"fitAABB":               true,
		"fuseStatic":            true,
		"inertiaFromGeom":       tokens.True,
		"alignFree":             true,
		"inertiaGroupRange:min": 1,
		"inertiaGroupRange:max": 6,
		"saveInertial":          true,
	}
	for name, v := range want {
		assert.Equal(t, v, get(t, p, tokens.CompilerPrefix+name), name)
	}
}
