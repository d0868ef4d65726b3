package linter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
	"github.com/agentic-research/mjcusd/internal/translate"
)

func messages(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

func TestTranslatedModelIsClean(t *testing.T) {
	res, err := translate.Read(context.Background(), strings.NewReader(`
<mujoco model="arm">
  <default><default class="link"><geom rgba="1 0 0 1"/></default></default>
  <asset>
    <texture name="grid" file="grid.png"/>
    <material name="steel" texture="grid"/>
  </asset>
  <worldbody>
    <body name="upper">
      <joint name="shoulder" type="hinge"/>
      <geom class="link" type="capsule" size="0.1 0.5" material="steel" friction="2 0.1 0.1"/>
      <body name="lower">
        <joint name="elbow" type="slide"/>
        <geom type="box" size="0.1 0.1 0.1"/>
        <body name="hand">
          <geom type="sphere" size="0.05"/>
        </body>
      </body>
    </body>
  </worldbody>
  <actuator><motor joint="elbow"/></actuator>
</mujoco>`), translate.Options{})
	require.NoError(t, err)
	assert.Empty(t, messages(Lint(res.Store)))
}

func TestDanglingReferences(t *testing.T) {
	s := scene.NewStore()
	s.SetDefaultPrim("gone")
	p, err := s.DefinePrim("/m", tokens.TypeXform)
	require.NoError(t, err)
	p.AddInherit("/__class__/missing")
	p.CreateRelationship(tokens.MaterialBinding).AddTarget("/m/Materials/none")
	a, err := p.CreateAttribute(tokens.OutputsSurface, scene.Token)
	require.NoError(t, err)
	a.Connect("/m.outputs:absent")

	_, err = s.DefinePrim("/concrete", tokens.TypeXform)
	require.NoError(t, err)
	q, err := s.DefinePrim("/m/q", tokens.TypeXform)
	require.NoError(t, err)
	q.AddInherit("/concrete")

	assert.Equal(t, []string{
		`/: defaultPrim "gone" does not exist`,
		"/m: inherits missing class /__class__/missing",
		"/m: material:binding targets missing prim /m/Materials/none",
		"/m: outputs:surface connects to missing property /m.outputs:absent",
		"/m/q: inherits /concrete, which is not a class",
	}, messages(Lint(s)))
}

func TestJointAndArticulationRules(t *testing.T) {
	s := scene.NewStore()
	root, err := s.DefinePrim("/m", tokens.TypeXform)
	require.NoError(t, err)
	root.ApplyAPI(tokens.ArticulationRootAPI)
	body, err := s.DefinePrim("/m/b", tokens.TypeXform)
	require.NoError(t, err)
	body.ApplyAPI(tokens.ArticulationRootAPI)

	j, err := s.DefinePrim("/m/b/j", tokens.TypeRevoluteJoint)
	require.NoError(t, err)
	j.CreateRelationship(tokens.Body0).AddTarget("/m")

	assert.Equal(t, []string{
		"/m/b: articulation root nested under /m",
		"/m/b/j: joint has no physics:body1",
		"/m/b/j: physics:body0 /m is not a rigid body",
	}, messages(Lint(s)))
}
