package scene

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUSDA(t *testing.T) {
	s := newTestStore(t)
	wheel, err := s.GetPrim("/robot/base/wheel")
	require.NoError(t, err)
	wheel.AddInherit("/__class__/main")

	color, err := wheel.CreateAttribute("primvars:displayColor", Color3fArray)
	require.NoError(t, err)
	require.NoError(t, color.Set([]mathx.Vec3f{{1, 0, 0}}))
	color.Interpolation = "constant"

	out, err := USDA(s)
	require.NoError(t, err)

	for _, want := range []string{
		"#usda 1.0",
		`defaultPrim = "robot"`,
		`def Xform "robot" (`,
		`kind = "group"`,
		`prepend apiSchemas = ["PhysicsRigidBodyAPI"]`,
		"double3 xformOp:translate = (1, 2, 3)",
		`def Cylinder "wheel" (`,
		"inherits = [</__class__/main>]",
		"double radius = 0.5",
		"rel material:binding = </robot/Materials/rubber>",
		"color3f[] primvars:displayColor = [(1, 0, 0)] (",
		`interpolation = "constant"`,
		`class "__class__"`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteUSDATimeSamplesAndConnections(t *testing.T) {
	s := NewStore()
	p, err := s.DefinePrim("/k", "Shader")
	require.NoError(t, err)
	a, err := p.CreateAttribute("mjc:qpos", DoubleArray)
	require.NoError(t, err)
	require.NoError(t, a.SetAt(1, []float64{2}))
	require.NoError(t, a.SetAt(2, []float64{3}))
	c, err := p.CreateAttribute("inputs:diffuseColor", Color3f)
	require.NoError(t, err)
	c.Connect("/k/diffuse.outputs:rgb")

	out, err := USDA(s)
	require.NoError(t, err)
	assert.Contains(t, out, "double[] mjc:qpos.timeSamples = {\n        1: [2],\n        2: [3],\n    }")
	assert.Contains(t, out, "color3f inputs:diffuseColor.connect = </k/diffuse.outputs:rgb>")
	assert.NotContains(t, out, "color3f inputs:diffuseColor\n")
}

func TestPropertyUSDA(t *testing.T) {
	s := newTestStore(t)
	wheel, err := s.GetPrim("/robot/base/wheel")
	require.NoError(t, err)

	got, ok := PropertyUSDA(wheel, "radius")
	require.True(t, ok)
	assert.Equal(t, "double radius = 0.5\n", got)

	got, ok = PropertyUSDA(wheel, "material:binding")
	require.True(t, ok)
	assert.Equal(t, "rel material:binding = </robot/Materials/rubber>\n", got)

	_, ok = PropertyUSDA(wheel, "height")
	assert.False(t, ok)
}

func TestQuery(t *testing.T) {
	s := newTestStore(t)

	got, err := Query(s, "$.prims[?(@.type == 'Cylinder')].path")
	require.NoError(t, err)
	assert.Equal(t, []any{"/robot/base/wheel"}, got)

	got, err = Query(s, "$.prims[?(@.path == '/robot/base/wheel')].attributes.radius.value")
	require.NoError(t, err)
	assert.Equal(t, []any{0.5}, got)

	_, err = Query(s, "$.prims[?(")
	assert.Error(t, err)
}

func TestToJSON(t *testing.T) {
	s := newTestStore(t)
	out := ToJSON(s)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"defaultPrim"`)
	assert.Contains(t, out, `"/robot/base/wheel"`)
	assert.Contains(t, out, `"/robot/Materials/rubber"`)
}

func TestWriteSQLite(t *testing.T) {
	s := newTestStore(t)
	dbPath := filepath.Join(t.TempDir(), "scene.db")
	require.NoError(t, WriteSQLite(dbPath, s))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM prims").Scan(&n))
	assert.Equal(t, 4, n)

	var typeName string
	require.NoError(t, db.QueryRow("SELECT type_name FROM prims WHERE path = ?", "/robot/base/wheel").Scan(&typeName))
	assert.Equal(t, "Cylinder", typeName)

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM attributes WHERE prim_path = ? AND name = ?", "/robot/base/wheel", "radius").Scan(&value))
	assert.Equal(t, "0.5", value)

	var path string
	require.NoError(t, db.QueryRow("SELECT prim_path FROM api_schemas WHERE schema = ?", "PhysicsCollisionAPI").Scan(&path))
	assert.Equal(t, "/robot/base/wheel", path)
}
