package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/mjcusd/internal/mathx"
)

// ValueType is the scene type name of an attribute, written verbatim to layers.
type ValueType string

const (
	Bool     ValueType = "bool"
	Int      ValueType = "int"
	Float    ValueType = "float"
	Double   ValueType = "double"
	Token    ValueType = "token"
	String   ValueType = "string"
	Asset    ValueType = "asset"
	Float2   ValueType = "float2"
	Float3   ValueType = "float3"
	Double3  ValueType = "double3"
	Color3f  ValueType = "color3f"
	Vector3f ValueType = "vector3f"
	Point3f  ValueType = "point3f"
	Normal3f ValueType = "normal3f"
	Quatf    ValueType = "quatf"

	IntArray        ValueType = "int[]"
	FloatArray      ValueType = "float[]"
	DoubleArray     ValueType = "double[]"
	TokenArray      ValueType = "token[]"
	Float3Array     ValueType = "float3[]"
	Point3fArray    ValueType = "point3f[]"
	Normal3fArray   ValueType = "normal3f[]"
	Color3fArray    ValueType = "color3f[]"
	TexCoord2fArray ValueType = "texCoord2f[]"
)

// Vec2f is a single-precision 2-vector (texture coordinates).
type Vec2f [2]float32

// Quat4f is a single-precision quaternion in (w, x, y, z) order.
type Quat4f [4]float32

// QuatF narrows a double-precision rotation.
func QuatF(q mathx.Quat) Quat4f {
	return Quat4f{float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])}
}

// CheckValue reports whether v is an acceptable Go representation of t.
func CheckValue(t ValueType, v any) error {
	ok := false
	switch t {
	case Bool:
		_, ok = v.(bool)
	case Int:
		_, ok = v.(int)
	case Float:
		_, ok = v.(float32)
	case Double:
		_, ok = v.(float64)
	case Token, String, Asset:
		_, ok = v.(string)
	case Float2:
		_, ok = v.(Vec2f)
	case Float3, Color3f, Vector3f, Point3f, Normal3f:
		_, ok = v.(mathx.Vec3f)
	case Double3:
		_, ok = v.(mathx.Vec3)
	case Quatf:
		_, ok = v.(Quat4f)
	case IntArray:
		_, ok = v.([]int)
	case FloatArray:
		_, ok = v.([]float32)
	case DoubleArray:
		_, ok = v.([]float64)
	case TokenArray:
		_, ok = v.([]string)
	case Float3Array, Point3fArray, Normal3fArray, Color3fArray:
		_, ok = v.([]mathx.Vec3f)
	case TexCoord2fArray:
		_, ok = v.([]Vec2f)
	default:
		return fmt.Errorf("unknown value type %q", t)
	}
	if !ok {
		return fmt.Errorf("%w: %T is not a %s", ErrTypeMismatch, v, t)
	}
	return nil
}

// FormatValue renders v in layer text syntax.
func FormatValue(t ValueType, v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case string:
		if t == Asset {
			return "@" + x + "@"
		}
		return strconv.Quote(x)
	case mathx.Vec3f:
		return tuple32(x[:])
	case mathx.Vec3:
		return tuple64(x[:])
	case Quat4f:
		return tuple32(x[:])
	case Vec2f:
		return tuple32(x[:])
	case []int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []float32:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(float64(f), 32)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []mathx.Vec3f:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = tuple32(p[:])
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []Vec2f:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = tuple32(p[:])
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func tuple32(xs []float32) string {
	parts := make([]string, len(xs))
	for i, f := range xs {
		parts[i] = formatFloat(float64(f), 32)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func tuple64(xs []float64) string {
	parts := make([]string, len(xs))
	for i, f := range xs {
		parts[i] = formatFloat(f, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// plainValue converts v into the generic tree (map/slice/float64/int64/string/bool)
// used by the JSON export and JSONPath queries.
func plainValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case float32:
		return floats32([]float32{x})[0]
	case mathx.Vec3f:
		return floats32(x[:])
	case mathx.Vec3:
		return floats64(x[:])
	case Quat4f:
		return floats32(x[:])
	case Vec2f:
		return floats32(x[:])
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	case []float32:
		return floats32(x)
	case []float64:
		return floats64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []mathx.Vec3f:
		out := make([]any, len(x))
		for i, p := range x {
			out[i] = floats32(p[:])
		}
		return out
	case []Vec2f:
		out := make([]any, len(x))
		for i, p := range x {
			out[i] = floats32(p[:])
		}
		return out
	}
	return v
}

func floats32(xs []float32) []any {
	out := make([]any, len(xs))
	for i, f := range xs {
		// Round-trip through the shortest decimal so 0.1f exports as 0.1.
		out[i], _ = strconv.ParseFloat(formatFloat(float64(f), 32), 64)
	}
	return out
}

func floats64(xs []float64) []any {
	out := make([]any, len(xs))
	for i, f := range xs {
		out[i] = f
	}
	return out
}
