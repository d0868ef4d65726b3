// Package mesh turns indexed mesh sources into the face-varying arrays a
// scene Mesh prim carries: one normal and one texture coordinate per
// face-vertex corner.
package mesh

import (
	"errors"
	"fmt"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/scene"
)

var (
	ErrInvalidMesh = errors.New("invalid mesh")
	ErrDegenerate  = errors.New("degenerate mesh")
)

// Regime tells how the per-corner attributes of a Source are indexed.
type Regime int

const (
	// Shared: positions, normals and texcoords all use Faces.
	Shared Regime = iota
	// Independent: normals and texcoords carry their own per-corner index
	// sets, as meshes imported from OBJ files do.
	Independent
)

func (r Regime) String() string {
	if r == Independent {
		return "independent"
	}
	return "shared"
}

// Source is an indexed triangle mesh.
type Source struct {
	Regime    Regime
	Points    []mathx.Vec3f
	Normals   []mathx.Vec3f
	Texcoords []scene.Vec2f
	// Faces holds three position indices per triangle.
	Faces []int
	// NormalIndex and TexcoordIndex are per-corner indices into Normals and
	// Texcoords; only read in the Independent regime.
	NormalIndex   []int
	TexcoordIndex []int
	// Warnings lists data the decoder dropped.
	Warnings []string
}

// FaceVarying is the expanded mesh.
type FaceVarying struct {
	Points            []mathx.Vec3f
	FaceVertexCounts  []int
	FaceVertexIndices []int
	// Normals and ST have one entry per face-vertex, or are empty.
	Normals []mathx.Vec3f
	ST      []scene.Vec2f
}

// Expand flattens src into face-varying arrays. In the Independent regime
// texcoord V is flipped (v' = 1 - v).
func Expand(src *Source) (*FaceVarying, error) {
	n := len(src.Faces)
	if n == 0 || n%3 != 0 {
		return nil, fmt.Errorf("%w: %d face indices is not a whole number of triangles", ErrInvalidMesh, n)
	}
	out := &FaceVarying{
		Points:            src.Points,
		FaceVertexCounts:  make([]int, n/3),
		FaceVertexIndices: make([]int, n),
	}
	for i := range out.FaceVertexCounts {
		out.FaceVertexCounts[i] = 3
	}
	for i, v := range src.Faces {
		if v < 0 || v >= len(src.Points) {
			return nil, fmt.Errorf("%w: face index %d out of range [0,%d)", ErrInvalidMesh, v, len(src.Points))
		}
		out.FaceVertexIndices[i] = v
	}

	normalIndex, texIndex := src.Faces, src.Faces
	if src.Regime == Independent {
		normalIndex, texIndex = src.NormalIndex, src.TexcoordIndex
	}

	if len(src.Normals) > 0 {
		normals, err := gather(src.Normals, normalIndex, n, "normal")
		if err != nil {
			return nil, err
		}
		out.Normals = normals
	}
	if len(src.Texcoords) > 0 && texIndex != nil {
		st, err := gather(src.Texcoords, texIndex, n, "texcoord")
		if err != nil {
			return nil, err
		}
		if src.Regime == Independent {
			for i := range st {
				st[i][1] = 1 - st[i][1]
			}
		}
		out.ST = st
	}
	return out, nil
}

func gather[T any](values []T, index []int, n int, what string) ([]T, error) {
	if len(index) != n {
		return nil, fmt.Errorf("%w: %d %s indices for %d face-vertices", ErrInvalidMesh, len(index), what, n)
	}
	out := make([]T, n)
	for i, idx := range index {
		if idx < 0 || idx >= len(values) {
			return nil, fmt.Errorf("%w: %s index %d out of range [0,%d)", ErrInvalidMesh, what, idx, len(values))
		}
		out[i] = values[idx]
	}
	return out, nil
}
