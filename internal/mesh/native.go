package mesh

import (
	"fmt"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
)

// FromMJCF builds a Shared-regime Source from an inline mesh asset. Scale is
// applied to the vertices. A mesh without faces is replaced by its convex
// hull, and missing normals are computed from the resulting triangles.
func FromMJCF(m *mjcf.Mesh) (*Source, error) {
	if len(m.Vertex) == 0 || len(m.Vertex)%3 != 0 {
		return nil, fmt.Errorf("%w: mesh %q: vertex has %d values", ErrInvalidMesh, m.Name, len(m.Vertex))
	}
	n := len(m.Vertex) / 3
	pts := make([]mathx.Vec3, n)
	for i := range pts {
		pts[i] = mathx.Vec3{m.Vertex[3*i], m.Vertex[3*i+1], m.Vertex[3*i+2]}.Mul(m.Scale)
	}

	src := &Source{Regime: Shared, Points: make([]mathx.Vec3f, n)}
	for i, p := range pts {
		src.Points[i] = p.F32()
	}

	if len(m.Face) > 0 {
		src.Faces = m.Face
	} else {
		faces, err := ConvexHull(pts)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		src.Faces = faces
	}

	if len(m.Normal) == 3*n {
		src.Normals = make([]mathx.Vec3f, n)
		for i := range src.Normals {
			src.Normals[i] = mathx.Vec3{m.Normal[3*i], m.Normal[3*i+1], m.Normal[3*i+2]}.F32()
		}
	} else {
		src.Normals = VertexNormals(src.Points, src.Faces)
	}

	if len(m.Texcoord) == 2*n {
		src.Texcoords = make([]scene.Vec2f, n)
		for i := range src.Texcoords {
			src.Texcoords[i] = scene.Vec2f{float32(m.Texcoord[2*i]), float32(m.Texcoord[2*i+1])}
		}
	}
	return src, nil
}
