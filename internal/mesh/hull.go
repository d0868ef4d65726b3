package mesh

import (
	"fmt"

	"github.com/agentic-research/mjcusd/internal/mathx"
)

const hullEps = 1e-10

type hullFace struct {
	a, b, c int
	n       mathx.Vec3
	d       float64
}

func newHullFace(pts []mathx.Vec3, a, b, c int) hullFace {
	n := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a])).Normalize()
	return hullFace{a: a, b: b, c: c, n: n, d: n.Dot(pts[a])}
}

func (f hullFace) above(p mathx.Vec3) float64 { return f.n.Dot(p) - f.d }

// ConvexHull returns outward-facing triangles (three point indices each)
// of the convex hull of pts, built incrementally. Points that do not extend
// the hull are left unreferenced.
func ConvexHull(pts []mathx.Vec3) ([]int, error) {
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: %d points cannot enclose a volume", ErrDegenerate, len(pts))
	}
	i0, i1, i2, i3, ok := initialTetrahedron(pts)
	if !ok {
		return nil, fmt.Errorf("%w: points are coplanar", ErrDegenerate)
	}

	faces := []hullFace{
		newHullFace(pts, i0, i1, i2),
		newHullFace(pts, i0, i2, i3),
		newHullFace(pts, i0, i3, i1),
		newHullFace(pts, i1, i3, i2),
	}
	// Orient every face away from the tetrahedron's centroid.
	centroid := pts[i0].Add(pts[i1]).Add(pts[i2]).Add(pts[i3]).Scale(0.25)
	for i, f := range faces {
		if f.above(centroid) > 0 {
			faces[i] = newHullFace(pts, f.a, f.c, f.b)
		}
	}

	for p := range pts {
		if p == i0 || p == i1 || p == i2 || p == i3 {
			continue
		}
		var visible []hullFace
		kept := faces[:0:0]
		for _, f := range faces {
			if f.above(pts[p]) > hullEps {
				visible = append(visible, f)
			} else {
				kept = append(kept, f)
			}
		}
		if len(visible) == 0 {
			continue
		}
		edges := make(map[[2]int]bool, len(visible)*3)
		for _, f := range visible {
			edges[[2]int{f.a, f.b}] = true
			edges[[2]int{f.b, f.c}] = true
			edges[[2]int{f.c, f.a}] = true
		}
		for _, f := range visible {
			for _, e := range [][2]int{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
				if !edges[[2]int{e[1], e[0]}] {
					kept = append(kept, newHullFace(pts, e[0], e[1], p))
				}
			}
		}
		faces = kept
	}

	out := make([]int, 0, len(faces)*3)
	for _, f := range faces {
		out = append(out, f.a, f.b, f.c)
	}
	return out, nil
}

func initialTetrahedron(pts []mathx.Vec3) (int, int, int, int, bool) {
	i0 := 0
	i1 := -1
	for i := 1; i < len(pts); i++ {
		if pts[i].Sub(pts[i0]).Len() > hullEps {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return 0, 0, 0, 0, false
	}
	i2 := -1
	for i := range pts {
		if pts[i1].Sub(pts[i0]).Cross(pts[i].Sub(pts[i0])).Len() > hullEps {
			i2 = i
			break
		}
	}
	if i2 < 0 {
		return 0, 0, 0, 0, false
	}
	n := pts[i1].Sub(pts[i0]).Cross(pts[i2].Sub(pts[i0]))
	for i := range pts {
		if d := n.Dot(pts[i].Sub(pts[i0])); d > hullEps || d < -hullEps {
			return i0, i1, i2, i, true
		}
	}
	return 0, 0, 0, 0, false
}

// VertexNormals computes one area-weighted normal per point from the
// triangles in faces.
func VertexNormals(pts []mathx.Vec3f, faces []int) []mathx.Vec3f {
	acc := make([]mathx.Vec3f, len(pts))
	for t := 0; t+2 < len(faces); t += 3 {
		a, b, c := faces[t], faces[t+1], faces[t+2]
		// The cross product's length is twice the triangle area.
		n := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a]))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	for i := range acc {
		acc[i] = acc[i].Normalize()
	}
	return acc
}
