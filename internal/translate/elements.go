package translate

import (
	"fmt"
	"path"
	"strings"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mesh"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/shape"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

func (d *driver) inherit(p *scene.Prim, class string) {
	if cls, ok := d.classes[class]; ok {
		p.AddInherit(cls)
	}
}

// Geom implements kinematics.ElementAuthor.
func (d *driver) Geom(parent scene.Path, g *mjcf.Geom, xf mjcf.Transform) (*scene.Prim, error) {
	base := g.Name
	if base == "" {
		base = g.Type.String()
		if g.Type == mjcf.GeomMesh {
			base = g.Mesh
		}
	}
	p := parent.AppendChild(d.reg.Claim(parent, base))

	var gprim *scene.Prim
	if spec, ok := shape.Map(g.Type, g.Size); ok {
		prim, err := d.store.DefinePrim(p, spec.TypeName)
		if err != nil {
			return nil, err
		}
		if err := shape.Author(prim, spec, xf); err != nil {
			return nil, err
		}
		d.inherit(prim, g.Class)
		gprim = prim
	} else {
		x, err := d.store.DefinePrim(p, tokens.TypeXform)
		if err != nil {
			return nil, err
		}
		if err := x.SetTransform(xf.Pos, xf.Quat, nil); err != nil {
			return nil, err
		}
		d.inherit(x, g.Class)
		if g.Type != mjcf.GeomMesh {
			d.warn(p, fmt.Sprintf("%s geoms are not supported", g.Type))
			return nil, nil
		}
		if gprim, err = d.meshPrim(x.Path, g.Mesh); err != nil || gprim == nil {
			return nil, err
		}
	}
	if g.Name != "" {
		d.reg.Register(mjcf.TagGeom, g.Name, p)
	}
	if err := shape.AuthorDisplay(gprim, g.RGBA); err != nil {
		return nil, err
	}

	b := binding{prim: gprim, material: g.Material}
	if g.Friction != mjcf.DefaultFriction {
		scope := d.root.AppendChild(tokens.PhysicsMaterials)
		pm, err := d.materials.AuthorPhysics(d.reg.Claim(scope, p.Name()), g.Friction)
		if err != nil {
			return nil, err
		}
		b.physics = pm.Path
	}
	if b.material != "" || b.physics != "" {
		d.bindings = append(d.bindings, b)
	}
	return gprim, nil
}

// Site implements kinematics.ElementAuthor.
func (d *driver) Site(parent scene.Path, s *mjcf.Site, xf mjcf.Transform) (*scene.Prim, error) {
	p := parent.AppendChild(d.reg.Claim(parent, nameOr(s.Name, s.Type.String())))
	spec, _ := shape.Map(shape.SiteKind(s.Type), s.Size)
	prim, err := d.store.DefinePrim(p, spec.TypeName)
	if err != nil {
		return nil, err
	}
	if err := shape.Author(prim, spec, xf); err != nil {
		return nil, err
	}
	d.inherit(prim, s.Class)
	prim.ApplyAPI(tokens.MjcSiteAPI)

	purpose, err := prim.CreateAttribute(tokens.Purpose, scene.Token)
	if err != nil {
		return nil, err
	}
	purpose.Uniform = true
	if err := purpose.Set(tokens.PurposeGuide); err != nil {
		return nil, err
	}
	if err := prim.Set(tokens.Group, scene.Int, s.Group); err != nil {
		return nil, err
	}
	if err := shape.AuthorDisplay(prim, s.RGBA); err != nil {
		return nil, err
	}
	if s.Name != "" {
		d.reg.Register(mjcf.TagSite, s.Name, p)
	}
	if s.Material != "" {
		d.bindings = append(d.bindings, binding{prim: prim, material: s.Material})
	}
	return prim, nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// meshPrim defines parent/Mesh from the named mesh asset. It returns nil
// when the asset's file format cannot be read.
func (d *driver) meshPrim(parent scene.Path, name string) (*scene.Prim, error) {
	fv, err := d.expandMesh(name)
	if err != nil || fv == nil {
		return nil, err
	}
	p, err := d.store.DefinePrim(parent.AppendChild(tokens.MeshPrim), tokens.TypeMesh)
	if err != nil {
		return nil, err
	}
	return p, authorMesh(p, fv)
}

// expandMesh returns the face-varying form of a mesh asset, expanding each
// asset once.
func (d *driver) expandMesh(name string) (*mesh.FaceVarying, error) {
	if fv, ok := d.meshes[name]; ok {
		return fv, nil
	}
	asset := d.model.Assets.Mesh(name)
	if asset == nil {
		return nil, fmt.Errorf("%w: mesh %q", mjcf.ErrUnknownAsset, name)
	}

	var src *mesh.Source
	var err error
	switch {
	case asset.File == "" || len(asset.Vertex) > 0:
		src, err = mesh.FromMJCF(asset)
	case strings.EqualFold(path.Ext(asset.File), ".obj"):
		src, err = d.loadOBJ(asset)
	default:
		d.warn(d.root, fmt.Sprintf("mesh %q: %s files are not supported", name, path.Ext(asset.File)))
		d.meshes[name] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	for _, w := range src.Warnings {
		d.warn(d.root, fmt.Sprintf("mesh %q: %s", name, w))
	}
	fv, err := mesh.Expand(src)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	d.meshes[name] = fv
	return fv, nil
}

func (d *driver) loadOBJ(asset *mjcf.Mesh) (*mesh.Source, error) {
	if d.opts.Assets == nil {
		return nil, fmt.Errorf("%w: no asset filesystem for %s", mjcf.ErrUnknownAsset, asset.File)
	}
	file := asset.File
	if dir := d.model.Compiler.MeshDir; dir != "" && !path.IsAbs(file) {
		file = path.Join(dir, file)
	}
	src, err := mesh.LoadOBJ(d.opts.Assets, file)
	if err != nil {
		return nil, err
	}
	if asset.Scale != (mathx.Vec3{1, 1, 1}) {
		for i, p := range src.Points {
			src.Points[i] = p.F64().Mul(asset.Scale).F32()
		}
	}
	return src, nil
}

// authorMesh writes the face-varying arrays onto a Mesh prim.
func authorMesh(p *scene.Prim, fv *mesh.FaceVarying) error {
	if err := p.Set(tokens.Points, scene.Point3fArray, fv.Points); err != nil {
		return err
	}
	if err := p.Set(tokens.Extent, scene.Float3Array, extent(fv.Points)); err != nil {
		return err
	}
	if err := p.Set(tokens.FaceVertexCounts, scene.IntArray, fv.FaceVertexCounts); err != nil {
		return err
	}
	if err := p.Set(tokens.FaceVertexIndices, scene.IntArray, fv.FaceVertexIndices); err != nil {
		return err
	}
	sub, err := p.CreateAttribute(tokens.Subdivision, scene.Token)
	if err != nil {
		return err
	}
	sub.Uniform = true
	if err := sub.Set("none"); err != nil {
		return err
	}
	if len(fv.Normals) > 0 {
		a, err := p.CreateAttribute(tokens.Normals, scene.Normal3fArray)
		if err != nil {
			return err
		}
		a.Interpolation = tokens.FaceVarying
		if err := a.Set(fv.Normals); err != nil {
			return err
		}
	}
	if len(fv.ST) > 0 {
		a, err := p.CreateAttribute(tokens.ST, scene.TexCoord2fArray)
		if err != nil {
			return err
		}
		a.Interpolation = tokens.FaceVarying
		return a.Set(fv.ST)
	}
	return nil
}

// extent is the axis-aligned bounds of pts as [min, max].
func extent(pts []mathx.Vec3f) []mathx.Vec3f {
	if len(pts) == 0 {
		return nil
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return []mathx.Vec3f{lo, hi}
}
