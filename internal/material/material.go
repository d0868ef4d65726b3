// Package material synthesizes preview-surface shading networks from MJCF
// materials and physics materials from geom friction.
package material

import (
	"fmt"
	"path"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// Builder authors material prims under Root/Materials and
// Root/PhysicsMaterials.
type Builder struct {
	Store      *scene.Store
	Root       scene.Path
	Assets     *mjcf.Assets
	TextureDir string

	// Warn receives non-fatal problems, such as builtin textures that have
	// no file to reference. May be nil.
	Warn func(path scene.Path, msg string)
}

// channel is one preview-surface input a texture can drive.
type channel struct {
	role  mjcf.TextureRole
	node  string
	input string
	typ   scene.ValueType
}

var channels = []channel{
	{mjcf.RoleRGB, "diffuse", tokens.InputsDiffuseColor, scene.Color3f},
	{mjcf.RoleNormal, "normal", tokens.InputsNormal, scene.Normal3f},
	{mjcf.RoleOcclusion, "occlusion", tokens.InputsOcclusion, scene.Float},
	{mjcf.RoleRoughness, "roughness", tokens.InputsRoughness, scene.Float},
	{mjcf.RoleMetallic, "metallic", tokens.InputsMetallic, scene.Float},
	{mjcf.RoleEmissive, "emissive", tokens.InputsEmissiveColor, scene.Color3f},
	{mjcf.RoleOpacity, "opacity", tokens.InputsOpacity, scene.Float},
}

// ormOutputs maps the channels a packed occlusion/roughness/metallic texture
// feeds to its single-component outputs.
var ormOutputs = map[mjcf.TextureRole]string{
	mjcf.RoleOcclusion: tokens.OutputsR,
	mjcf.RoleRoughness: tokens.OutputsG,
	mjcf.RoleMetallic:  tokens.OutputsB,
}

func (b *Builder) warn(p scene.Path, format string, args ...any) {
	if b.Warn != nil {
		b.Warn(p, fmt.Sprintf(format, args...))
	}
}

func (b *Builder) scope(name string) (*scene.Prim, error) {
	return b.Store.Ensure(b.Root.AppendChild(name), tokens.TypeScope)
}

// Author builds the shading network of m under name, which the caller has
// already made unique, and returns the Material prim.
func (b *Builder) Author(m *mjcf.Material, name string) (*scene.Prim, error) {
	if _, err := b.scope(tokens.Materials); err != nil {
		return nil, err
	}
	matPath := b.Root.AppendChild(tokens.Materials).AppendChild(name)
	mat, err := b.Store.DefinePrim(matPath, tokens.TypeMaterial)
	if err != nil {
		return nil, err
	}
	surface, err := b.shader(matPath.AppendChild(tokens.PreviewSurface), tokens.PreviewSurfaceID)
	if err != nil {
		return nil, err
	}
	for _, out := range []string{tokens.OutputsSurface, tokens.OutputsDisplacement} {
		if _, err := surface.CreateAttribute(out, scene.Token); err != nil {
			return nil, err
		}
		a, err := mat.CreateAttribute(out, scene.Token)
		if err != nil {
			return nil, err
		}
		a.Connect(surface.Path.AppendProperty(out))
	}

	files := b.textureFiles(m, matPath)

	var uv scene.Path
	if len(files) > 0 {
		reader, err := b.shader(matPath.AppendChild(tokens.UVMap), tokens.PrimvarReaderID)
		if err != nil {
			return nil, err
		}
		if err := reader.Set(tokens.InputsVarname, scene.Token, tokens.STVarname); err != nil {
			return nil, err
		}
		if _, err := reader.CreateAttribute(tokens.OutputsResult, scene.Float2); err != nil {
			return nil, err
		}
		uv = reader.Path
	}

	var orm *scene.Prim
	if file, ok := files[mjcf.RoleORM]; ok {
		if orm, err = b.texture(matPath.AppendChild(tokens.ORMPacked), file, uv); err != nil {
			return nil, err
		}
	}

	for _, ch := range channels {
		in, err := surface.CreateAttribute(ch.input, ch.typ)
		if err != nil {
			return nil, err
		}
		if out, ok := ormOutputs[ch.role]; ok && orm != nil {
			if _, err := orm.CreateAttribute(out, scene.Float); err != nil {
				return nil, err
			}
			in.Connect(orm.Path.AppendProperty(out))
			continue
		}
		file, ok := files[ch.role]
		if !ok && ch.role == mjcf.RoleRGB {
			file, ok = files[mjcf.RoleRGBA]
		}
		if ok {
			tex, err := b.texture(matPath.AppendChild(ch.node), file, uv)
			if err != nil {
				return nil, err
			}
			if _, err := tex.CreateAttribute(tokens.OutputsRGB, scene.Float3); err != nil {
				return nil, err
			}
			in.Connect(tex.Path.AppendProperty(tokens.OutputsRGB))
			continue
		}
		if v, ok := constant(m, ch.role); ok {
			if err := in.Set(v); err != nil {
				return nil, err
			}
		}
	}
	return mat, nil
}

// constant is the untextured value of a channel, if it has one.
func constant(m *mjcf.Material, role mjcf.TextureRole) (any, bool) {
	rgb := mathx.Vec3f{float32(m.RGBA[0]), float32(m.RGBA[1]), float32(m.RGBA[2])}
	switch role {
	case mjcf.RoleRGB:
		return rgb, true
	case mjcf.RoleMetallic:
		return float32(m.Metallic), m.Metallic >= 0
	case mjcf.RoleRoughness:
		return float32(m.Roughness), m.Roughness >= 0
	case mjcf.RoleEmissive:
		e := float32(m.Emission)
		return mathx.Vec3f{e * rgb[0], e * rgb[1], e * rgb[2]}, m.Emission > 0
	case mjcf.RoleOpacity:
		return float32(m.RGBA[3]), m.RGBA[3] < 1
	}
	return nil, false
}

// textureFiles resolves each layer of m to an asset path, dropping layers
// whose texture has no file.
func (b *Builder) textureFiles(m *mjcf.Material, matPath scene.Path) map[mjcf.TextureRole]string {
	files := make(map[mjcf.TextureRole]string, len(m.Layers))
	for _, l := range m.Layers {
		tex := b.Assets.Texture(l.Texture)
		if tex == nil {
			continue
		}
		if tex.File == "" {
			b.warn(matPath, "texture %q is builtin %q and is not exported", tex.Name, tex.Builtin)
			continue
		}
		file := tex.File
		if b.TextureDir != "" && !path.IsAbs(file) {
			file = path.Join(b.TextureDir, file)
		}
		files[l.Role] = file
	}
	return files
}

func (b *Builder) shader(p scene.Path, id string) (*scene.Prim, error) {
	prim, err := b.Store.DefinePrim(p, tokens.TypeShader)
	if err != nil {
		return nil, err
	}
	a, err := prim.CreateAttribute(tokens.InfoID, scene.Token)
	if err != nil {
		return nil, err
	}
	a.Uniform = true
	return prim, a.Set(id)
}

func (b *Builder) texture(p scene.Path, file string, uv scene.Path) (*scene.Prim, error) {
	tex, err := b.shader(p, tokens.UVTextureID)
	if err != nil {
		return nil, err
	}
	if err := tex.Set(tokens.InputsFile, scene.Asset, file); err != nil {
		return nil, err
	}
	st, err := tex.CreateAttribute(tokens.InputsST, scene.Float2)
	if err != nil {
		return nil, err
	}
	st.Connect(uv.AppendProperty(tokens.OutputsResult))
	return tex, nil
}

// AuthorPhysics defines Root/PhysicsMaterials/name carrying the sliding,
// torsional and rolling friction coefficients.
func (b *Builder) AuthorPhysics(name string, friction [3]float64) (*scene.Prim, error) {
	if _, err := b.scope(tokens.PhysicsMaterials); err != nil {
		return nil, err
	}
	p, err := b.Store.DefinePrim(b.Root.AppendChild(tokens.PhysicsMaterials).AppendChild(name), tokens.TypeMaterial)
	if err != nil {
		return nil, err
	}
	p.ApplyAPI(tokens.PhysicsMaterialAPI)
	p.ApplyAPI(tokens.MjcMaterialAPI)
	if err := p.Set(tokens.DynamicFriction, scene.Float, float32(friction[0])); err != nil {
		return nil, err
	}
	if err := p.Set(tokens.TorsionalFriction, scene.Double, friction[1]); err != nil {
		return nil, err
	}
	return p, p.Set(tokens.RollingFriction, scene.Double, friction[2])
}

// Bind points geom's material bindings at the visual and physics materials;
// either path may be empty. With both present the physics material uses the
// physics-purpose binding.
func Bind(geom *scene.Prim, visual, physics scene.Path) {
	if visual == "" && physics == "" {
		return
	}
	geom.ApplyAPI(tokens.MaterialBindingAPI)
	if visual != "" {
		geom.CreateRelationship(tokens.MaterialBinding).AddTarget(visual)
	}
	if physics == "" {
		return
	}
	rel := tokens.MaterialBinding
	if visual != "" {
		rel = tokens.PhysicsBinding
	}
	geom.CreateRelationship(rel).AddTarget(physics)
}
