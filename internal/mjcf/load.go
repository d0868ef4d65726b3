package mjcf

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/agentic-research/mjcusd/internal/mathx"
)

// DefaultModelName is used when <mujoco> carries no model attribute.
const DefaultModelName = "MuJoCo Model"

// Load builds the typed model from a parsed <mujoco> element tree. Repeated
// top-level sections are merged in document order. The first malformed
// attribute, unknown class or unknown asset reference aborts the load.
func Load(root *Element) (*Model, error) {
	if root == nil || root.Name != "mujoco" {
		return nil, fmt.Errorf("%w: missing <mujoco> root", ErrMalformed)
	}
	l := &loader{classes: make(map[string]*Default)}
	m := &Model{Name: DefaultModelName}
	if v, ok := root.Attr("model"); ok && v != "" {
		m.Name = v
	}

	sections := make(map[string]*Element)
	for _, c := range root.Children {
		sections[c.Name] = mergeElements(sections[c.Name], c)
	}

	l.compiler(sections["compiler"])
	m.Compiler = l.comp

	opt := sections["option"]
	var flag *Element
	for _, f := range opt.ChildrenNamed("flag") {
		flag = mergeElements(flag, f)
	}
	m.Option = Option{
		Attrs: NewAttrs(opt, nil, "option"),
		Flags: NewAttrs(flag, nil, "flag"),
	}

	if def := sections["default"]; def != nil {
		l.root = l.defaults(def, nil)
	} else {
		l.root = &Default{Class: MainClass, elements: map[string]*Element{}}
		l.classes[MainClass] = l.root
	}
	m.Defaults = l.root

	l.assets(sections["asset"])
	m.Assets = l.model

	m.World = &Body{Name: "world", Transform: IdentityTransform}
	if wb := sections["worldbody"]; wb != nil {
		m.World.Line = wb.Line
		m.World.Children = l.children(wb, nil)
	}

	for _, c := range sections["actuator"].Elements() {
		if a := l.actuator(c); a != nil {
			m.Actuators = append(m.Actuators, a)
		}
	}
	for _, c := range sections["keyframe"].ChildrenNamed("key") {
		m.Keys = append(m.Keys, l.key(c))
	}
	m.Skipped = l.skipped

	if l.err != nil {
		return nil, l.err
	}
	return m, nil
}

// mergeElements folds src into dst: attributes from src replace those of
// the same name, children are appended.
func mergeElements(dst, src *Element) *Element {
	if dst == nil {
		out := &Element{Name: src.Name, Line: src.Line}
		out.Attrs = append(out.Attrs, src.Attrs...)
		out.Children = append(out.Children, src.Children...)
		return out
	}
	for _, a := range src.Attrs {
		replaced := false
		for i := range dst.Attrs {
			if dst.Attrs[i].Name == a.Name {
				dst.Attrs[i].Value = a.Value
				replaced = true
			}
		}
		if !replaced {
			dst.Attrs = append(dst.Attrs, a)
		}
	}
	dst.Children = append(dst.Children, src.Children...)
	return dst
}

// loader carries per-document state and records the first error, so the
// element walkers can stay linear.
type loader struct {
	err     error
	comp    Compiler
	root    *Default
	classes map[string]*Default
	model   Assets
	skipped []Skipped
}

func (l *loader) check(err error) {
	if l.err == nil && err != nil {
		l.err = err
	}
}

func (l *loader) float(a Attrs, name string, def float64) float64 {
	v, err := a.Float(name, def)
	l.check(err)
	return v
}

func (l *loader) floats(a Attrs, name string, def []float64) []float64 {
	v, err := a.Floats(name, def)
	l.check(err)
	return v
}

func (l *loader) vec3(a Attrs, name string, def mathx.Vec3) mathx.Vec3 {
	v := l.floats(a, name, def[:])
	return mathx.Vec3{v[0], v[1], v[2]}
}

func (l *loader) pair(a Attrs, name string, def [2]float64) [2]float64 {
	v := l.floats(a, name, def[:])
	return [2]float64{v[0], v[1]}
}

func (l *loader) triple(a Attrs, name string, def [3]float64) [3]float64 {
	v := l.floats(a, name, def[:])
	return [3]float64{v[0], v[1], v[2]}
}

func (l *loader) rgba(a Attrs, name string, def [4]float64) [4]float64 {
	v := l.floats(a, name, def[:])
	return [4]float64{v[0], v[1], v[2], v[3]}
}

func (l *loader) int(a Attrs, name string, def int) int {
	v, err := a.Int(name, def)
	l.check(err)
	return v
}

func (l *loader) bool(a Attrs, name string, def bool) bool {
	v, err := a.Bool(name, def)
	l.check(err)
	return v
}

func (l *loader) tristate(a Attrs, name string) Tristate {
	v, err := a.Tristate(name)
	l.check(err)
	return v
}

func (l *loader) keyword(a Attrs, name, def string, allowed ...string) string {
	v, err := a.Keyword(name, def, allowed...)
	l.check(err)
	return v
}

func (l *loader) compiler(el *Element) {
	a := NewAttrs(el, nil, "compiler")
	c := Compiler{Attrs: a, EulerSeq: "xyz"}
	if l.keyword(a, "angle", "degree", "degree", "radian") == "radian" {
		c.Angle = Radian
	}
	c.EulerSeq = a.String("eulerseq", c.EulerSeq)
	if _, err := mathx.Euler(mathx.Zero, c.EulerSeq); err != nil {
		l.check(fmt.Errorf("%w: compiler: %v", ErrMalformed, err))
	}
	assetDir := a.String("assetdir", "")
	c.MeshDir = a.String("meshdir", assetDir)
	c.TextureDir = a.String("texturedir", assetDir)
	c.AutoLimits = l.bool(a, "autolimits", true)
	l.comp = c
}

func (l *loader) defaults(el *Element, parent *Default) *Default {
	name, ok := el.Attr("class")
	switch {
	case parent == nil && !ok:
		name = MainClass
	case !ok || name == "":
		l.check(fmt.Errorf("%w: line %d: nested <default> needs a class", ErrMalformed, el.Line))
	}
	if _, dup := l.classes[name]; dup {
		l.check(fmt.Errorf("%w: line %d: repeated default class %q", ErrMalformed, el.Line, name))
	}
	d := &Default{Class: name, Parent: parent, elements: make(map[string]*Element)}
	l.classes[name] = d
	for _, c := range el.Children {
		if c.Name == "default" {
			d.Children = append(d.Children, l.defaults(c, d))
			continue
		}
		d.elements[c.Name] = mergeElements(d.elements[c.Name], c)
	}
	return d
}

// class resolves the default class of el: its own class attribute, else the
// childclass in effect, else the root class.
func (l *loader) class(el *Element, inherited *Default) *Default {
	if name, ok := el.Attr("class"); ok {
		return l.lookupClass(name, el.Line)
	}
	if inherited != nil {
		return inherited
	}
	return l.root
}

func (l *loader) lookupClass(name string, line int) *Default {
	if d, ok := l.classes[name]; ok {
		return d
	}
	l.check(fmt.Errorf("%w: %q (line %d)", ErrUnknownClass, name, line))
	return l.root
}

// className is the class name an element records for inheritance; the root
// class is implicit.
func (l *loader) className(d *Default) string {
	if d == nil || d == l.root {
		return ""
	}
	return d.Class
}

func (l *loader) skip(el *Element) {
	name, _ := el.Attr("name")
	l.skipped = append(l.skipped, Skipped{Element: el.Name, Name: name, Line: el.Line})
}

// orientation resolves the MJCF orientation forms. Forms on the element
// itself win over forms inherited from its class.
func (l *loader) orientation(a Attrs) mathx.Quat {
	forms := []string{"quat", "axisangle", "xyaxes", "zaxis", "euler"}
	for _, own := range []bool{true, false} {
		for _, f := range forms {
			var ok bool
			if own {
				_, ok = a.Own(f)
			} else {
				ok = a.Declared(f)
			}
			if ok {
				return l.orient(a, f)
			}
		}
	}
	return mathx.Identity
}

func (l *loader) orient(a Attrs, form string) mathx.Quat {
	switch form {
	case "quat":
		v := l.floats(a, form, []float64{1, 0, 0, 0})
		q := mathx.Quat{v[0], v[1], v[2], v[3]}
		if math.Abs(q[0])+math.Abs(q[1])+math.Abs(q[2])+math.Abs(q[3]) < mathx.Epsilon {
			return mathx.Identity
		}
		return q.Normalize()
	case "axisangle":
		v := l.floats(a, form, []float64{0, 0, 1, 0})
		return mathx.AxisAngle(mathx.Vec3{v[0], v[1], v[2]}, l.comp.ToRadians(v[3]))
	case "xyaxes":
		v := l.floats(a, form, []float64{1, 0, 0, 0, 1, 0})
		return mathx.XYAxes(mathx.Vec3{v[0], v[1], v[2]}, mathx.Vec3{v[3], v[4], v[5]})
	case "zaxis":
		return mathx.ShortestArc(mathx.UnitZ, l.vec3(a, form, mathx.UnitZ))
	case "euler":
		v := l.vec3(a, form, mathx.Zero)
		for i := range v {
			v[i] = l.comp.ToRadians(v[i])
		}
		q, err := mathx.Euler(v, l.comp.EulerSeq)
		l.check(err)
		return q
	}
	return mathx.Identity
}

func (l *loader) transform(a Attrs) Transform {
	return Transform{Pos: l.vec3(a, "pos", mathx.Zero), Quat: l.orientation(a)}
}

// fromTo places a shape along a segment: the segment midpoint becomes the
// position, the segment direction the local Z axis and its half-length the
// size along that axis.
func (l *loader) fromTo(a Attrs, t *Transform, size *[3]float64, lengthAxis int) {
	if !a.Declared("fromto") {
		return
	}
	v := l.floats(a, "fromto", make([]float64, 6))
	from, to := mathx.Vec3{v[0], v[1], v[2]}, mathx.Vec3{v[3], v[4], v[5]}
	seg := to.Sub(from)
	t.Pos = from.Add(to).Scale(0.5)
	t.Quat = mathx.ShortestArc(mathx.UnitZ, seg)
	size[lengthAxis] = seg.Len() / 2
}

func (l *loader) children(el *Element, cls *Default) []BodyChild {
	var out []BodyChild
	for _, c := range el.Children {
		switch c.Name {
		case "body":
			out = append(out, l.body(c, cls))
		case "frame":
			out = append(out, l.frame(c, cls))
		case "joint":
			out = append(out, l.joint(c, cls))
		case "freejoint":
			name, _ := c.Attr("name")
			out = append(out, &Joint{Name: name, Type: JointFree, Axis: mathx.UnitZ})
		case "geom":
			out = append(out, l.geom(c, cls))
		case "site":
			out = append(out, l.site(c, cls))
		case "inertial":
		default:
			l.skip(c)
		}
	}
	return out
}

func (l *loader) childClass(el *Element, inherited *Default) (*Default, string) {
	if name, ok := el.Attr("childclass"); ok {
		return l.lookupClass(name, el.Line), name
	}
	return inherited, ""
}

func (l *loader) body(el *Element, inherited *Default) *Body {
	a := NewAttrs(el, nil)
	name, _ := el.Attr("name")
	b := &Body{Name: name, Line: el.Line, Transform: l.transform(a)}
	b.Mocap = l.bool(a, "mocap", false)
	cls, cc := l.childClass(el, inherited)
	b.ChildClass = cc
	b.Children = l.children(el, cls)
	if in := el.Child("inertial"); in != nil {
		b.Inertial = l.inertial(in)
	}
	return b
}

func (l *loader) frame(el *Element, inherited *Default) *Frame {
	a := NewAttrs(el, nil)
	name, _ := el.Attr("name")
	f := &Frame{Name: name, Transform: l.transform(a)}
	cls, cc := l.childClass(el, inherited)
	f.ChildClass = cc
	f.Children = l.children(el, cls)
	return f
}

func (l *loader) inertial(el *Element) *Inertial {
	a := NewAttrs(el, nil)
	in := &Inertial{Transform: l.transform(a)}
	in.Mass = l.float(a, "mass", 0)
	if a.Declared("diaginertia") {
		in.HasDiag = true
		in.DiagInertia = l.vec3(a, "diaginertia", mathx.Zero)
	}
	if a.Declared("fullinertia") {
		in.FullInertia = l.floats(a, "fullinertia", make([]float64, 6))
	}
	return in
}

var jointTypes = []string{"free", "ball", "slide", "hinge"}

func (l *loader) joint(el *Element, inherited *Default) *Joint {
	cls := l.class(el, inherited)
	a := NewAttrs(el, cls, "joint")
	name, _ := el.Attr("name")
	j := &Joint{Name: name, Class: l.className(cls)}
	j.Type = JointType(index(jointTypes, l.keyword(a, "type", "hinge", jointTypes...)))
	j.Pos = l.vec3(a, "pos", mathx.Zero)
	j.Axis = l.vec3(a, "axis", mathx.UnitZ)
	if j.Axis.IsZero() {
		l.check(fmt.Errorf("%w: line %d: joint axis is zero", ErrMalformed, el.Line))
		j.Axis = mathx.UnitZ
	}
	j.Axis = j.Axis.Normalize()

	j.Limited = l.tristate(a, "limited")
	j.RangeSet = a.Declared("range")
	j.Range = l.pair(a, "range", [2]float64{})

	j.Group = l.int(a, "group", 0)
	j.Stiffness = l.float(a, "stiffness", 0)
	j.Damping = l.float(a, "damping", 0)
	j.Armature = l.float(a, "armature", 0)
	j.FrictionLoss = l.float(a, "frictionloss", 0)
	j.Ref = l.float(a, "ref", 0)
	j.SpringRef = l.float(a, "springref", 0)
	j.Margin = l.float(a, "margin", 0)
	j.SpringDamper = l.floats(a, "springdamper", []float64{0, 0})

	j.SolRefLimit = l.floats(a, "solreflimit", DefaultSolRef)
	j.SolImpLimit = l.floats(a, "solimplimit", DefaultSolImp)
	j.SolRefFriction = l.floats(a, "solreffriction", DefaultSolRef)
	j.SolImpFriction = l.floats(a, "solimpfriction", DefaultSolImp)

	j.ActuatorFrcLimited = l.tristate(a, "actuatorfrclimited")
	j.ActuatorFrcRange = l.pair(a, "actuatorfrcrange", [2]float64{})
	j.ActuatorGravComp = l.bool(a, "actuatorgravcomp", false)
	return j
}

var geomTypes = []string{"plane", "hfield", "sphere", "capsule", "ellipsoid", "cylinder", "box", "mesh", "sdf"}

func (l *loader) geom(el *Element, inherited *Default) *Geom {
	cls := l.class(el, inherited)
	a := NewAttrs(el, cls, "geom")
	name, _ := el.Attr("name")
	g := &Geom{Name: name, Class: l.className(cls)}

	g.Mesh = a.String("mesh", "")
	def := "sphere"
	if g.Mesh != "" {
		def = "mesh"
	}
	g.Type = GeomType(index(geomTypes, l.keyword(a, "type", def, geomTypes...)))
	g.Size = l.triple(a, "size", [3]float64{})
	g.Transform = l.transform(a)
	switch g.Type {
	case GeomCapsule, GeomCylinder:
		l.fromTo(a, &g.Transform, &g.Size, 1)
	case GeomBox, GeomEllipsoid:
		l.fromTo(a, &g.Transform, &g.Size, 2)
	}
	g.RGBA = l.rgba(a, "rgba", DefaultRGBA)
	g.Material = a.String("material", "")

	g.ConType = l.int(a, "contype", 1)
	g.ConAffinity = l.int(a, "conaffinity", 1)
	g.CondIm = l.int(a, "condim", 3)
	g.Group = l.int(a, "group", 0)
	g.Priority = l.int(a, "priority", 0)
	g.Friction = l.triple(a, "friction", DefaultFriction)

	g.HasMass = a.Declared("mass")
	g.Mass = l.float(a, "mass", 0)
	g.HasDensity = a.Declared("density")
	g.Density = l.float(a, "density", 1000)

	g.SolMix = l.float(a, "solmix", 1)
	g.SolRef = l.floats(a, "solref", DefaultSolRef)
	g.SolImp = l.floats(a, "solimp", DefaultSolImp)
	g.Margin = l.float(a, "margin", 0)
	g.Gap = l.float(a, "gap", 0)
	g.ShellInertia = l.bool(a, "shellinertia", false)

	if g.Type == GeomMesh {
		if g.Mesh == "" {
			l.check(fmt.Errorf("%w: line %d: mesh geom without mesh", ErrMalformed, el.Line))
		} else if l.model.Mesh(g.Mesh) == nil {
			l.check(fmt.Errorf("%w: mesh %q (line %d)", ErrUnknownAsset, g.Mesh, el.Line))
		}
	}
	l.checkMaterial(g.Material, el.Line)
	return g
}

func (l *loader) checkMaterial(name string, line int) {
	if name != "" && l.model.Material(name) == nil {
		l.check(fmt.Errorf("%w: material %q (line %d)", ErrUnknownAsset, name, line))
	}
}

var siteTypes = []string{"sphere", "capsule", "ellipsoid", "cylinder", "box"}

func (l *loader) site(el *Element, inherited *Default) *Site {
	cls := l.class(el, inherited)
	a := NewAttrs(el, cls, "site")
	name, _ := el.Attr("name")
	s := &Site{Name: name, Class: l.className(cls)}
	s.Type = SiteType(index(siteTypes, l.keyword(a, "type", "sphere", siteTypes...)))
	s.Size = l.triple(a, "size", [3]float64{0.005, 0.005, 0.005})
	s.Transform = l.transform(a)
	switch s.Type {
	case SiteCapsule, SiteCylinder:
		l.fromTo(a, &s.Transform, &s.Size, 1)
	case SiteBox, SiteEllipsoid:
		l.fromTo(a, &s.Transform, &s.Size, 2)
	}
	s.RGBA = l.rgba(a, "rgba", DefaultRGBA)
	s.Group = l.int(a, "group", 0)
	s.Material = a.String("material", "")
	l.checkMaterial(s.Material, el.Line)
	return s
}

func (l *loader) assets(el *Element) {
	// Textures first so materials can check their layers.
	for _, c := range el.ChildrenNamed("texture") {
		l.model.Textures = append(l.model.Textures, l.texture(c))
	}
	for _, c := range el.Elements() {
		switch c.Name {
		case "mesh":
			l.model.Meshes = append(l.model.Meshes, l.mesh(c))
		case "material":
			l.model.Materials = append(l.model.Materials, l.material(c))
		case "texture":
		default:
			l.skip(c)
		}
	}
}

func fileStem(file string) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func (l *loader) mesh(el *Element) *Mesh {
	cls := l.class(el, nil)
	a := NewAttrs(el, cls, "mesh")
	name, _ := el.Attr("name")
	file, _ := el.Attr("file")
	if name == "" {
		if file == "" {
			l.check(fmt.Errorf("%w: line %d: mesh needs a name or a file", ErrMalformed, el.Line))
		}
		name = fileStem(file)
	}
	m := &Mesh{Name: name, Class: l.className(cls), File: file}
	m.Vertex = l.floats(a, "vertex", nil)
	m.Normal = l.floats(a, "normal", nil)
	m.Texcoord = l.floats(a, "texcoord", nil)
	face, err := a.Ints("face")
	l.check(err)
	m.Face = face
	m.Scale = l.vec3(a, "scale", mathx.Vec3{1, 1, 1})
	m.Inertia = l.keyword(a, "inertia", "legacy", "legacy", "convex", "exact", "shell")
	m.MaxHullVert = l.int(a, "maxhullvert", -1)
	if len(m.Vertex)%3 != 0 || len(m.Normal)%3 != 0 || len(m.Texcoord)%2 != 0 || len(m.Face)%3 != 0 {
		l.check(fmt.Errorf("%w: line %d: mesh %q array length", ErrMalformed, el.Line, name))
	}
	return m
}

func (l *loader) texture(el *Element) *Texture {
	a := NewAttrs(el, l.class(el, nil), "texture")
	name, _ := el.Attr("name")
	file, _ := el.Attr("file")
	if name == "" && file != "" {
		name = fileStem(file)
	}
	return &Texture{
		Name:    name,
		Type:    l.keyword(a, "type", "cube", "2d", "cube", "skybox"),
		File:    file,
		Builtin: l.keyword(a, "builtin", "none", "none", "gradient", "checker", "flat"),
	}
}

func (l *loader) material(el *Element) *Material {
	cls := l.class(el, nil)
	a := NewAttrs(el, cls, "material")
	name, _ := el.Attr("name")
	if name == "" {
		l.check(fmt.Errorf("%w: line %d: material needs a name", ErrMalformed, el.Line))
	}
	m := &Material{Name: name, Class: l.className(cls)}
	m.RGBA = l.rgba(a, "rgba", [4]float64{1, 1, 1, 1})
	m.Emission = l.float(a, "emission", 0)
	m.Specular = l.float(a, "specular", 0.5)
	m.Shininess = l.float(a, "shininess", 0.5)
	m.Reflectance = l.float(a, "reflectance", 0)
	m.Metallic = l.float(a, "metallic", -1)
	m.Roughness = l.float(a, "roughness", -1)
	if tex := a.String("texture", ""); tex != "" {
		m.Layers = append(m.Layers, Layer{Texture: tex, Role: RoleRGB})
	}
	for _, c := range el.ChildrenNamed("layer") {
		la := NewAttrs(c, nil)
		tex := la.String("texture", "")
		roleName := la.String("role", "rgb")
		role, ok := roleNames[roleName]
		if !ok {
			l.check(fmt.Errorf("%w: line %d: unknown texture role %q", ErrMalformed, c.Line, roleName))
		}
		m.Layers = append(m.Layers, Layer{Texture: tex, Role: role})
	}
	for _, layer := range m.Layers {
		if l.model.Texture(layer.Texture) == nil {
			l.check(fmt.Errorf("%w: texture %q (line %d)", ErrUnknownAsset, layer.Texture, el.Line))
		}
	}
	return m
}

var (
	dynTypes  = []string{"none", "integrator", "filter", "filterexact", "muscle", "user"}
	gainTypes = []string{"fixed", "affine", "muscle", "user"}
	biasTypes = []string{"none", "affine", "muscle", "user"}
)

func (l *loader) actuator(el *Element) *Actuator {
	kind, ok := actuatorKinds[el.Name]
	if !ok {
		l.skip(el)
		return nil
	}
	cls := l.class(el, nil)
	a := NewAttrs(el, cls, el.Name, "general")
	name, _ := el.Attr("name")
	act := &Actuator{Name: name, Class: l.className(cls), Kind: kind, Line: el.Line}
	act.Joint, _ = el.Attr("joint")
	act.Site, _ = el.Attr("site")
	act.Body, _ = el.Attr("body")
	act.Tendon, _ = el.Attr("tendon")
	act.CrankSite, _ = el.Attr("cranksite")
	act.SliderSite, _ = el.Attr("slidersite")
	act.RefSite, _ = el.Attr("refsite")

	act.Group = l.int(a, "group", 0)
	act.CtrlLimited = l.tristate(a, "ctrllimited")
	act.CtrlRange = l.pair(a, "ctrlrange", [2]float64{})
	act.ForceLimited = l.tristate(a, "forcelimited")
	act.ForceRange = l.pair(a, "forcerange", [2]float64{})
	act.ActLimited = l.tristate(a, "actlimited")
	act.ActRange = l.pair(a, "actrange", [2]float64{})
	act.LengthRange = l.pair(a, "lengthrange", [2]float64{})
	act.ActDim = l.int(a, "actdim", -1)
	act.ActEarly = l.bool(a, "actearly", false)
	act.Gear = l.floats(a, "gear", DefaultGear)
	act.CrankLength = l.float(a, "cranklength", 0)

	act.DynType, act.GainType, act.BiasType = "none", "fixed", "none"
	act.DynPrm = clone(DefaultDynPrm)
	act.GainPrm = clone(DefaultGain)
	act.BiasPrm = clone(DefaultBias)

	switch kind {
	case ActuatorGeneral:
		act.DynType = l.keyword(a, "dyntype", "none", dynTypes...)
		act.GainType = l.keyword(a, "gaintype", "fixed", gainTypes...)
		act.BiasType = l.keyword(a, "biastype", "none", biasTypes...)
		act.DynPrm = l.floats(a, "dynprm", DefaultDynPrm)
		act.GainPrm = l.floats(a, "gainprm", DefaultGain)
		act.BiasPrm = l.floats(a, "biasprm", DefaultBias)
	case ActuatorMotor:
	case ActuatorPosition, ActuatorIntVelocity:
		l.position(a, act)
		if kind == ActuatorIntVelocity {
			act.DynType = "integrator"
			act.ActLimited = True
		}
	case ActuatorVelocity:
		kv := l.float(a, "kv", 1)
		act.GainPrm[0] = kv
		act.BiasPrm[2] = -kv
		act.BiasType = "affine"
	case ActuatorDamper:
		kv := l.float(a, "kv", 0)
		act.GainPrm = make([]float64, len(DefaultGain))
		act.GainPrm[2] = -kv
		act.GainType = "affine"
		act.CtrlLimited = True
		if kv < 0 {
			l.check(fmt.Errorf("%w: line %d: damper kv cannot be negative", ErrMalformed, el.Line))
		}
	case ActuatorCylinder:
		act.DynType = "filter"
		act.BiasType = "affine"
		act.DynPrm[0] = l.float(a, "timeconst", 1)
		act.GainPrm[0] = l.float(a, "area", 1)
		if a.Declared("diameter") {
			d := l.float(a, "diameter", 0)
			act.GainPrm[0] = math.Pi / 4 * d * d
		}
		copy(act.BiasPrm, l.floats(a, "bias", []float64{0, 0, 0}))
	case ActuatorAdhesion:
		act.GainPrm[0] = l.float(a, "gain", 1)
		act.CtrlLimited = True
	case ActuatorMuscle:
		l.muscle(a, act)
	}
	return act
}

func (l *loader) position(a Attrs, act *Actuator) {
	kp := l.float(a, "kp", 1)
	act.GainPrm[0] = kp
	act.BiasPrm[1] = -kp
	if a.Declared("kv") && a.Declared("dampratio") {
		l.check(fmt.Errorf("%w: line %d: kv and dampratio cannot both be defined", ErrMalformed, a.line()))
	}
	if a.Declared("kv") {
		act.BiasPrm[2] = -l.float(a, "kv", 0)
	}
	if a.Declared("dampratio") {
		act.BiasPrm[2] = l.float(a, "dampratio", 0)
	}
	if tc := l.float(a, "timeconst", 0); tc > 0 {
		act.DynPrm[0] = tc
		act.DynType = "filterexact"
	}
	act.InheritRange = l.float(a, "inheritrange", 0)
	act.BiasType = "affine"
}

func (l *loader) muscle(a Attrs, act *Actuator) {
	act.DynPrm[0], act.DynPrm[1] = 0.01, 0.04
	copy(act.GainPrm, []float64{0.75, 1.05, -1, 200, 0.5, 1.6, 1.5, 1.3, 1.2})
	tc := l.floats(a, "timeconst", []float64{-1, -1})
	for i, v := range tc {
		if v >= 0 {
			act.DynPrm[i] = v
		}
	}
	act.DynPrm[2] = l.float(a, "tausmooth", 0)
	rng := l.floats(a, "range", []float64{-1, -1})
	for i, v := range rng {
		if v >= 0 {
			act.GainPrm[i] = v
		}
	}
	for i, name := range []string{"force", "scale", "lmin", "lmax", "vmax", "fpmax", "fvmax"} {
		if v := l.float(a, name, -1); v >= 0 {
			act.GainPrm[i+2] = v
		}
	}
	copy(act.BiasPrm, act.GainPrm[:9])
	act.DynType, act.GainType, act.BiasType = "muscle", "muscle", "muscle"
}

func (l *loader) key(el *Element) *Key {
	a := NewAttrs(el, nil)
	name, _ := el.Attr("name")
	k := &Key{Name: name, HasTime: a.Declared("time")}
	k.Time = l.float(a, "time", 0)
	k.QPos = l.floats(a, "qpos", nil)
	k.QVel = l.floats(a, "qvel", nil)
	k.Act = l.floats(a, "act", nil)
	k.Ctrl = l.floats(a, "ctrl", nil)
	k.MPos = l.floats(a, "mpos", nil)
	k.MQuat = l.floats(a, "mquat", nil)
	return k
}

func index(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}
