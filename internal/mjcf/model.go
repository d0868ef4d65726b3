package mjcf

import "github.com/agentic-research/mjcusd/internal/mathx"

// Model is the typed, immutable view of one MJCF document.
type Model struct {
	Name      string
	Compiler  Compiler
	Option    Option
	Defaults  *Default
	Assets    Assets
	World     *Body
	Actuators []*Actuator
	Keys      []*Key

	// Skipped lists elements the loader recognised but does not model.
	Skipped []Skipped
}

// Tags of the elements a translated document can refer to by name.
const (
	TagBody     = "body"
	TagJoint    = "joint"
	TagGeom     = "geom"
	TagSite     = "site"
	TagMesh     = "mesh"
	TagMaterial = "material"
)

// Skipped is an element left out of the typed model.
type Skipped struct {
	Element string
	Name    string
	Line    int
}

// AngleUnit is the compiler's unit for angles written in the document.
type AngleUnit int

const (
	Degree AngleUnit = iota
	Radian
)

// Compiler holds the <compiler> settings translation depends on. Attrs keeps
// the raw section for the option mapper.
type Compiler struct {
	Attrs      Attrs
	Angle      AngleUnit
	EulerSeq   string
	MeshDir    string
	TextureDir string
	AutoLimits bool
}

// ToDegrees converts an angle written in the document's unit to degrees.
func (c Compiler) ToDegrees(v float64) float64 {
	if c.Angle == Radian {
		return mathx.Rad2Deg(v)
	}
	return v
}

// ToRadians converts an angle written in the document's unit to radians.
func (c Compiler) ToRadians(v float64) float64 {
	if c.Angle == Degree {
		return mathx.Deg2Rad(v)
	}
	return v
}

// Option holds the raw <option> section and its nested <flag>.
type Option struct {
	Attrs Attrs
	Flags Attrs
}

// Tristate is MJCF's true/false/auto switch.
type Tristate int

const (
	Auto Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "auto"
}

// Transform is a local pose relative to the enclosing body or frame.
type Transform struct {
	Pos  mathx.Vec3
	Quat mathx.Quat
}

// Identity pose.
var IdentityTransform = Transform{Quat: mathx.Identity}

// Compose returns the pose of child expressed in t's parent frame.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Pos:  t.Pos.Add(t.Quat.Rotate(child.Pos)),
		Quat: t.Quat.Mul(child.Quat).Normalize(),
	}
}

func (t Transform) IsIdentity() bool { return t.Pos.IsZero() && t.Quat.IsIdentity() }

// BodyChild is the closed set of elements that can appear inside a body or
// frame: *Body, *Frame, *Joint, *Geom and *Site.
type BodyChild interface {
	bodyChild()
}

// Body is a <body> (or the <worldbody>, which has Name "world").
type Body struct {
	Name       string
	ChildClass string
	Transform
	Mocap    bool
	Children []BodyChild
	Inertial *Inertial
	Line     int
}

// Frame only composes its transform into its children.
type Frame struct {
	Name       string
	ChildClass string
	Transform
	Children []BodyChild
}

// Inertial is an explicit <inertial> override on a body.
type Inertial struct {
	Transform
	Mass        float64
	DiagInertia mathx.Vec3
	HasDiag     bool
	FullInertia []float64
}

type JointType int

const (
	JointFree JointType = iota
	JointBall
	JointSlide
	JointHinge
)

func (t JointType) String() string {
	return [...]string{"free", "ball", "slide", "hinge"}[t]
}

// Joint default solver parameter vectors.
var (
	DefaultSolRef = []float64{0.02, 1}
	DefaultSolImp = []float64{0.9, 0.95, 0.001, 0.5, 2}
)

type Joint struct {
	Name  string
	Class string
	Type  JointType
	Pos   mathx.Vec3
	Axis  mathx.Vec3

	Limited  Tristate
	Range    [2]float64
	RangeSet bool

	Group        int
	Stiffness    float64
	Damping      float64
	Armature     float64
	FrictionLoss float64
	Ref          float64
	SpringRef    float64
	Margin       float64
	SpringDamper []float64

	SolRefLimit    []float64
	SolImpLimit    []float64
	SolRefFriction []float64
	SolImpFriction []float64

	ActuatorFrcRange   [2]float64
	ActuatorFrcLimited Tristate
	ActuatorGravComp   bool
}

// IsLimited resolves the limited switch against the compiler's autolimits.
func (j *Joint) IsLimited(autoLimits bool) bool {
	switch j.Limited {
	case True:
		return true
	case False:
		return false
	}
	return autoLimits && j.RangeSet
}

type GeomType int

const (
	GeomPlane GeomType = iota
	GeomHField
	GeomSphere
	GeomCapsule
	GeomEllipsoid
	GeomCylinder
	GeomBox
	GeomMesh
	GeomSDF
)

func (t GeomType) String() string {
	return [...]string{"plane", "hfield", "sphere", "capsule", "ellipsoid", "cylinder", "box", "mesh", "sdf"}[t]
}

// Visual defaults shared by geoms and sites.
var (
	DefaultRGBA     = [4]float64{0.5, 0.5, 0.5, 1}
	DefaultFriction = [3]float64{1, 0.005, 0.0001}
)

type Geom struct {
	Name  string
	Class string
	Type  GeomType
	Size  [3]float64
	Transform
	RGBA     [4]float64
	Mesh     string
	Material string

	ConType     int
	ConAffinity int
	CondIm      int
	Group       int
	Priority    int
	Friction    [3]float64

	Mass       float64
	HasMass    bool
	Density    float64
	HasDensity bool

	SolMix       float64
	SolRef       []float64
	SolImp       []float64
	Margin       float64
	Gap          float64
	ShellInertia bool
}

// Collides reports whether the geom takes part in collision detection.
func (g *Geom) Collides() bool { return g.ConType != 0 || g.ConAffinity != 0 }

type SiteType int

const (
	SiteSphere SiteType = iota
	SiteCapsule
	SiteEllipsoid
	SiteCylinder
	SiteBox
)

func (t SiteType) String() string {
	return [...]string{"sphere", "capsule", "ellipsoid", "cylinder", "box"}[t]
}

type Site struct {
	Name  string
	Class string
	Type  SiteType
	Size  [3]float64
	Transform
	RGBA     [4]float64
	Group    int
	Material string
}

func (*Body) bodyChild()  {}
func (*Frame) bodyChild() {}
func (*Joint) bodyChild() {}
func (*Geom) bodyChild()  {}
func (*Site) bodyChild()  {}

// Assets holds the <asset> section, each list in document order.
type Assets struct {
	Meshes    []*Mesh
	Materials []*Material
	Textures  []*Texture
}

// Mesh finds a mesh asset by name.
func (a *Assets) Mesh(name string) *Mesh {
	for _, m := range a.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Material finds a material asset by name.
func (a *Assets) Material(name string) *Material {
	for _, m := range a.Materials {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Texture finds a texture asset by name.
func (a *Assets) Texture(name string) *Texture {
	for _, t := range a.Textures {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Mesh is a mesh asset, either inline (vertex/face/...) or loaded from File.
type Mesh struct {
	Name        string
	Class       string
	File        string
	Vertex      []float64
	Normal      []float64
	Texcoord    []float64
	Face        []int
	Scale       mathx.Vec3
	Inertia     string
	MaxHullVert int
}

type Texture struct {
	Name    string
	Type    string
	File    string
	Builtin string
}

// TextureRole is the material channel a texture layer feeds.
type TextureRole int

const (
	RoleRGB TextureRole = iota
	RoleNormal
	RoleOcclusion
	RoleRoughness
	RoleMetallic
	RoleOpacity
	RoleEmissive
	RoleORM
	RoleRGBA
)

var roleNames = map[string]TextureRole{
	"rgb":       RoleRGB,
	"normal":    RoleNormal,
	"occlusion": RoleOcclusion,
	"roughness": RoleRoughness,
	"metallic":  RoleMetallic,
	"opacity":   RoleOpacity,
	"emissive":  RoleEmissive,
	"orm":       RoleORM,
	"rgba":      RoleRGBA,
}

// Layer binds a texture to a material channel.
type Layer struct {
	Texture string
	Role    TextureRole
}

type Material struct {
	Name        string
	Class       string
	RGBA        [4]float64
	Emission    float64
	Specular    float64
	Shininess   float64
	Reflectance float64
	Metallic    float64
	Roughness   float64
	Layers      []Layer
}

// Layer returns the texture bound to role, if any.
func (m *Material) Layer(role TextureRole) (string, bool) {
	for _, l := range m.Layers {
		if l.Role == role {
			return l.Texture, true
		}
	}
	return "", false
}

type ActuatorKind int

const (
	ActuatorGeneral ActuatorKind = iota
	ActuatorMotor
	ActuatorPosition
	ActuatorVelocity
	ActuatorIntVelocity
	ActuatorDamper
	ActuatorCylinder
	ActuatorAdhesion
	ActuatorMuscle
)

var actuatorKinds = map[string]ActuatorKind{
	"general":     ActuatorGeneral,
	"motor":       ActuatorMotor,
	"position":    ActuatorPosition,
	"velocity":    ActuatorVelocity,
	"intvelocity": ActuatorIntVelocity,
	"damper":      ActuatorDamper,
	"cylinder":    ActuatorCylinder,
	"adhesion":    ActuatorAdhesion,
	"muscle":      ActuatorMuscle,
}

func (k ActuatorKind) String() string {
	for name, kind := range actuatorKinds {
		if kind == k {
			return name
		}
	}
	return "general"
}

// Actuator default parameter vectors.
var (
	DefaultGear   = []float64{1, 0, 0, 0, 0, 0}
	DefaultDynPrm = []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	DefaultGain   = []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	DefaultBias   = []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
)

// Actuator is an actuator with shortcut kinds already expanded into the
// general dynamics/gain/bias parameterization.
type Actuator struct {
	Name  string
	Class string
	Kind  ActuatorKind
	Line  int

	// Exactly one of these targets is set (CrankSite pairs with SliderSite).
	Joint     string
	Site      string
	Body      string
	Tendon    string
	CrankSite string

	RefSite    string
	SliderSite string

	Group        int
	CtrlLimited  Tristate
	CtrlRange    [2]float64
	ForceLimited Tristate
	ForceRange   [2]float64
	ActLimited   Tristate
	ActRange     [2]float64
	LengthRange  [2]float64
	ActDim       int
	ActEarly     bool

	DynType  string
	GainType string
	BiasType string
	Gear     []float64
	DynPrm   []float64
	GainPrm  []float64
	BiasPrm  []float64

	CrankLength  float64
	InheritRange float64
}

// Key is one <key> of the <keyframe> section.
type Key struct {
	Name    string
	Time    float64
	HasTime bool
	QPos    []float64
	QVel    []float64
	Act     []float64
	Ctrl    []float64
	MPos    []float64
	MQuat   []float64
}
