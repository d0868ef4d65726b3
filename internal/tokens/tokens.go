// Package tokens is the single table of names the translator authors: prim
// type names, API schema names, attribute and relationship names, and the
// fixed scopes of the output tree. Nothing here is mutable.
package tokens

// Reserved scopes and fixed prim names.
const (
	ClassRoot        = "__class__"
	Materials        = "Materials"
	PhysicsMaterials = "PhysicsMaterials"
	Actuators        = "Actuators"
	Keyframes        = "Keyframes"
	PhysicsScene     = "PhysicsScene"
	Keyframe         = "Keyframe"
	DefaultKeyframe  = "Default"
	FixedJoint       = "FixedJoint"
	MeshPrim         = "Mesh"
	PreviewSurface   = "PreviewSurface"
	UVMap            = "uvmap"
	ORMPacked        = "orm_packed"
)

// Prim type names.
const (
	TypeXform          = "Xform"
	TypeScope          = "Scope"
	TypeMesh           = "Mesh"
	TypePlane          = "Plane"
	TypeSphere         = "Sphere"
	TypeCapsule        = "Capsule"
	TypeCylinder       = "Cylinder"
	TypeCube           = "Cube"
	TypeMaterial       = "Material"
	TypeShader         = "Shader"
	TypePhysicsScene   = "PhysicsScene"
	TypeFixedJoint     = "PhysicsFixedJoint"
	TypeRevoluteJoint  = "PhysicsRevoluteJoint"
	TypePrismaticJoint = "PhysicsPrismaticJoint"
	TypeActuator       = "MjcActuator"
	TypeKeyframe       = "MjcKeyframe"
)

// API schemas.
const (
	RigidBodyAPI          = "PhysicsRigidBodyAPI"
	CollisionAPI          = "PhysicsCollisionAPI"
	MeshCollisionAPI      = "PhysicsMeshCollisionAPI"
	MassAPI               = "PhysicsMassAPI"
	ArticulationRootAPI   = "PhysicsArticulationRootAPI"
	PhysicsMaterialAPI    = "PhysicsMaterialAPI"
	MaterialBindingAPI    = "MaterialBindingAPI"
	MjcSceneAPI           = "MjcSceneAPI"
	MjcSiteAPI            = "MjcSiteAPI"
	MjcImageableAPI       = "MjcImageableAPI"
	MjcCollisionAPI       = "MjcCollisionAPI"
	MjcMeshCollisionAPI   = "MjcMeshCollisionAPI"
	MjcJointAPI           = "MjcJointAPI"
	MjcMaterialAPI        = "MjcMaterialAPI"
	MjcPhysicsActuatorAPI = "MjcActuatorAPI"
)

// Kind and purpose metadata values.
const (
	KindGroup        = "group"
	KindComponent    = "component"
	KindSubcomponent = "subcomponent"
	PurposeGuide     = "guide"
)

// Transform and geometry attributes.
const (
	Translate         = "xformOp:translate"
	Orient            = "xformOp:orient"
	Scale             = "xformOp:scale"
	XformOpOrder      = "xformOpOrder"
	Purpose           = "purpose"
	Radius            = "radius"
	Height            = "height"
	Size              = "size"
	Width             = "width"
	Length            = "length"
	Axis              = "axis"
	Extent            = "extent"
	Points            = "points"
	Normals           = "normals"
	FaceVertexCounts  = "faceVertexCounts"
	FaceVertexIndices = "faceVertexIndices"
	Subdivision       = "subdivisionScheme"
	ST                = "primvars:st"
	DisplayColor      = "primvars:displayColor"
	DisplayOpacity    = "primvars:displayOpacity"
	FaceVarying       = "faceVarying"
	Constant          = "constant"
)

// Physics interchange attributes and relationships.
const (
	Body0             = "physics:body0"
	Body1             = "physics:body1"
	LocalPos0         = "physics:localPos0"
	LocalPos1         = "physics:localPos1"
	LocalRot0         = "physics:localRot0"
	LocalRot1         = "physics:localRot1"
	JointAxis         = "physics:axis"
	LowerLimit        = "physics:lowerLimit"
	UpperLimit        = "physics:upperLimit"
	Approximation     = "physics:approximation"
	ConvexHull        = "convexHull"
	Mass              = "physics:mass"
	Density           = "physics:density"
	CenterOfMass      = "physics:centerOfMass"
	DiagonalInertia   = "physics:diagonalInertia"
	PrincipalAxes     = "physics:principalAxes"
	DynamicFriction   = "physics:dynamicFriction"
	GravityMagnitude  = "physics:gravityMagnitude"
	GravityDirection  = "physics:gravityDirection"
	MaterialBinding   = "material:binding"
	PhysicsBinding    = "material:binding:physics"
	TorsionalFriction = "mjc:torsionalfriction"
	RollingFriction   = "mjc:rollingfriction"
)

// Source-specific attributes shared across element kinds.
const (
	Group        = "mjc:group"
	Priority     = "mjc:priority"
	CondIm       = "mjc:condim"
	SolMix       = "mjc:solmix"
	SolRef       = "mjc:solref"
	SolImp       = "mjc:solimp"
	Margin       = "mjc:margin"
	Gap          = "mjc:gap"
	ShellInertia = "mjc:shellinertia"
	Inertia      = "mjc:inertia"
	MaxHullVert  = "mjc:maxhullvert"
)

// Joint attributes.
const (
	SpringDamper       = "mjc:springdamper"
	SolRefLimit        = "mjc:solreflimit"
	SolImpLimit        = "mjc:solimplimit"
	SolRefFriction     = "mjc:solreffriction"
	SolImpFriction     = "mjc:solimpfriction"
	Stiffness          = "mjc:stiffness"
	ActuatorFrcRange   = "mjc:actuatorfrcrange"
	ActuatorFrcLimited = "mjc:actuatorfrclimited"
	ActuatorGravComp   = "mjc:actuatorgravcomp"
	Ref                = "mjc:ref"
	SpringRef          = "mjc:springref"
	Armature           = "mjc:armature"
	Damping            = "mjc:damping"
	FrictionLoss       = "mjc:frictionloss"
)

// Actuator attributes and relationships.
const (
	Target       = "mjc:target"
	RefSite      = "mjc:refSite"
	SliderSite   = "mjc:sliderSite"
	CtrlLimited  = "mjc:ctrlLimited"
	CtrlRange    = "mjc:ctrlRange"
	ForceLimited = "mjc:forceLimited"
	ForceRange   = "mjc:forceRange"
	ActLimited   = "mjc:actLimited"
	ActRange     = "mjc:actRange"
	LengthRange  = "mjc:lengthRange"
	ActDim       = "mjc:actDim"
	ActEarly     = "mjc:actEarly"
	DynType      = "mjc:dynType"
	GainType     = "mjc:gainType"
	BiasType     = "mjc:biasType"
	Gear         = "mjc:gear"
	DynPrm       = "mjc:dynPrm"
	GainPrm      = "mjc:gainPrm"
	BiasPrm      = "mjc:biasPrm"
	CrankLength  = "mjc:crankLength"
	InheritRange = "mjc:inheritRange"
)

// Keyframe attributes.
const (
	QPos  = "mjc:qpos"
	QVel  = "mjc:qvel"
	Act   = "mjc:act"
	Ctrl  = "mjc:ctrl"
	MPos  = "mjc:mpos"
	MQuat = "mjc:mquat"
)

// Shading network names.
const (
	OutputsSurface      = "outputs:surface"
	OutputsDisplacement = "outputs:displacement"
	OutputsR            = "outputs:r"
	OutputsG            = "outputs:g"
	OutputsB            = "outputs:b"
	OutputsRGB          = "outputs:rgb"
	OutputsResult       = "outputs:result"
	InfoID              = "info:id"
	PreviewSurfaceID    = "UsdPreviewSurface"
	UVTextureID         = "UsdUVTexture"
	PrimvarReaderID     = "UsdPrimvarReader_float2"
	InputsFile          = "inputs:file"
	InputsST            = "inputs:st"
	InputsVarname       = "inputs:varname"
	InputsDiffuseColor  = "inputs:diffuseColor"
	InputsNormal        = "inputs:normal"
	InputsOcclusion     = "inputs:occlusion"
	InputsRoughness     = "inputs:roughness"
	InputsMetallic      = "inputs:metallic"
	InputsEmissiveColor = "inputs:emissiveColor"
	InputsOpacity       = "inputs:opacity"
	STVarname           = "st"
)

// Token values.
const (
	True  = "true"
	False = "false"
	Auto  = "auto"
	AxisZ = "Z"
)

// Attribute namespaces of the scene options prim.
const (
	OptionPrefix   = "mjc:option:"
	FlagPrefix     = "mjc:flag:"
	CompilerPrefix = "mjc:compiler:"
)
