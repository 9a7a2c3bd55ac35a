// Package scene defines the abstract scene-graph service interface.
// Implementations (memscene, host-DCC adapters) provide node creation,
// hierarchy, attributes and parametric surface evaluation behind this
// interface. The scene abstraction allows the rig-construction core to
// run against an in-memory graph in tests and against a live host in
// production without changing the rest of the system.
package scene

import (
	"errors"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind enumerates the node kinds the rig core creates and inspects.
type Kind int

const (
	KindTransform Kind = iota
	KindJoint
	KindCurve    // nurbs curve shape
	KindSurface  // lofted parametric surface shape
	KindMesh     // polygon mesh shape
	KindFollicle // surface-pinned follicle shape
	KindSkinCluster
	KindSet
	KindDisplayLayer
	KindConstraint
	KindDistanceBetween
	KindMultiplyDivide
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindJoint:
		return "joint"
	case KindCurve:
		return "curve"
	case KindSurface:
		return "surface"
	case KindMesh:
		return "mesh"
	case KindFollicle:
		return "follicle"
	case KindSkinCluster:
		return "skinCluster"
	case KindSet:
		return "set"
	case KindDisplayLayer:
		return "displayLayer"
	case KindConstraint:
		return "constraint"
	case KindDistanceBetween:
		return "distanceBetween"
	case KindMultiplyDivide:
		return "multiplyDivide"
	default:
		return "unknown"
	}
}

// Node is an opaque handle to a scene-graph node. Implementations wrap
// their internal representation. The node name is the identity used for
// every existence check in the rig core; two handles refer to the same
// node iff their names match.
type Node interface {
	Name() string
	Kind() Kind
}

// Well-known attribute names shared between the core and adapters.
const (
	AttrVisibility        = "visibility"
	AttrInheritsTransform = "inheritsTransform"
	AttrLineWidth         = "lineWidth"
	AttrOverrideEnabled   = "overrideEnabled"
	AttrOverrideRGB       = "overrideRGBColors"
	AttrOverrideColor     = "overrideColor"
	AttrOverrideColorRGB  = "overrideColorRGB"
	AttrOverrideDisplay   = "overrideDisplayType"
	AttrDisplayType       = "displayType"
	AttrPlaybackVis       = "playbackVisibility"
	AttrWorldMatrix       = "worldMatrix"
	AttrOffsetParent      = "offsetParentMatrix"
	AttrDistance          = "distance"
	AttrInMatrix1         = "inMatrix1"
	AttrInMatrix2         = "inMatrix2"
	AttrOperation         = "operation"
	AttrInput1X           = "input1X"
	AttrInput2X           = "input2X"
	AttrOutputX           = "outputX"
	AttrScaleX            = "scaleX"
	AttrScaleY            = "scaleY"
	AttrScaleZ            = "scaleZ"
	AttrRadius            = "radius"
)

// Transform channel names accepted by LockAndHide and Reset-style callers.
var TransformChannels = []string{
	"translateX", "translateY", "translateZ",
	"rotateX", "rotateY", "rotateZ",
	"scaleX", "scaleY", "scaleZ",
	AttrVisibility,
}

// Sentinel errors for callers that branch on failure cause.
var (
	ErrNotFound  = errors.New("node not found")
	ErrExists    = errors.New("node already exists")
	ErrWrongKind = errors.New("wrong node kind")
	ErrNoAttr    = errors.New("attribute not found")
)

// SurfacePoint is the result of sampling a parametric surface.
type SurfacePoint struct {
	Position v3.Vec
	Normal   v3.Vec
	TangentU v3.Vec // direction of increasing U (along the surface length)
}

// Scene is the abstract scene-graph service. All operations are direct
// and blocking; there is no concurrent writer, and name-based
// create-if-absent is the only idempotence discipline callers rely on.
type Scene interface {
	// Lookup.
	Exists(name string) bool
	Node(name string) (Node, error)
	Delete(nodes ...Node) error
	Rename(n Node, newName string) error
	Duplicate(n Node, newName string) (Node, error)

	// Creation. A nil parent means world level. Creating a node whose
	// name is already taken fails with ErrExists; callers that want
	// idempotence check Exists first.
	CreateTransform(name string, parent Node) (Node, error)
	CreateJoint(name string, parent Node) (Node, error)
	CreateCurve(name string, parent Node, points []v3.Vec) (Node, error)
	AttachCurve(transform Node, points []v3.Vec) (Node, error)
	CreateLoftedSurface(name string, profiles [][]v3.Vec) (Node, error)
	CreateFollicle(name string, surface Node, u, v float64) (Node, error)
	CreateSkinCluster(name string, geometry Node, influences []Node, maxInfluences int) (Node, error)
	SurfaceToMesh(name string, surface Node) (Node, error)
	CreateSet(name string) (Node, error)
	CreateDisplayLayer(name string) (Node, error)
	CreateDistanceBetween(name string) (Node, error)
	CreateMultiplyDivide(name string) (Node, error)
	CreateParentConstraint(driver, driven Node, maintainOffset bool) (Node, error)
	CreateScaleConstraint(driver, driven Node, maintainOffset bool) (Node, error)

	// Hierarchy. Shape nodes (curve, surface, mesh, follicle) hang off a
	// transform and are listed by Shapes, not Children.
	Parent(child, newParent Node) error
	ParentOf(n Node) Node
	Children(n Node) []Node
	Shapes(transform Node) []Node

	// Attributes and connections. Connections are one-way and live:
	// reading a connected destination attribute pulls the source.
	SetAttr(n Node, attr string, value any) error
	Attr(n Node, attr string) (any, error)
	HasAttr(n Node, attr string) bool
	Connect(src Node, srcAttr string, dst Node, dstAttr string) error
	LockAndHide(n Node, attr string) error
	IsLocked(n Node, attr string) bool

	// Transform channels. Rotation is XYZ Euler degrees.
	Translation(n Node) (v3.Vec, error)
	SetTranslation(n Node, t v3.Vec) error
	Rotation(n Node) (v3.Vec, error)
	SetRotation(n Node, r v3.Vec) error
	ScaleOf(n Node) (v3.Vec, error)
	SetScale(n Node, s v3.Vec) error
	WorldMatrix(n Node) (sdf.M44, error)
	SetWorldMatrix(n Node, m sdf.M44) error
	WorldTranslation(n Node) (v3.Vec, error)

	// Curve control vertices, in the owning transform's local space.
	CurvePoints(shape Node) ([]v3.Vec, error)
	SetCurvePoints(shape Node, points []v3.Vec) error

	// Parametric surface sampling. U runs along the surface length and
	// counts spans; V runs across the width, both in [0, 1].
	SurfaceSpansU(surface Node) (int, error)
	EvalSurface(surface Node, u, v float64) (SurfacePoint, error)
	SetFollicleParams(follicle Node, u, v float64) error
	RebuildSurface(surface Node, spansU int) error

	// Sets and layers. Sets may contain other sets.
	AddSetMembers(set Node, members ...Node) error
	SetMembers(set Node) []Node
	AddLayerMembers(layer Node, members ...Node) error

	// Deformers.
	SkinClusterInfluences(sc Node) ([]Node, error)

	// DeleteHistory removes construction history from a node. Adapters
	// without a history model treat this as a no-op.
	DeleteHistory(n Node) error
}
