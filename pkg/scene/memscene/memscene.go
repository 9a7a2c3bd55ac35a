// Package memscene implements the scene.Scene interface with an
// in-memory scene graph. It is the adapter used by tests and by the
// engine when no host DCC is attached: names are the node identity,
// transforms carry TRS channels plus an offset-parent-matrix input, and
// live attribute connections are evaluated on read (pull model).
package memscene

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
)

// Compile-time interface check.
var _ scene.Scene = (*Scene)(nil)

// plug identifies one attribute of one node.
type plug struct {
	n    *node
	attr string
}

// node is the internal representation behind scene.Node.
type node struct {
	name string
	kind scene.Kind

	parent   *node
	children []*node
	shapes   []*node
	owner    *node // for shape nodes, the owning transform

	attrs  map[string]any
	locked map[string]bool

	// Transform channels.
	translate v3.Vec
	rotate    v3.Vec // XYZ Euler degrees
	scale     v3.Vec
	opm       sdf.M44

	// Kind-specific payloads.
	curvePoints []v3.Vec
	surf        *surfaceData
	folSurface  *node
	folU, folV  float64
	scGeometry  *node
	scInfl      []*node
	scMaxInf    int
	setMembers  []*node
	layerNodes  []*node
	meshVerts   []v3.Vec
	conDriver   *node
	conDriven   *node
	conOffset   sdf.M44
}

func (n *node) Name() string     { return n.name }
func (n *node) Kind() scene.Kind { return n.kind }

// Scene is an in-memory scene graph. Not safe for concurrent use; the
// host environment is single-user, single-session.
type Scene struct {
	nodes map[string]*node
	conns map[plug]plug // destination -> source
}

// New creates an empty in-memory scene.
func New() *Scene {
	return &Scene{
		nodes: make(map[string]*node),
		conns: make(map[plug]plug),
	}
}

// resolve checks that a handle belongs to this scene and is alive.
func (s *Scene) resolve(h scene.Node) (*node, error) {
	if h == nil {
		return nil, fmt.Errorf("memscene: nil node handle")
	}
	n, ok := h.(*node)
	if !ok {
		return nil, fmt.Errorf("memscene: foreign node handle %q", h.Name())
	}
	if s.nodes[n.name] != n {
		return nil, fmt.Errorf("memscene: %w: %q", scene.ErrNotFound, n.name)
	}
	return n, nil
}

func (s *Scene) newNode(name string, kind scene.Kind) (*node, error) {
	if name == "" {
		return nil, fmt.Errorf("memscene: empty node name")
	}
	if _, taken := s.nodes[name]; taken {
		return nil, fmt.Errorf("memscene: %w: %q", scene.ErrExists, name)
	}
	n := &node{
		name:   name,
		kind:   kind,
		attrs:  make(map[string]any),
		locked: make(map[string]bool),
		scale:  v3.Vec{X: 1, Y: 1, Z: 1},
		opm:    sdf.Identity3d(),
	}
	n.attrs[scene.AttrVisibility] = true
	n.attrs[scene.AttrInheritsTransform] = true
	s.nodes[name] = n
	return n, nil
}

// Exists reports whether a node with the given name is in the scene.
func (s *Scene) Exists(name string) bool {
	_, ok := s.nodes[name]
	return ok
}

// Node returns the node with the given name.
func (s *Scene) Node(name string) (scene.Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("memscene: %w: %q", scene.ErrNotFound, name)
	}
	return n, nil
}

// Delete removes nodes and their subtrees from the scene.
func (s *Scene) Delete(nodes ...scene.Node) error {
	for _, h := range nodes {
		n, err := s.resolve(h)
		if err != nil {
			return err
		}
		s.deleteSubtree(n)
	}
	return nil
}

func (s *Scene) deleteSubtree(n *node) {
	for len(n.children) > 0 {
		s.deleteSubtree(n.children[0])
	}
	for len(n.shapes) > 0 {
		s.deleteSubtree(n.shapes[0])
	}
	s.detach(n)
	delete(s.nodes, n.name)
	for dst, src := range s.conns {
		if dst.n == n || src.n == n {
			delete(s.conns, dst)
		}
	}
	for _, other := range s.nodes {
		other.setMembers = removeNode(other.setMembers, n)
		other.layerNodes = removeNode(other.layerNodes, n)
		other.scInfl = removeNode(other.scInfl, n)
	}
}

func removeNode(list []*node, n *node) []*node {
	out := list[:0]
	for _, m := range list {
		if m != n {
			out = append(out, m)
		}
	}
	return out
}

// detach unlinks a node from its parent or owner without deleting it.
func (s *Scene) detach(n *node) {
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
	}
	if n.owner != nil {
		n.owner.shapes = removeNode(n.owner.shapes, n)
		n.owner = nil
	}
}

// Rename changes a node's name. The handle stays valid.
func (s *Scene) Rename(h scene.Node, newName string) error {
	n, err := s.resolve(h)
	if err != nil {
		return err
	}
	if newName == n.name {
		return nil
	}
	if _, taken := s.nodes[newName]; taken {
		return fmt.Errorf("memscene: %w: %q", scene.ErrExists, newName)
	}
	delete(s.nodes, n.name)
	n.name = newName
	s.nodes[newName] = n
	return nil
}

// uniqueName appends a numeric suffix until the name is free.
func (s *Scene) uniqueName(base string) string {
	if _, taken := s.nodes[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, taken := s.nodes[candidate]; !taken {
			return candidate
		}
	}
}

// Duplicate deep-copies a transform, its shapes and its children. The
// duplicate is created at the same parent; descendant names collide
// into numeric suffixes.
func (s *Scene) Duplicate(h scene.Node, newName string) (scene.Node, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	dup, err := s.copySubtree(n, newName)
	if err != nil {
		return nil, err
	}
	if n.parent != nil {
		dup.parent = n.parent
		n.parent.children = append(n.parent.children, dup)
	}
	return dup, nil
}

func (s *Scene) copySubtree(n *node, name string) (*node, error) {
	dup, err := s.newNode(name, n.kind)
	if err != nil {
		return nil, err
	}
	for k, v := range n.attrs {
		dup.attrs[k] = v
	}
	for k, v := range n.locked {
		dup.locked[k] = v
	}
	dup.translate = n.translate
	dup.rotate = n.rotate
	dup.scale = n.scale
	dup.opm = n.opm
	dup.curvePoints = append([]v3.Vec(nil), n.curvePoints...)
	if n.surf != nil {
		dup.surf = n.surf.clone()
	}
	dup.meshVerts = append([]v3.Vec(nil), n.meshVerts...)

	for _, shape := range n.shapes {
		shapeCopy, err := s.copySubtree(shape, s.uniqueName(name+"Shape"))
		if err != nil {
			return nil, err
		}
		shapeCopy.owner = dup
		dup.shapes = append(dup.shapes, shapeCopy)
	}
	for _, child := range n.children {
		childCopy, err := s.copySubtree(child, s.uniqueName(child.name))
		if err != nil {
			return nil, err
		}
		childCopy.parent = dup
		dup.children = append(dup.children, childCopy)
	}
	return dup, nil
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

func (s *Scene) createDAGNode(name string, kind scene.Kind, parent scene.Node) (*node, error) {
	var p *node
	if parent != nil {
		var err error
		p, err = s.resolve(parent)
		if err != nil {
			return nil, err
		}
	}
	n, err := s.newNode(name, kind)
	if err != nil {
		return nil, err
	}
	if p != nil {
		n.parent = p
		p.children = append(p.children, n)
	}
	return n, nil
}

// CreateTransform creates an empty transform node.
func (s *Scene) CreateTransform(name string, parent scene.Node) (scene.Node, error) {
	return s.createDAGNode(name, scene.KindTransform, parent)
}

// CreateJoint creates a joint node.
func (s *Scene) CreateJoint(name string, parent scene.Node) (scene.Node, error) {
	n, err := s.createDAGNode(name, scene.KindJoint, parent)
	if err != nil {
		return nil, err
	}
	n.attrs[scene.AttrRadius] = 1.0
	return n, nil
}

// CreateCurve creates a transform holding one curve shape with the
// given control vertices (in the transform's local space).
func (s *Scene) CreateCurve(name string, parent scene.Node, points []v3.Vec) (scene.Node, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("memscene: curve %q needs at least 2 points, got %d", name, len(points))
	}
	t, err := s.createDAGNode(name, scene.KindTransform, parent)
	if err != nil {
		return nil, err
	}
	if _, err := s.attachShape(t, scene.KindCurve, points); err != nil {
		return nil, err
	}
	return t, nil
}

// AttachCurve adds another curve shape under an existing transform.
func (s *Scene) AttachCurve(transform scene.Node, points []v3.Vec) (scene.Node, error) {
	t, err := s.resolve(transform)
	if err != nil {
		return nil, err
	}
	if t.kind != scene.KindTransform && t.kind != scene.KindJoint {
		return nil, fmt.Errorf("memscene: %w: cannot attach a curve to %s %q", scene.ErrWrongKind, t.kind, t.name)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("memscene: curve shape on %q needs at least 2 points, got %d", t.name, len(points))
	}
	return s.attachShape(t, scene.KindCurve, points)
}

func (s *Scene) attachShape(t *node, kind scene.Kind, points []v3.Vec) (*node, error) {
	shape, err := s.newNode(s.uniqueName(t.name+"Shape"), kind)
	if err != nil {
		return nil, err
	}
	shape.owner = t
	shape.curvePoints = append([]v3.Vec(nil), points...)
	t.shapes = append(t.shapes, shape)
	return shape, nil
}

// CreateSet creates an empty object set.
func (s *Scene) CreateSet(name string) (scene.Node, error) {
	return s.newNode(name, scene.KindSet)
}

// CreateDisplayLayer creates an empty display layer.
func (s *Scene) CreateDisplayLayer(name string) (scene.Node, error) {
	n, err := s.newNode(name, scene.KindDisplayLayer)
	if err != nil {
		return nil, err
	}
	n.attrs[scene.AttrDisplayType] = 0
	n.attrs[scene.AttrPlaybackVis] = 1
	return n, nil
}

// CreateDistanceBetween creates a distance measurement node. Its
// "distance" output is computed from the two connected input matrices.
func (s *Scene) CreateDistanceBetween(name string) (scene.Node, error) {
	return s.newNode(name, scene.KindDistanceBetween)
}

// CreateMultiplyDivide creates an arithmetic utility node. Operation 1
// multiplies, 2 divides.
func (s *Scene) CreateMultiplyDivide(name string) (scene.Node, error) {
	n, err := s.newNode(name, scene.KindMultiplyDivide)
	if err != nil {
		return nil, err
	}
	n.attrs[scene.AttrOperation] = 1
	n.attrs[scene.AttrInput1X] = 0.0
	n.attrs[scene.AttrInput2X] = 1.0
	return n, nil
}

// ---------------------------------------------------------------------------
// Hierarchy
// ---------------------------------------------------------------------------

// Parent moves child under newParent; nil reparents to world. The
// node's local channels are preserved (its world transform may change).
func (s *Scene) Parent(child, newParent scene.Node) error {
	c, err := s.resolve(child)
	if err != nil {
		return err
	}
	var p *node
	if newParent != nil {
		if p, err = s.resolve(newParent); err != nil {
			return err
		}
		for a := p; a != nil; a = a.parent {
			if a == c {
				return fmt.Errorf("memscene: cannot parent %q under its own descendant %q", c.name, p.name)
			}
		}
	}
	if c.parent != nil {
		c.parent.children = removeNode(c.parent.children, c)
	}
	c.parent = p
	if p != nil {
		p.children = append(p.children, c)
	}
	return nil
}

// ParentOf returns the parent transform, or nil at world level.
func (s *Scene) ParentOf(h scene.Node) scene.Node {
	n, err := s.resolve(h)
	if err != nil || n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the child transforms of a node (shapes excluded).
func (s *Scene) Children(h scene.Node) []scene.Node {
	n, err := s.resolve(h)
	if err != nil {
		return nil
	}
	out := make([]scene.Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

// Shapes returns the shape nodes owned by a transform.
func (s *Scene) Shapes(h scene.Node) []scene.Node {
	n, err := s.resolve(h)
	if err != nil {
		return nil
	}
	out := make([]scene.Node, 0, len(n.shapes))
	for _, sh := range n.shapes {
		out = append(out, sh)
	}
	return out
}

// ---------------------------------------------------------------------------
// Sets, layers, deformers
// ---------------------------------------------------------------------------

// AddSetMembers adds members to a set, skipping duplicates.
func (s *Scene) AddSetMembers(set scene.Node, members ...scene.Node) error {
	sn, err := s.resolve(set)
	if err != nil {
		return err
	}
	if sn.kind != scene.KindSet {
		return fmt.Errorf("memscene: %w: %q is %s, not a set", scene.ErrWrongKind, sn.name, sn.kind)
	}
	for _, m := range members {
		mn, err := s.resolve(m)
		if err != nil {
			return err
		}
		if !containsNode(sn.setMembers, mn) {
			sn.setMembers = append(sn.setMembers, mn)
		}
	}
	return nil
}

func containsNode(list []*node, n *node) bool {
	for _, m := range list {
		if m == n {
			return true
		}
	}
	return false
}

// SetMembers returns the members of a set in insertion order.
func (s *Scene) SetMembers(set scene.Node) []scene.Node {
	sn, err := s.resolve(set)
	if err != nil || sn.kind != scene.KindSet {
		return nil
	}
	out := make([]scene.Node, 0, len(sn.setMembers))
	for _, m := range sn.setMembers {
		out = append(out, m)
	}
	return out
}

// AddLayerMembers assigns nodes to a display layer.
func (s *Scene) AddLayerMembers(layer scene.Node, members ...scene.Node) error {
	ln, err := s.resolve(layer)
	if err != nil {
		return err
	}
	if ln.kind != scene.KindDisplayLayer {
		return fmt.Errorf("memscene: %w: %q is %s, not a display layer", scene.ErrWrongKind, ln.name, ln.kind)
	}
	for _, m := range members {
		mn, err := s.resolve(m)
		if err != nil {
			return err
		}
		if !containsNode(ln.layerNodes, mn) {
			ln.layerNodes = append(ln.layerNodes, mn)
		}
	}
	return nil
}

// CreateSkinCluster binds geometry to influence joints.
func (s *Scene) CreateSkinCluster(name string, geometry scene.Node, influences []scene.Node, maxInfluences int) (scene.Node, error) {
	g, err := s.resolve(geometry)
	if err != nil {
		return nil, err
	}
	if len(influences) == 0 {
		return nil, fmt.Errorf("memscene: skin cluster %q needs at least one influence", name)
	}
	infl := make([]*node, 0, len(influences))
	for _, h := range influences {
		in, err := s.resolve(h)
		if err != nil {
			return nil, err
		}
		infl = append(infl, in)
	}
	sc, err := s.newNode(name, scene.KindSkinCluster)
	if err != nil {
		return nil, err
	}
	sc.scGeometry = g
	sc.scInfl = infl
	sc.scMaxInf = maxInfluences
	return sc, nil
}

// SkinClusterInfluences returns the influence joints of a skin cluster.
func (s *Scene) SkinClusterInfluences(h scene.Node) ([]scene.Node, error) {
	sc, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	if sc.kind != scene.KindSkinCluster {
		return nil, fmt.Errorf("memscene: %w: %q is %s, not a skin cluster", scene.ErrWrongKind, sc.name, sc.kind)
	}
	out := make([]scene.Node, 0, len(sc.scInfl))
	for _, in := range sc.scInfl {
		out = append(out, in)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Constraints
// ---------------------------------------------------------------------------

func (s *Scene) createConstraint(suffix string, driver, driven scene.Node, maintainOffset bool) (scene.Node, error) {
	dr, err := s.resolve(driver)
	if err != nil {
		return nil, err
	}
	dn, err := s.resolve(driven)
	if err != nil {
		return nil, err
	}
	c, err := s.newNode(s.uniqueName(dn.name+suffix), scene.KindConstraint)
	if err != nil {
		return nil, err
	}
	c.conDriver = dr
	c.conDriven = dn
	c.parent = dn
	dn.children = append(dn.children, c)

	driverW := s.worldMatrix(dr)
	drivenW := s.worldMatrix(dn)
	if maintainOffset {
		c.conOffset = driverW.Inverse().Mul(drivenW)
	} else {
		c.conOffset = sdf.Identity3d()
		s.setWorldMatrix(dn, driverW)
	}
	return c, nil
}

// CreateParentConstraint drives driven's translate/rotate from driver.
func (s *Scene) CreateParentConstraint(driver, driven scene.Node, maintainOffset bool) (scene.Node, error) {
	return s.createConstraint("_parentConstraint", driver, driven, maintainOffset)
}

// CreateScaleConstraint drives driven's scale from driver.
func (s *Scene) CreateScaleConstraint(driver, driven scene.Node, maintainOffset bool) (scene.Node, error) {
	return s.createConstraint("_scaleConstraint", driver, driven, maintainOffset)
}

// DeleteHistory is a no-op: memscene nodes carry no construction
// history.
func (s *Scene) DeleteHistory(h scene.Node) error {
	_, err := s.resolve(h)
	return err
}
