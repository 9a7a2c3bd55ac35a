// Package rig builds the hierarchical grouping layer of a character
// rig: Module is the reusable grouping unit (root group, visible and
// hidden sub-groups, membership sets), Rig is the top-level aggregate.
// Node names follow fixed suffix conventions; they are how a later
// session recognizes previously built structure (Cast) instead of
// rebuilding it.
package rig

import (
	"errors"
	"fmt"

	"github.com/chazu/armature/pkg/scene"
)

// Naming conventions shared by build and cast.
const (
	ModuleSuffix  = "_module"
	SetsSuffix    = "_sets"
	VisibleSuffix = "_visible_grp"
	HiddenSuffix  = "_hidden_grp"

	controlSetSuffix  = "_control_set"
	jointSetSuffix    = "_joint_set"
	deformerSetSuffix = "_deformer_set"
)

// ErrStructureMismatch is returned by Cast when the named structure is
// absent or incomplete. Callers uncertain whether a structure exists
// should check IsModule/IsRig first.
var ErrStructureMismatch = errors.New("structure mismatch")

// Module is one rig module: a named grouping unit with visible/hidden
// sub-groups and membership sets for controls, joints and deformers.
type Module struct {
	sc   scene.Scene
	name string

	root    scene.Node
	visible scene.Node
	hidden  scene.Node

	rootSet     scene.Node
	controlSet  scene.Node
	jointSet    scene.Node
	deformerSet scene.Node

	controls  []scene.Node
	joints    []scene.Node
	deformers []scene.Node
	systems   []scene.Node
}

// NewModule declares a module. Nothing is created until Build or
// CreateStructure; Cast adopts an existing structure instead.
func NewModule(sc scene.Scene, name string) *Module {
	return &Module{sc: sc, name: name}
}

func (m *Module) Name() string { return m.name }

// RootName is the module's scene identity.
func (m *Module) RootName() string    { return m.name + ModuleSuffix }
func (m *Module) visibleName() string { return m.name + VisibleSuffix }
func (m *Module) hiddenName() string  { return m.name + HiddenSuffix }
func (m *Module) setName() string     { return m.name + SetsSuffix }

func (m *Module) Root() scene.Node    { return m.root }
func (m *Module) Visible() scene.Node { return m.visible }
func (m *Module) Hidden() scene.Node  { return m.hidden }
func (m *Module) RootSet() scene.Node { return m.rootSet }

func (m *Module) Controls() []scene.Node  { return append([]scene.Node(nil), m.controls...) }
func (m *Module) Joints() []scene.Node    { return append([]scene.Node(nil), m.joints...) }
func (m *Module) Deformers() []scene.Node { return append([]scene.Node(nil), m.deformers...) }
func (m *Module) Systems() []scene.Node   { return append([]scene.Node(nil), m.systems...) }

// getOrCreateTransform reuses an existing same-named transform; the
// second result reports whether the node was newly created.
func getOrCreateTransform(sc scene.Scene, name string, parent scene.Node) (scene.Node, bool, error) {
	if sc.Exists(name) {
		n, err := sc.Node(name)
		return n, false, err
	}
	n, err := sc.CreateTransform(name, parent)
	return n, true, err
}

func getOrCreateSet(sc scene.Scene, name string) (scene.Node, error) {
	if sc.Exists(name) {
		return sc.Node(name)
	}
	return sc.CreateSet(name)
}

// CreateStructure builds the module's groups and root set, reusing any
// same-named nodes. The hidden group gets inheritsTransform and
// visibility disabled only when it is newly created; re-use never
// clobbers a user override.
func (m *Module) CreateStructure() error {
	root, _, err := getOrCreateTransform(m.sc, m.RootName(), nil)
	if err != nil {
		return fmt.Errorf("module %q: %w", m.name, err)
	}
	m.root = root

	vis, _, err := getOrCreateTransform(m.sc, m.visibleName(), m.root)
	if err != nil {
		return fmt.Errorf("module %q: %w", m.name, err)
	}
	m.visible = vis

	hid, created, err := getOrCreateTransform(m.sc, m.hiddenName(), m.root)
	if err != nil {
		return fmt.Errorf("module %q: %w", m.name, err)
	}
	m.hidden = hid
	if created {
		if err := m.sc.SetAttr(hid, scene.AttrInheritsTransform, false); err != nil {
			return err
		}
		if err := m.sc.SetAttr(hid, scene.AttrVisibility, false); err != nil {
			return err
		}
	}

	set, err := getOrCreateSet(m.sc, m.setName())
	if err != nil {
		return fmt.Errorf("module %q: %w", m.name, err)
	}
	m.rootSet = set
	return nil
}

// Build creates the structure. Concrete modules run their own
// construction after this, so groups exist before anything attaches to
// them.
func (m *Module) Build() error {
	return m.CreateStructure()
}

func containsNode(list []scene.Node, n scene.Node) bool {
	for _, m := range list {
		if m.Name() == n.Name() {
			return true
		}
	}
	return false
}

// RegisterSubSystem parents a sub-system group under the visible or
// hidden group and records it. Repeat registration of the same node is
// a no-op on the ledger.
func (m *Module) RegisterSubSystem(system scene.Node, visible bool) error {
	if m.root == nil {
		return fmt.Errorf("module %q: structure not built", m.name)
	}
	parent := m.hidden
	if visible {
		parent = m.visible
	}
	if err := m.sc.Parent(system, parent); err != nil {
		return err
	}
	if !containsNode(m.systems, system) {
		m.systems = append(m.systems, system)
	}
	return nil
}

// registerMembers backs RegisterControls/Joints/Deformers: dedup the
// ledger, lazily create the sub-set, add members, and keep the sub-set
// itself a member of the root set (set-of-sets, not flattened).
func (m *Module) registerMembers(ledger *[]scene.Node, subSet *scene.Node, subSetName string, nodes []scene.Node) error {
	if m.rootSet == nil {
		return fmt.Errorf("module %q: structure not built", m.name)
	}
	for _, n := range nodes {
		if !containsNode(*ledger, n) {
			*ledger = append(*ledger, n)
		}
	}
	if *subSet == nil {
		set, err := getOrCreateSet(m.sc, subSetName)
		if err != nil {
			return err
		}
		*subSet = set
	}
	if err := m.sc.AddSetMembers(*subSet, nodes...); err != nil {
		return err
	}
	return m.sc.AddSetMembers(m.rootSet, *subSet)
}

// RegisterControls records controls in the module's control set.
func (m *Module) RegisterControls(nodes ...scene.Node) error {
	return m.registerMembers(&m.controls, &m.controlSet, m.name+controlSetSuffix, nodes)
}

// RegisterJoints records joints in the module's joint set.
func (m *Module) RegisterJoints(nodes ...scene.Node) error {
	return m.registerMembers(&m.joints, &m.jointSet, m.name+jointSetSuffix, nodes)
}

// RegisterDeformers records deformers in the module's deformer set.
func (m *Module) RegisterDeformers(nodes ...scene.Node) error {
	return m.registerMembers(&m.deformers, &m.deformerSet, m.name+deformerSetSuffix, nodes)
}

// AnchorTo attaches the module root to a parent rig node with
// maintain-offset parent and scale constraints, never by reparenting.
func (m *Module) AnchorTo(anchor scene.Node) ([]scene.Node, error) {
	if m.root == nil {
		return nil, fmt.Errorf("module %q: structure not built", m.name)
	}
	pc, err := m.sc.CreateParentConstraint(anchor, m.root, true)
	if err != nil {
		return nil, err
	}
	sc, err := m.sc.CreateScaleConstraint(anchor, m.root, true)
	if err != nil {
		return nil, err
	}
	return []scene.Node{pc, sc}, nil
}

// childByName finds a direct child with the given name.
func childByName(sc scene.Scene, parent scene.Node, name string) scene.Node {
	for _, c := range sc.Children(parent) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// IsModule reports whether the complete module structure exists by
// name: root group, both sub-groups under it, and the root set. This
// predicate is what distinguishes "build fresh" from "cast existing".
func (m *Module) IsModule() bool {
	if !m.sc.Exists(m.RootName()) || !m.sc.Exists(m.setName()) {
		return false
	}
	root, err := m.sc.Node(m.RootName())
	if err != nil {
		return false
	}
	return childByName(m.sc, root, m.visibleName()) != nil &&
		childByName(m.sc, root, m.hiddenName()) != nil
}

// Cast re-hydrates the module from existing scene structure without
// creating anything. Optional sub-sets populate the ledgers when
// present; their absence is not an error.
func (m *Module) Cast() error {
	if !m.IsModule() {
		return fmt.Errorf("module %q: %w: %s is not a module structure", m.name, ErrStructureMismatch, m.RootName())
	}
	root, err := m.sc.Node(m.RootName())
	if err != nil {
		return err
	}
	m.root = root
	m.visible = childByName(m.sc, root, m.visibleName())
	m.hidden = childByName(m.sc, root, m.hiddenName())
	m.rootSet, err = m.sc.Node(m.setName())
	if err != nil {
		return err
	}

	adopt := func(subSet *scene.Node, ledger *[]scene.Node, name string) error {
		if !m.sc.Exists(name) {
			return nil
		}
		set, err := m.sc.Node(name)
		if err != nil {
			return err
		}
		*subSet = set
		*ledger = m.sc.SetMembers(set)
		return nil
	}
	if err := adopt(&m.controlSet, &m.controls, m.name+controlSetSuffix); err != nil {
		return err
	}
	if err := adopt(&m.jointSet, &m.joints, m.name+jointSetSuffix); err != nil {
		return err
	}
	return adopt(&m.deformerSet, &m.deformers, m.name+deformerSetSuffix)
}
