package rig

import (
	"fmt"

	"github.com/chazu/armature/pkg/scene"
)

// Rig-level naming. The group names are global, not prefixed: one rig
// per scene.
const (
	RigSuffix = "_rig"

	GeometryGroup       = "Geometry"
	ModulesGroup        = "rig_modules"
	VisibleModulesGroup = "visible_modules"
	HiddenModulesGroup  = "hidden_modules"

	GeometryLayer = "Geometry_DL"
	ControlLayer  = "Control_DL"
)

// DisplayType selects how a display layer draws its members.
type DisplayType int

const (
	DisplayNormal    DisplayType = 0
	DisplayReference DisplayType = 1
	DisplayTemplate  DisplayType = 2
)

// Rig is the top-level aggregate: geometry group, module groups split
// into visible/hidden, a master set collecting module sets, and the
// shared display layers.
type Rig struct {
	sc   scene.Scene
	name string

	root     scene.Node
	geometry scene.Node
	modulesG scene.Node
	visible  scene.Node
	hidden   scene.Node
	set      scene.Node

	modules []scene.Node
}

// NewRig declares a rig. An empty name yields the bare "rig" root.
func NewRig(sc scene.Scene, name string) *Rig {
	return &Rig{sc: sc, name: name}
}

func (r *Rig) Name() string { return r.name }

// RootName is the rig's scene identity.
func (r *Rig) RootName() string {
	if r.name == "" {
		return RigSuffix[1:]
	}
	return r.name + RigSuffix
}

func (r *Rig) setName() string { return r.RootName() + SetsSuffix }

func (r *Rig) Root() scene.Node      { return r.root }
func (r *Rig) Geometry() scene.Node  { return r.geometry }
func (r *Rig) Visible() scene.Node   { return r.visible }
func (r *Rig) Hidden() scene.Node    { return r.hidden }
func (r *Rig) MasterSet() scene.Node { return r.set }

func (r *Rig) Modules() []scene.Node { return append([]scene.Node(nil), r.modules...) }

// CreateStructure builds the rig skeleton idempotently.
func (r *Rig) CreateStructure() error {
	var err error
	if r.root, _, err = getOrCreateTransform(r.sc, r.RootName(), nil); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	if r.geometry, _, err = getOrCreateTransform(r.sc, GeometryGroup, r.root); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	if r.modulesG, _, err = getOrCreateTransform(r.sc, ModulesGroup, r.root); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	if r.visible, _, err = getOrCreateTransform(r.sc, VisibleModulesGroup, r.modulesG); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	if r.hidden, _, err = getOrCreateTransform(r.sc, HiddenModulesGroup, r.modulesG); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	if r.set, err = getOrCreateSet(r.sc, r.setName()); err != nil {
		return fmt.Errorf("rig %q: %w", r.name, err)
	}
	return nil
}

// Build creates the structure.
func (r *Rig) Build() error {
	return r.CreateStructure()
}

// RegisterModule parents a module root into the visible or hidden
// modules group and tracks it.
func (r *Rig) RegisterModule(moduleRoot scene.Node, visible bool) error {
	if r.root == nil {
		return fmt.Errorf("rig %q: structure not built", r.name)
	}
	parent := r.hidden
	if visible {
		parent = r.visible
	}
	if err := r.sc.Parent(moduleRoot, parent); err != nil {
		return err
	}
	if !containsNode(r.modules, moduleRoot) {
		r.modules = append(r.modules, moduleRoot)
	}
	return nil
}

// RegisterSet aggregates a module set into the rig's master set.
func (r *Rig) RegisterSet(set scene.Node) error {
	if r.set == nil {
		return fmt.Errorf("rig %q: structure not built", r.name)
	}
	return r.sc.AddSetMembers(r.set, set)
}

// getOrCreateLayer creates a display layer with the given settings the
// first time; an existing layer keeps its settings.
func (r *Rig) getOrCreateLayer(name string, dt DisplayType, visible, playback bool) (scene.Node, error) {
	if r.sc.Exists(name) {
		return r.sc.Node(name)
	}
	layer, err := r.sc.CreateDisplayLayer(name)
	if err != nil {
		return nil, err
	}
	if err := r.sc.SetAttr(layer, scene.AttrDisplayType, int(dt)); err != nil {
		return nil, err
	}
	if err := r.sc.SetAttr(layer, scene.AttrVisibility, visible); err != nil {
		return nil, err
	}
	if err := r.sc.SetAttr(layer, scene.AttrPlaybackVis, boolToInt(playback)); err != nil {
		return nil, err
	}
	return layer, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// AddToGeometryLayer assigns members to the shared referenced geometry
// layer, creating it on first use.
func (r *Rig) AddToGeometryLayer(members ...scene.Node) (scene.Node, error) {
	layer, err := r.getOrCreateLayer(GeometryLayer, DisplayReference, true, false)
	if err != nil {
		return nil, err
	}
	if len(members) > 0 {
		if err := r.sc.AddLayerMembers(layer, members...); err != nil {
			return nil, err
		}
	}
	return layer, nil
}

// AddToControlLayer assigns members to the shared control layer,
// creating it on first use.
func (r *Rig) AddToControlLayer(members ...scene.Node) (scene.Node, error) {
	layer, err := r.getOrCreateLayer(ControlLayer, DisplayNormal, true, false)
	if err != nil {
		return nil, err
	}
	if len(members) > 0 {
		if err := r.sc.AddLayerMembers(layer, members...); err != nil {
			return nil, err
		}
	}
	return layer, nil
}

// IsRig reports whether the rig skeleton exists by name.
func (r *Rig) IsRig() bool {
	if !r.sc.Exists(r.RootName()) {
		return false
	}
	root, err := r.sc.Node(r.RootName())
	if err != nil {
		return false
	}
	return childByName(r.sc, root, GeometryGroup) != nil &&
		childByName(r.sc, root, ModulesGroup) != nil
}

// Cast re-hydrates the rig from existing structure without creating
// anything.
func (r *Rig) Cast() error {
	if !r.IsRig() {
		return fmt.Errorf("rig %q: %w: %s is not a rig structure", r.name, ErrStructureMismatch, r.RootName())
	}
	root, err := r.sc.Node(r.RootName())
	if err != nil {
		return err
	}
	r.root = root
	r.geometry = childByName(r.sc, root, GeometryGroup)
	r.modulesG = childByName(r.sc, root, ModulesGroup)
	if r.modulesG != nil {
		r.visible = childByName(r.sc, r.modulesG, VisibleModulesGroup)
		r.hidden = childByName(r.sc, r.modulesG, HiddenModulesGroup)
	}
	if r.sc.Exists(r.setName()) {
		if r.set, err = r.sc.Node(r.setName()); err != nil {
			return err
		}
	}
	return nil
}
