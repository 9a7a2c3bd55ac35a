package rig

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/armature/pkg/scene"
	"github.com/chazu/armature/pkg/scene/memscene"
)

func names(nodes []scene.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	sort.Strings(out)
	return out
}

func TestModuleBuildIsIdempotent(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "tail")
	if err := m.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"tail_module", "tail_visible_grp", "tail_hidden_grp", "tail_sets"} {
		if !s.Exists(want) {
			t.Errorf("%s missing after build", want)
		}
	}
	count := len(s.Children(m.Root()))

	// A second build on a fresh instance reuses every node.
	again := NewModule(s, "tail")
	if err := again.Build(); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if got := len(s.Children(again.Root())); got != count {
		t.Errorf("second build changed children: %d -> %d", count, got)
	}
}

func TestHiddenGroupSetupOnlyOnCreation(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "tail")
	m.Build()

	vis, _ := s.Attr(m.Hidden(), scene.AttrVisibility)
	inh, _ := s.Attr(m.Hidden(), scene.AttrInheritsTransform)
	if vis != false || inh != false {
		t.Errorf("hidden group not disabled on creation: v=%v it=%v", vis, inh)
	}

	// A user override survives a rebuild.
	s.SetAttr(m.Hidden(), scene.AttrVisibility, true)
	NewModule(s, "tail").Build()
	vis, _ = s.Attr(m.Hidden(), scene.AttrVisibility)
	if vis != true {
		t.Error("rebuild clobbered the hidden group visibility override")
	}
}

func TestRegisterMembersSetOfSets(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "tail")
	m.Build()

	j1, _ := s.CreateJoint("tail_1_jnt", nil)
	j2, _ := s.CreateJoint("tail_2_jnt", nil)
	if err := m.RegisterJoints(j1, j2); err != nil {
		t.Fatalf("RegisterJoints: %v", err)
	}
	if err := m.RegisterJoints(j1); err != nil {
		t.Fatalf("repeat RegisterJoints: %v", err)
	}
	if got := names(m.Joints()); len(got) != 2 {
		t.Errorf("ledger = %v, want 2 entries", got)
	}

	set, err := s.Node("tail_joint_set")
	if err != nil {
		t.Fatalf("joint set missing: %v", err)
	}
	if diff := cmp.Diff([]string{"tail_1_jnt", "tail_2_jnt"}, names(s.SetMembers(set))); diff != "" {
		t.Errorf("joint set members (-want +got):\n%s", diff)
	}
	// The sub-set is a member of the root set; joints are not flattened
	// into it.
	if diff := cmp.Diff([]string{"tail_joint_set"}, names(s.SetMembers(m.RootSet()))); diff != "" {
		t.Errorf("root set members (-want +got):\n%s", diff)
	}
}

func TestRegisterSubSystemParentsAndDedups(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "tail")
	m.Build()

	grp, _ := s.CreateTransform("tail_follicles_grp", nil)
	if err := m.RegisterSubSystem(grp, false); err != nil {
		t.Fatalf("RegisterSubSystem: %v", err)
	}
	if p := s.ParentOf(grp); p == nil || p.Name() != "tail_hidden_grp" {
		t.Errorf("sub-system parented under %v", p)
	}
	m.RegisterSubSystem(grp, false)
	if got := len(m.Systems()); got != 1 {
		t.Errorf("ledger has %d entries after duplicate register", got)
	}
}

func TestAnchorToConstrains(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "tail")
	m.Build()
	anchor, _ := s.CreateTransform("pelvis_ctrl", nil)

	cons, err := m.AnchorTo(anchor)
	if err != nil {
		t.Fatalf("AnchorTo: %v", err)
	}
	if len(cons) != 2 {
		t.Fatalf("got %d constraints, want parent+scale", len(cons))
	}
	// Constrained, not reparented.
	if p := s.ParentOf(m.Root()); p != nil {
		t.Errorf("module root reparented under %v", p)
	}
}

func TestCastRoundTrip(t *testing.T) {
	s := memscene.New()
	built := NewModule(s, "tail")
	built.Build()
	j, _ := s.CreateJoint("tail_1_jnt", nil)
	c, _ := s.CreateTransform("tail_1_ctrl", nil)
	built.RegisterJoints(j)
	built.RegisterControls(c)

	cast := NewModule(s, "tail")
	if !cast.IsModule() {
		t.Fatal("IsModule = false for built structure")
	}
	if err := cast.Cast(); err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if cast.Root().Name() != built.Root().Name() ||
		cast.Visible().Name() != built.Visible().Name() ||
		cast.Hidden().Name() != built.Hidden().Name() {
		t.Error("cast group identities differ from built ones")
	}
	if diff := cmp.Diff(names(built.Joints()), names(cast.Joints())); diff != "" {
		t.Errorf("joints after cast (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(names(built.Controls()), names(cast.Controls())); diff != "" {
		t.Errorf("controls after cast (-want +got):\n%s", diff)
	}
	// No deformer set was ever created; cast leaves it empty, no error.
	if len(cast.Deformers()) != 0 {
		t.Errorf("deformers = %v, want none", cast.Deformers())
	}
}

func TestCastMissingStructureFails(t *testing.T) {
	s := memscene.New()
	m := NewModule(s, "ghost")
	if m.IsModule() {
		t.Error("IsModule = true on empty scene")
	}
	if err := m.Cast(); !errors.Is(err, ErrStructureMismatch) {
		t.Errorf("Cast: got %v, want ErrStructureMismatch", err)
	}

	// A root group alone is not a module.
	s.CreateTransform("ghost_module", nil)
	if m.IsModule() {
		t.Error("IsModule = true with bare root group")
	}
}

func TestRigStructureAndLayers(t *testing.T) {
	s := memscene.New()
	r := NewRig(s, "cat")
	if err := r.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"cat_rig", "Geometry", "rig_modules", "visible_modules", "hidden_modules", "cat_rig_sets"} {
		if !s.Exists(want) {
			t.Errorf("%s missing after build", want)
		}
	}

	mesh, _ := s.CreateTransform("body_geo", nil)
	layer, err := r.AddToGeometryLayer(mesh)
	if err != nil {
		t.Fatalf("AddToGeometryLayer: %v", err)
	}
	dt, _ := s.Attr(layer, scene.AttrDisplayType)
	if dt != int(DisplayReference) {
		t.Errorf("geometry layer displayType = %v, want reference", dt)
	}

	// Second call reuses the layer and keeps settings.
	s.SetAttr(layer, scene.AttrDisplayType, int(DisplayNormal))
	again, _ := r.AddToGeometryLayer()
	if again.Name() != layer.Name() {
		t.Error("second AddToGeometryLayer created a new layer")
	}
	dt, _ = s.Attr(layer, scene.AttrDisplayType)
	if dt != int(DisplayNormal) {
		t.Error("layer reuse re-applied creation settings")
	}

	ctrlLayer, err := r.AddToControlLayer(mesh)
	if err != nil {
		t.Fatalf("AddToControlLayer: %v", err)
	}
	dt, _ = s.Attr(ctrlLayer, scene.AttrDisplayType)
	if dt != int(DisplayNormal) {
		t.Errorf("control layer displayType = %v, want normal", dt)
	}
}

func TestRigRegisterModuleAndSet(t *testing.T) {
	s := memscene.New()
	r := NewRig(s, "cat")
	r.Build()

	m := NewModule(s, "tail")
	m.Build()
	if err := r.RegisterModule(m.Root(), true); err != nil {
		t.Fatalf("RegisterModule: %v", err)
	}
	if p := s.ParentOf(m.Root()); p == nil || p.Name() != VisibleModulesGroup {
		t.Errorf("module parented under %v", p)
	}
	if err := r.RegisterSet(m.RootSet()); err != nil {
		t.Fatalf("RegisterSet: %v", err)
	}
	if diff := cmp.Diff([]string{"tail_sets"}, names(s.SetMembers(r.MasterSet()))); diff != "" {
		t.Errorf("master set members (-want +got):\n%s", diff)
	}
}

func TestRigCast(t *testing.T) {
	s := memscene.New()
	NewRig(s, "cat").Build()

	r := NewRig(s, "cat")
	if !r.IsRig() {
		t.Fatal("IsRig = false for built structure")
	}
	if err := r.Cast(); err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if r.Geometry() == nil || r.Visible() == nil || r.Hidden() == nil || r.MasterSet() == nil {
		t.Error("cast left handles unpopulated")
	}

	ghost := NewRig(s, "dog")
	if err := ghost.Cast(); !errors.Is(err, ErrStructureMismatch) {
		t.Errorf("Cast on missing rig: got %v, want ErrStructureMismatch", err)
	}
}
