package ribbon

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
	"github.com/chazu/armature/pkg/scene/memscene"
)

var approx = cmpopts.EquateApprox(0, 1e-7)

// flatSurface lofts a straight ribbon along +X from 0 to 10, one unit
// wide in Z, with the given span count.
func flatSurface(t *testing.T, s *memscene.Scene, name string, spans int) scene.Node {
	t.Helper()
	profiles := make([][]v3.Vec, spans+1)
	for i := 0; i <= spans; i++ {
		x := 10 * float64(i) / float64(spans)
		profiles[i] = []v3.Vec{{X: x, Z: 1}, {X: x, Z: -1}}
	}
	surf, err := s.CreateLoftedSurface(name, profiles)
	if err != nil {
		t.Fatalf("CreateLoftedSurface: %v", err)
	}
	return surf
}

func TestCountDerivation(t *testing.T) {
	cases := []struct {
		spans, sectionJoints, ctrlQuantity int
		wantJoints, wantCtrl               int
	}{
		{4, 1, 0, 9, 5},
		{4, 0, 0, 5, 5},
		{4, 2, 3, 13, 3},
		{1, 0, 0, 2, 2},
		{3, 5, 7, 19, 7},
	}
	for _, tc := range cases {
		s := memscene.New()
		surf := flatSurface(t, s, "tail_surface", tc.spans)
		r, err := NewRibbon(s, "tail", surf, tc.sectionJoints, tc.ctrlQuantity)
		if err != nil {
			t.Errorf("NewRibbon(spans=%d, k=%d, q=%d): %v", tc.spans, tc.sectionJoints, tc.ctrlQuantity, err)
			continue
		}
		if r.JointCount() != tc.wantJoints || r.ControlCount() != tc.wantCtrl {
			t.Errorf("spans=%d k=%d q=%d: counts (%d, %d), want (%d, %d)",
				tc.spans, tc.sectionJoints, tc.ctrlQuantity,
				r.JointCount(), r.ControlCount(), tc.wantJoints, tc.wantCtrl)
		}
	}
}

func TestConfigErrorsBeforeMutation(t *testing.T) {
	s := memscene.New()
	surf := flatSurface(t, s, "tail_surface", 4)

	if _, err := NewRibbon(s, "tail", surf, -1, 0); err == nil {
		t.Error("negative sectionJoints accepted")
	}
	if _, err := NewRibbon(s, "tail", surf, 0, -2); err == nil {
		t.Error("negative ctrlQuantity accepted")
	}
	// One control cannot span the factor range.
	if _, err := NewRibbon(s, "tail", surf, 0, 1); err == nil {
		t.Error("single control accepted")
	}

	plain, _ := s.CreateTransform("plain_grp", nil)
	if _, err := NewRibbon(s, "tail", plain, 0, 0); err == nil {
		t.Error("non-surface node accepted")
	}

	// Every rejection happens before any structure is created.
	for _, name := range []string{"tail_module", "tail_sets", "tail_skinning", "tail_follicles"} {
		if s.Exists(name) {
			t.Errorf("%s created by a rejected configuration", name)
		}
	}
}

func TestBuildSkinningRail(t *testing.T) {
	s := memscene.New()
	surf := flatSurface(t, s, "tail_surface", 4)
	r, err := NewRibbon(s, "tail", surf, 1, 0)
	if err != nil {
		t.Fatalf("NewRibbon: %v", err)
	}
	if err := r.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	joints := r.SkinJoints()
	if len(joints) != 9 {
		t.Fatalf("got %d skin joints, want 9", len(joints))
	}
	// Uniform factors cover [0, 1] inclusive, so the end joints sit on
	// the surface boundary exactly.
	for i, wantX := range []float64{0, 10} {
		j := joints[i*8]
		pos, err := s.WorldTranslation(j)
		if err != nil {
			t.Fatalf("WorldTranslation(%s): %v", j.Name(), err)
		}
		if diff := cmp.Diff(v3.Vec{X: wantX}, pos, approx); diff != "" {
			t.Errorf("%s position (-want +got):\n%s", j.Name(), diff)
		}
	}
	mid, _ := s.WorldTranslation(joints[4])
	if diff := cmp.Diff(v3.Vec{X: 5}, mid, approx); diff != "" {
		t.Errorf("middle joint position (-want +got):\n%s", diff)
	}

	for i, j := range joints {
		want := fmt.Sprintf("tail_%03d_skn", i)
		if j.Name() != want {
			t.Errorf("joint %d named %s, want %s", i, j.Name(), want)
		}
		if p := s.ParentOf(j); p == nil || p.Name() != "tail_skinning" {
			t.Errorf("%s parented under %v", j.Name(), p)
		}
	}

	folGrp, err := s.Node("tail_follicles")
	if err != nil {
		t.Fatalf("follicle group missing: %v", err)
	}
	if vis, _ := s.Attr(folGrp, scene.AttrVisibility); vis != false {
		t.Error("follicle group left visible")
	}
	if !s.Exists("tail_000_fol_skin") || !s.Exists("tail_000_fol_ref") {
		t.Error("follicle pair missing for joint 0")
	}
}

func TestStretchScalesJoints(t *testing.T) {
	s := memscene.New()
	surf := flatSurface(t, s, "tail_surface", 2)
	r, _ := NewRibbon(s, "tail", surf, 0, 0)
	if err := r.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	scaleOffset, err := s.Node("tail_001_scale")
	if err != nil {
		t.Fatalf("scale offset missing: %v", err)
	}
	got, _ := s.ScaleOf(scaleOffset)
	if diff := cmp.Diff(v3.Vec{X: 1, Y: 1, Z: 1}, got, approx); diff != "" {
		t.Errorf("rest scale (-want +got):\n%s", diff)
	}

	// Doubling the surface width doubles the follicle pair distance, and
	// the ratio network follows live.
	if err := s.SetScale(surf, v3.Vec{X: 1, Y: 1, Z: 2}); err != nil {
		t.Fatalf("SetScale: %v", err)
	}
	got, _ = s.ScaleOf(scaleOffset)
	if diff := cmp.Diff(v3.Vec{X: 2, Y: 2, Z: 2}, got, approx); diff != "" {
		t.Errorf("stretched scale (-want +got):\n%s", diff)
	}
}

func TestDriversAndControls(t *testing.T) {
	s := memscene.New()
	surf := flatSurface(t, s, "tail_surface", 4)
	r, _ := NewRibbon(s, "tail", surf, 1, 0)
	if err := r.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	skin, err := s.Node("tail_surface_skinCluster")
	if err != nil {
		t.Fatalf("surface skin cluster missing: %v", err)
	}
	infl, err := s.SkinClusterInfluences(skin)
	if err != nil {
		t.Fatalf("SkinClusterInfluences: %v", err)
	}
	if len(infl) != 5 {
		t.Fatalf("surface bound to %d drivers, want 5", len(infl))
	}
	for j, drv := range infl {
		pos, _ := s.WorldTranslation(drv)
		wantX := 10 * float64(j) / 4
		if diff := cmp.Diff(v3.Vec{X: wantX}, pos, approx); diff != "" {
			t.Errorf("%s position (-want +got):\n%s", drv.Name(), diff)
		}
		// The placement lives in the offset-parent-matrix; the channels
		// stay at rest.
		lt, _ := s.Translation(drv)
		if diff := cmp.Diff(v3.Vec{}, lt, approx); diff != "" {
			t.Errorf("%s local translate (-want +got):\n%s", drv.Name(), diff)
		}
		if rad, _ := s.Attr(drv, scene.AttrRadius); rad != 2.0 {
			t.Errorf("%s radius = %v, want 2", drv.Name(), rad)
		}
	}
	if s.Exists("tail_temp") {
		t.Error("temp follicle left in scene")
	}

	ctrls := r.RibbonControls()
	if len(ctrls) != 5 {
		t.Fatalf("got %d controls, want 5", len(ctrls))
	}
	for j, c := range ctrls {
		wantName := fmt.Sprintf("tail_%03d_ctrl", j)
		if c.Node().Name() != wantName {
			t.Errorf("control %d named %s, want %s", j, c.Node().Name(), wantName)
		}
		if c.Offset() == nil {
			t.Fatalf("%s has no offset group", wantName)
		}
		if p := s.ParentOf(c.Offset()); p == nil || p.Name() != "tail_controls" {
			t.Errorf("%s offset parented under %v", wantName, p)
		}
	}

	// Moving a control carries its driver with it.
	c0 := ctrls[0]
	if err := s.SetTranslation(c0.Node(), v3.Vec{Y: 1}); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	drv0, _ := s.Node("tail_000_drv")
	pos, _ := s.WorldTranslation(drv0)
	if diff := cmp.Diff(v3.Vec{Y: 1}, pos, approx); diff != "" {
		t.Errorf("driver after control move (-want +got):\n%s", diff)
	}
}

func TestSkinProxyAndModuleAssembly(t *testing.T) {
	s := memscene.New()
	surf := flatSurface(t, s, "tail_surface", 4)
	r, _ := NewRibbon(s, "tail", surf, 1, 0)
	if err := r.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	proxy := r.SkinProxy()
	if proxy == nil || proxy.Name() != "tail_skin_proxy" {
		t.Fatalf("skin proxy = %v", proxy)
	}
	skin, err := s.Node("tail_proxy_skinCluster")
	if err != nil {
		t.Fatalf("proxy skin cluster missing: %v", err)
	}
	infl, _ := s.SkinClusterInfluences(skin)
	if len(infl) != 9 {
		t.Errorf("proxy bound to %d joints, want all 9", len(infl))
	}

	// The surface ends up inside the module's hidden group.
	if p := s.ParentOf(surf); p == nil || p.Name() != "tail_hidden_grp" {
		t.Errorf("surface parented under %v", p)
	}
	// Deformer registrations: surface cluster plus proxy cluster.
	if got := len(r.Deformers()); got != 2 {
		t.Errorf("deformer ledger has %d entries, want 2", got)
	}
	if got := len(r.Joints()); got != 9 {
		t.Errorf("joint ledger has %d entries, want 9", got)
	}
	if got := len(r.Controls()); got != 5 {
		t.Errorf("control ledger has %d entries, want 5", got)
	}
}

func TestSurfaceCreateRebuildCast(t *testing.T) {
	s := memscene.New()
	chain := make([]scene.Node, 3)
	for i := range chain {
		n, err := s.CreateTransform(fmt.Sprintf("spine_%d_jnt", i), nil)
		if err != nil {
			t.Fatalf("CreateTransform: %v", err)
		}
		s.SetTranslation(n, v3.Vec{X: 5 * float64(i)})
		chain[i] = n
	}

	surf := NewSurface(s, "spine_surface")
	if surf.Transform() != nil {
		t.Error("cast found a surface before creation")
	}
	if err := surf.Create(chain, 1, SurfaceYUp); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if surf.Spans() != 2 {
		t.Errorf("spans = %d, want 2 for a 3-transform chain", surf.Spans())
	}
	pt, err := s.EvalSurface(surf.Transform(), 0.5, 0.5)
	if err != nil {
		t.Fatalf("EvalSurface: %v", err)
	}
	if diff := cmp.Diff(v3.Vec{X: 5}, pt.Position, approx); diff != "" {
		t.Errorf("surface midpoint (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(v3.Vec{Y: 1}, pt.Normal, approx); diff != "" {
		t.Errorf("surface normal (-want +got):\n%s", diff)
	}

	if err := surf.Rebuild(6); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if surf.Spans() != 6 {
		t.Errorf("spans after rebuild = %d, want 6", surf.Spans())
	}

	// A second wrapper reconnects by name; Create then keeps the
	// existing surface.
	again := NewSurface(s, "spine_surface")
	if again.Transform() == nil || again.Spans() != 6 {
		t.Errorf("cast gave transform=%v spans=%d", again.Transform(), again.Spans())
	}
	if err := again.Create(chain[:1], 1, SurfaceYUp); err != nil {
		t.Errorf("Create on existing surface: %v", err)
	}

	if err := NewSurface(s, "ghost").Rebuild(2); err == nil {
		t.Error("Rebuild on missing surface succeeded")
	}
}
