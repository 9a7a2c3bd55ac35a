package engine

import (
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/armature/pkg/scene"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(control "arm" :kind :circle)`,
			expect: `(control "arm" "__kw_kind" "__kw_circle")`,
		},
		{
			name:   "multiple keywords",
			input:  `(ribbon "tail" :section-joints 1 :ctrl-quantity 0)`,
			expect: `(ribbon "tail" "__kw_section-joints" 1 "__kw_ctrl-quantity" 0)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(loft-surface :chain parts)`,
			expect: `(loft_surface "__kw_chain" parts)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:cube-fk`,
			expect: `"__kw_cube-fk"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgsSeparatesKeywordAndPositional(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpStr{S: "tail"},
		&zygo.SexpStr{S: kwPrefix + "size"},
		&zygo.SexpFloat{Val: 1.5},
		&zygo.SexpStr{S: kwPrefix + "flag"},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		t.Fatalf("positional = %d, want 1", len(pa.positional))
	}
	if _, ok := pa.kw["size"]; !ok {
		t.Error("size keyword missing")
	}
	// A trailing keyword without a value is kept as a flag.
	if v, ok := pa.kw["flag"]; !ok || v != zygo.SexpNull {
		t.Errorf("flag = %v, want SexpNull", v)
	}
}

// ---------------------------------------------------------------------------
// Builtin tests, through a full evaluation
// ---------------------------------------------------------------------------

func TestControlBuiltin(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate(`
(control "arm" :kind :circle :normal :y :color :red :at (vec3 0 5 0) :offset true)
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	ctrl, err := sc.Node("arm")
	if err != nil {
		t.Fatalf("control missing: %v", err)
	}
	if len(sc.Shapes(ctrl)) == 0 {
		t.Error("control has no shape")
	}
	if !sc.Exists("arm_root") {
		t.Error("offset group missing")
	}
	if v, _ := sc.Attr(sc.Shapes(ctrl)[0], scene.AttrOverrideColor); v != 13 {
		t.Errorf("override color = %v, want 13 (red)", v)
	}
}

func TestModuleAndJointBuiltins(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate(`
(def j (joint "tail_1_jnt" :at (vec3 0 2 0)))
(module "tail" :joints (list j))
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	for _, want := range []string{"tail_module", "tail_sets", "tail_joint_set", "tail_1_jnt"} {
		if !sc.Exists(want) {
			t.Errorf("%s missing", want)
		}
	}
}

func TestRibbonScriptEndToEnd(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate(`
; Three-joint spine driven by a four-span ribbon.
(def j0 (joint "spine_0_jnt" :at (vec3 0 0 0)))
(def j1 (joint "spine_1_jnt" :at (vec3 5 0 0)))
(def j2 (joint "spine_2_jnt" :at (vec3 10 0 0)))

(def surf (loft-surface "spine_surface" :chain (list j0 j1 j2) :width 1 :orient :y :spans 4))
(def rib (ribbon "spine" :surface surf :section-joints 1 :ctrl-quantity 0))

(def main (control "main" :kind :cube :color :yellow :offset true))
(def base (module "main_module" :controls (list main)))

(anchor rib main)
(rig "cat" base rib)
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	// Ribbon counts: 4 spans, one section joint -> 9 skinning joints and
	// 5 drivers/controls.
	for _, want := range []string{
		"spine_module", "spine_000_skn", "spine_008_skn",
		"spine_000_drv", "spine_004_drv",
		"spine_000_ctrl", "spine_004_ctrl",
		"spine_surface_skinCluster", "spine_proxy_skinCluster", "spine_skin_proxy",
	} {
		if !sc.Exists(want) {
			t.Errorf("%s missing", want)
		}
	}
	if sc.Exists("spine_009_skn") || sc.Exists("spine_005_drv") {
		t.Error("ribbon built more joints than the span count allows")
	}

	// The anchor shows up as constraints under the module root.
	if !sc.Exists("spine_module_parentConstraint") || !sc.Exists("spine_module_scaleConstraint") {
		t.Error("anchor constraints missing")
	}

	// Both modules are registered under the rig.
	if !sc.Exists("cat_rig") {
		t.Fatal("rig root missing")
	}
	for _, mod := range []string{"spine_module", "main_module_module"} {
		n, err := sc.Node(mod)
		if err != nil {
			t.Fatalf("%s missing: %v", mod, err)
		}
		if p := sc.ParentOf(n); p == nil || p.Name() != "visible_modules" {
			t.Errorf("%s parented under %v", mod, p)
		}
	}
	set, err := sc.Node("cat_rig_sets")
	if err != nil {
		t.Fatalf("master set missing: %v", err)
	}
	if got := len(sc.SetMembers(set)); got != 2 {
		t.Errorf("master set has %d members, want 2", got)
	}
}

func TestRibbonScriptConfigError(t *testing.T) {
	eng := NewEngine()

	// ctrl-quantity of 1 cannot span the surface; the builtin error
	// surfaces as a non-fatal eval error.
	sc, evalErrs, err := eng.Evaluate(`
(def j0 (joint "a_jnt" :at (vec3 0 0 0)))
(def j1 (joint "b_jnt" :at (vec3 5 0 0)))
(def surf (loft-surface "s" :chain (list j0 j1)))
(ribbon "tail" :surface surf :ctrl-quantity 1)
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if sc != nil {
		t.Fatal("expected nil scene on ribbon config error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
}
