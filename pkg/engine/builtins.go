package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/armature/pkg/control"
	"github.com/chazu/armature/pkg/ribbon"
	"github.com/chazu/armature/pkg/rig"
	"github.com/chazu/armature/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms rig script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: loft-surface -> loft_surface
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters, never
		// a minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a scene node handle so builtins can pass it around.
type sexpNode struct {
	n scene.Node
}

func (s *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q)", s.n.Name())
}
func (s *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpControl wraps a created Control so later forms can recolor,
// offset or register it.
type sexpControl struct {
	c *control.Control
}

func (s *sexpControl) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(control %q)", s.c.Name())
}
func (s *sexpControl) Type() *zygo.RegisteredType { return nil }

// sexpModule wraps a built rig module (plain or ribbon).
type sexpModule struct {
	m *rig.Module
}

func (s *sexpModule) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(module %q)", s.m.Name())
}
func (s *sexpModule) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a point.
type sexpVec3 struct {
	vec v3.Vec
}

func (s *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", s.vec.X, s.vec.Y, s.vec.Z)
}
func (s *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string. Returns the
// keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toNode accepts any builtin result that stands for a scene node.
func toNode(s zygo.Sexp) (scene.Node, error) {
	switch v := s.(type) {
	case *sexpNode:
		return v.n, nil
	case *sexpControl:
		if v.c.Node() == nil {
			return nil, fmt.Errorf("control %q has no node", v.c.Name())
		}
		return v.c.Node(), nil
	case *sexpModule:
		return v.m.Root(), nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toModule(s zygo.Sexp) (*rig.Module, error) {
	if v, ok := s.(*sexpModule); ok {
		return v.m, nil
	}
	return nil, fmt.Errorf("expected module, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toNodeList resolves a list form into scene node handles.
func toNodeList(s zygo.Sexp) ([]scene.Node, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	nodes := make([]scene.Node, 0, len(items))
	for i, item := range items {
		n, err := toNode(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ---------------------------------------------------------------------------
// Keyword vocabularies
// ---------------------------------------------------------------------------

var controlKinds = map[string]control.Kind{
	"circle":      control.KindCircle,
	"square":      control.KindSquare,
	"cross":       control.KindCross,
	"arrow":       control.KindArrow,
	"triangle":    control.KindTriangle,
	"half-circle": control.KindHalfCircle,
	"text":        control.KindText,
	"pin":         control.KindPin,
	"pin-double":  control.KindPinDouble,
	"sphere":      control.KindSphere,
	"button":      control.KindButton,
	"orient":      control.KindOrient,
	"cube":        control.KindCube,
	"cube-fk":     control.KindCubeFK,
	"gear":        control.KindGear,
	"ring":        control.KindRing,
	"ring-sphere": control.KindRingSphere,
	"pyramid":     control.KindPyramid,
	"slider":      control.KindSlider,
	"osipa":       control.KindOsipa,
}

var controlNormals = map[string]v3.Vec{
	"x":  control.XPos,
	"y":  control.YPos,
	"z":  control.ZPos,
	"-x": control.XNeg,
	"-y": control.YNeg,
	"-z": control.ZNeg,
}

var controlColors = map[string]control.ColorIndex{
	"red":     control.Red,
	"blue":    control.Blue,
	"yellow":  control.Yellow,
	"green":   control.Green,
	"purple":  control.Purple,
	"cyan":    control.Cyan,
	"magenta": control.Magenta,
	"white":   control.White,
	"black":   control.Black,
}

var surfaceOrients = map[string][2]v3.Vec{
	"y": ribbon.SurfaceYUp,
	"z": ribbon.SurfaceZUp,
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the rig DSL builtins into a zygomys
// environment. The builtins operate on the provided scene, populating
// it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens become recognizable string
// literals.
func registerBuiltins(env *zygo.Zlisp, sc scene.Scene) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var out [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			out[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: out[0], Y: out[1], Z: out[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (transform "name" :at (vec3 0 5 0) :parent ref)
	// (joint "name" :at (vec3 0 5 0) :parent ref)
	// -----------------------------------------------------------------------
	dagBuiltin := func(kind string, create func(name string, parent scene.Node) (scene.Node, error)) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a name argument", kind)
			}
			nodeName, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", kind, err)
			}
			var parent scene.Node
			if v, ok := pa.kw["parent"]; ok {
				if parent, err = toNode(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: parent: %w", kind, err)
				}
			}
			n, err := create(nodeName, parent)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			if v, ok := pa.kw["at"]; ok {
				vec, err := toVec3(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: at: %w", kind, err)
				}
				if err := sc.SetTranslation(n, vec); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: at: %w", kind, err)
				}
			}
			return &sexpNode{n: n}, nil
		}
	}
	env.AddFunction("transform", dagBuiltin("transform", sc.CreateTransform))
	env.AddFunction("joint", dagBuiltin("joint", sc.CreateJoint))

	// -----------------------------------------------------------------------
	// (control "arm" :kind :circle :normal :y :color :red :size 1.5
	//          :at (vec3 0 5 0) :text "IK" :offset true)
	// -----------------------------------------------------------------------
	env.AddFunction("control", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("control requires a name argument")
		}
		ctrlName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("control: name: %w", err)
		}

		kind := control.KindCircle
		if v, ok := pa.kw["kind"]; ok {
			kw, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("control: kind: %w", err)
			}
			k, ok := controlKinds[kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("control: unknown kind %q", kw)
			}
			kind = k
		}
		c := control.New(sc, kind, ctrlName)

		if v, ok := pa.kw["text"]; ok {
			if c.Text, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("control: text: %w", err)
			}
		}

		normal := control.XPos
		if v, ok := pa.kw["normal"]; ok {
			kw, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("control: normal: %w", err)
			}
			n, ok := controlNormals[kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("control: unknown normal %q, expected x/y/z/-x/-y/-z", kw)
			}
			normal = n
		}
		if err := c.Create(normal); err != nil {
			return zygo.SexpNull, fmt.Errorf("control: %w", err)
		}

		if v, ok := pa.kw["size"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("control: size: %w", err)
			}
			if err := c.ShapeScale(v3.Vec{X: f, Y: f, Z: f}); err != nil {
				return zygo.SexpNull, fmt.Errorf("control: size: %w", err)
			}
		}
		if v, ok := pa.kw["color"]; ok {
			kw, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("control: color: %w", err)
			}
			idx, ok := controlColors[kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("control: unknown color %q", kw)
			}
			if err := c.SetColorIndex(idx); err != nil {
				return zygo.SexpNull, fmt.Errorf("control: color: %w", err)
			}
		}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("control: at: %w", err)
			}
			if err := sc.SetTranslation(c.Node(), vec); err != nil {
				return zygo.SexpNull, fmt.Errorf("control: at: %w", err)
			}
		}
		if _, ok := pa.kw["offset"]; ok {
			if err := c.CreateOffset(control.RootSuffix); err != nil {
				return zygo.SexpNull, fmt.Errorf("control: offset: %w", err)
			}
		}
		return &sexpControl{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (module "tail" :controls (list ...) :joints (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("module", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("module requires a name argument")
		}
		modName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("module: name: %w", err)
		}
		m := rig.NewModule(sc, modName)
		if err := m.Build(); err != nil {
			return zygo.SexpNull, fmt.Errorf("module: %w", err)
		}
		if v, ok := pa.kw["controls"]; ok {
			nodes, err := toNodeList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("module: controls: %w", err)
			}
			if err := m.RegisterControls(nodes...); err != nil {
				return zygo.SexpNull, fmt.Errorf("module: controls: %w", err)
			}
		}
		if v, ok := pa.kw["joints"]; ok {
			nodes, err := toNodeList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("module: joints: %w", err)
			}
			if err := m.RegisterJoints(nodes...); err != nil {
				return zygo.SexpNull, fmt.Errorf("module: joints: %w", err)
			}
		}
		return &sexpModule{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (loft-surface "tail_surface" :chain (list j0 j1 j2) :width 1 :orient :y)
	//
	// Note: registered as "loft_surface"; the preprocessor converts the
	// kebab-case call site.
	// -----------------------------------------------------------------------
	env.AddFunction("loft_surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("loft-surface requires a name argument")
		}
		surfName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("loft-surface: name: %w", err)
		}
		chainArg, ok := pa.kw["chain"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("loft-surface: missing :chain")
		}
		chain, err := toNodeList(chainArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("loft-surface: chain: %w", err)
		}

		width := 1.0
		if v, ok := pa.kw["width"]; ok {
			if width, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("loft-surface: width: %w", err)
			}
		}
		orient := ribbon.SurfaceYUp
		if v, ok := pa.kw["orient"]; ok {
			kw, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loft-surface: orient: %w", err)
			}
			o, ok := surfaceOrients[kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("loft-surface: unknown orient %q, expected y or z", kw)
			}
			orient = o
		}

		surf := ribbon.NewSurface(sc, surfName)
		if err := surf.Create(chain, width, orient); err != nil {
			return zygo.SexpNull, fmt.Errorf("loft-surface: %w", err)
		}
		if v, ok := pa.kw["spans"]; ok {
			spans, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loft-surface: spans: %w", err)
			}
			if err := surf.Rebuild(spans); err != nil {
				return zygo.SexpNull, fmt.Errorf("loft-surface: spans: %w", err)
			}
		}
		return &sexpNode{n: surf.Transform()}, nil
	})

	// -----------------------------------------------------------------------
	// (ribbon "tail" :surface surf :section-joints 1 :ctrl-quantity 0)
	// -----------------------------------------------------------------------
	env.AddFunction("ribbon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("ribbon requires a name argument")
		}
		ribName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ribbon: name: %w", err)
		}
		surfArg, ok := pa.kw["surface"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("ribbon: missing :surface")
		}
		surf, err := toNode(surfArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ribbon: surface: %w", err)
		}

		sectionJoints := 0
		if v, ok := pa.kw["section-joints"]; ok {
			if sectionJoints, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ribbon: section-joints: %w", err)
			}
		}
		ctrlQuantity := 0
		if v, ok := pa.kw["ctrl-quantity"]; ok {
			if ctrlQuantity, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ribbon: ctrl-quantity: %w", err)
			}
		}

		r, err := ribbon.NewRibbon(sc, ribName, surf, sectionJoints, ctrlQuantity)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ribbon: %w", err)
		}
		if err := r.Build(); err != nil {
			return zygo.SexpNull, fmt.Errorf("ribbon: %w", err)
		}
		return &sexpModule{m: r.Module}, nil
	})

	// -----------------------------------------------------------------------
	// (rig "cat" mod1 mod2 ... :hidden (list mod3))
	// -----------------------------------------------------------------------
	env.AddFunction("rig", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("rig requires a name argument")
		}
		rigName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rig: name: %w", err)
		}
		r := rig.NewRig(sc, rigName)
		if err := r.Build(); err != nil {
			return zygo.SexpNull, fmt.Errorf("rig: %w", err)
		}

		register := func(s zygo.Sexp, visible bool) error {
			m, err := toModule(s)
			if err != nil {
				return err
			}
			if err := r.RegisterModule(m.Root(), visible); err != nil {
				return err
			}
			return r.RegisterSet(m.RootSet())
		}
		for i := 1; i < len(pa.positional); i++ {
			if err := register(pa.positional[i], true); err != nil {
				return zygo.SexpNull, fmt.Errorf("rig: module %d: %w", i, err)
			}
		}
		if v, ok := pa.kw["hidden"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rig: hidden: %w", err)
			}
			for i, item := range items {
				if err := register(item, false); err != nil {
					return zygo.SexpNull, fmt.Errorf("rig: hidden module %d: %w", i, err)
				}
			}
		}
		return &sexpNode{n: r.Root()}, nil
	})

	// -----------------------------------------------------------------------
	// (anchor module target)
	// -----------------------------------------------------------------------
	env.AddFunction("anchor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("anchor requires a module and a target")
		}
		m, err := toModule(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("anchor: module: %w", err)
		}
		target, err := toNode(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("anchor: target: %w", err)
		}
		if _, err := m.AnchorTo(target); err != nil {
			return zygo.SexpNull, fmt.Errorf("anchor: %w", err)
		}
		return args[0], nil
	})
}
