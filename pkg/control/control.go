// Package control builds and edits animation control objects: named
// transforms carrying one or more curve shapes, generated from the
// shape library or procedurally per kind. Shape edits always go through
// the curve control vertices so the animatable transform channels stay
// clean.
package control

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
)

// Naming conventions. Suffixes are the wire protocol that lets later
// sessions rediscover structure by name.
const (
	Suffix       = "_ctrl"
	OffsetSuffix = "_offset"
	RootSuffix   = "_root"
)

// ErrNotCreated is returned by shape and transform edits on a control
// that has no backing transform yet.
var ErrNotCreated = errors.New("control not created")

// Control is one control object. It is UNCREATED until Create (or Cast)
// gives it a backing transform; every other operation requires the
// transform.
type Control struct {
	sc   scene.Scene
	kind Kind
	name string

	// Text is the glyph string for KindText; defaults to the control
	// name.
	Text string
	// Limits is the slider travel for KindSlider.
	Limits [2]float64

	node   scene.Node
	offset scene.Node
}

// New declares a control of the given kind. Nothing is created until
// Create.
func New(sc scene.Scene, kind Kind, name string) *Control {
	return &Control{sc: sc, kind: kind, name: name, Limits: [2]float64{0, 1}}
}

// Cast wraps an existing transform in a Control. The kind is unknown
// (KindCustom), so the result can be edited but not re-generated.
func Cast(sc scene.Scene, name string) (*Control, error) {
	n, err := sc.Node(name)
	if err != nil {
		return nil, fmt.Errorf("control: cast %q: %w", name, err)
	}
	if n.Kind() != scene.KindTransform && n.Kind() != scene.KindJoint {
		return nil, fmt.Errorf("control: cast %q: %w: %s", name, scene.ErrWrongKind, n.Kind())
	}
	return &Control{sc: sc, kind: KindCustom, name: name, node: n, Limits: [2]float64{0, 1}}, nil
}

func (c *Control) Name() string     { return c.name }
func (c *Control) Kind() Kind       { return c.kind }
func (c *Control) Node() scene.Node { return c.node }
func (c *Control) Created() bool    { return c.node != nil }

func (c *Control) String() string { return c.name }

func (c *Control) ensureCreated() error {
	if c.node == nil {
		return fmt.Errorf("control %q: %w", c.name, ErrNotCreated)
	}
	return nil
}

// Create instantiates the control's geometry and orients the shape so
// its forward axis matches normal. Re-entrant: if the named transform
// already exists (from this instance or a previous session), it is
// adopted and no geometry is added.
func (c *Control) Create(normal v3.Vec) error {
	if c.node != nil {
		return nil
	}
	if c.sc.Exists(c.name) {
		n, err := c.sc.Node(c.name)
		if err != nil {
			return err
		}
		c.node = n
		return nil
	}
	gen, ok := generators[c.kind]
	if !ok {
		return fmt.Errorf("control %q: kind %s has no generator", c.name, c.kind)
	}
	if err := gen(c); err != nil {
		return fmt.Errorf("control %q: %w", c.name, err)
	}
	if c.kind != KindSlider && c.kind != KindOsipa {
		if err := c.ShapeNormal(normal); err != nil {
			return err
		}
	}
	return nil
}

// shapes lists the curve shapes under the control transform.
func (c *Control) shapes() []scene.Node {
	var out []scene.Node
	for _, sh := range c.sc.Shapes(c.node) {
		if sh.Kind() == scene.KindCurve {
			out = append(out, sh)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Shape edits (control vertices only, transform channels untouched)
// ---------------------------------------------------------------------------

func (c *Control) editCVs(f func([]v3.Vec) []v3.Vec) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, sh := range c.shapes() {
		pts, err := c.sc.CurvePoints(sh)
		if err != nil {
			return err
		}
		if err := c.sc.SetCurvePoints(sh, f(pts)); err != nil {
			return err
		}
	}
	return nil
}

// ShapeOrient rotates every shape's control vertices by the given Euler
// degrees about the transform's origin.
func (c *Control) ShapeOrient(euler v3.Vec) error {
	return c.editCVs(func(pts []v3.Vec) []v3.Vec { return rotatePoints(pts, euler) })
}

// ShapeMove translates every shape's control vertices.
func (c *Control) ShapeMove(offset v3.Vec) error {
	return c.editCVs(func(pts []v3.Vec) []v3.Vec { return movePoints(pts, offset) })
}

// ShapeScale scales every shape's control vertices about the
// transform's origin.
func (c *Control) ShapeScale(s v3.Vec) error {
	return c.editCVs(func(pts []v3.Vec) []v3.Vec { return scalePoints(pts, s) })
}

// ShapeNormal aims the shape at one of the six canonical axis
// directions. The mapping only discriminates the axis cases, it is not
// a general aim: rotation = (0, -90*nz, 90*ny).
func (c *Control) ShapeNormal(normal v3.Vec) error {
	return c.ShapeOrient(v3.Vec{Y: -90 * normal.Z, Z: 90 * normal.Y})
}

// ---------------------------------------------------------------------------
// Transform placement
// ---------------------------------------------------------------------------

// AttachPoint is where the control plugs into a hierarchy: the offset
// group when present, the control transform otherwise.
func (c *Control) AttachPoint() scene.Node {
	if c.offset != nil {
		return c.offset
	}
	return c.node
}

// AlignTo moves the control (or its offset) onto target's world
// position and orientation. Scale is preserved.
func (c *Control) AlignTo(target scene.Node) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	attach := c.AttachPoint()
	tm, err := c.sc.WorldMatrix(target)
	if err != nil {
		return err
	}
	am, err := c.sc.WorldMatrix(attach)
	if err != nil {
		return err
	}
	ts := columnScales(tm)
	as := columnScales(am)
	rel := v3.Vec{X: as.X / ts.X, Y: as.Y / ts.Y, Z: as.Z / ts.Z}
	return c.sc.SetWorldMatrix(attach, tm.Mul(sdf.Scale3d(rel)))
}

// CreateOffset synthesizes a parent group at the control's current
// world transform and reparents the control beneath it. Idempotent by
// name: an existing <name><suffix> transform is reused, never stacked.
func (c *Control) CreateOffset(suffix string) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	name := c.node.Name() + suffix
	if c.sc.Exists(name) {
		off, err := c.sc.Node(name)
		if err != nil {
			return err
		}
		c.offset = off
		return nil
	}
	w, err := c.sc.WorldMatrix(c.node)
	if err != nil {
		return err
	}
	off, err := c.sc.CreateTransform(name, c.sc.ParentOf(c.node))
	if err != nil {
		return err
	}
	if err := c.sc.SetWorldMatrix(off, w); err != nil {
		return err
	}
	if err := c.sc.Parent(c.node, off); err != nil {
		return err
	}
	if err := c.sc.SetWorldMatrix(c.node, w); err != nil {
		return err
	}
	c.offset = off
	return nil
}

// Offset returns the offset group if one was created or adopted, else
// the transform's immediate parent.
func (c *Control) Offset() scene.Node {
	if c.offset != nil {
		return c.offset
	}
	if c.node == nil {
		return nil
	}
	return c.sc.ParentOf(c.node)
}

// SetOffset reparents the control's attach point under an existing
// node.
func (c *Control) SetOffset(parent scene.Node) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	return c.sc.Parent(c.AttachPoint(), parent)
}

// ---------------------------------------------------------------------------
// Shape transfer
// ---------------------------------------------------------------------------

// CombineShapes moves the shapes of the given controls under this one,
// preserving their world-space positions. Donor transforms without
// remaining children are deleted.
func (c *Control) CombineShapes(others ...*Control) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	ownW, err := c.sc.WorldMatrix(c.node)
	if err != nil {
		return err
	}
	ownInv := ownW.Inverse()
	for _, other := range others {
		if err := other.ensureCreated(); err != nil {
			return err
		}
		otherW, err := c.sc.WorldMatrix(other.node)
		if err != nil {
			return err
		}
		toLocal := ownInv.Mul(otherW)
		for _, sh := range other.shapes() {
			pts, err := c.sc.CurvePoints(sh)
			if err != nil {
				return err
			}
			moved := make([]v3.Vec, len(pts))
			for i, p := range pts {
				moved[i] = toLocal.MulPosition(p)
			}
			if _, err := c.sc.AttachCurve(c.node, moved); err != nil {
				return err
			}
			if err := c.sc.Delete(sh); err != nil {
				return err
			}
		}
		if len(c.sc.Children(other.node)) == 0 && len(c.sc.Shapes(other.node)) == 0 {
			if err := c.sc.Delete(other.node); err != nil {
				return err
			}
			other.node = nil
		}
	}
	return nil
}

// ReplaceShapes swaps this control's shapes for those of the given
// controls.
func (c *Control) ReplaceShapes(others ...*Control) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	old := c.shapes()
	if err := c.CombineShapes(others...); err != nil {
		return err
	}
	return c.sc.Delete(old...)
}

// ---------------------------------------------------------------------------
// Style
// ---------------------------------------------------------------------------

// SetColorIndex colors every shape from the discrete palette. Clears
// any RGB color.
func (c *Control) SetColorIndex(color ColorIndex) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, sh := range c.shapes() {
		if err := c.setAll(sh, map[string]any{
			scene.AttrOverrideEnabled: true,
			scene.AttrOverrideRGB:     false,
			scene.AttrOverrideColor:   int(color),
		}); err != nil {
			return err
		}
	}
	return nil
}

// SetColorRGB colors every shape with an explicit RGB triple. Clears
// any palette index.
func (c *Control) SetColorRGB(r, g, b float64) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, sh := range c.shapes() {
		if err := c.setAll(sh, map[string]any{
			scene.AttrOverrideEnabled:  true,
			scene.AttrOverrideRGB:      true,
			scene.AttrOverrideColorRGB: [3]float64{r, g, b},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Control) setAll(n scene.Node, attrs map[string]any) error {
	for attr, v := range attrs {
		if err := c.sc.SetAttr(n, attr, v); err != nil {
			return err
		}
	}
	return nil
}

// Color reports which color representation is active on the control's
// first shape and its value.
func (c *Control) Color() (ColorValue, error) {
	if err := c.ensureCreated(); err != nil {
		return ColorValue{}, err
	}
	shapes := c.shapes()
	if len(shapes) == 0 {
		return ColorValue{}, fmt.Errorf("control %q has no shapes", c.name)
	}
	sh := shapes[0]
	useRGB, err := c.sc.Attr(sh, scene.AttrOverrideRGB)
	if err != nil {
		return ColorValue{}, fmt.Errorf("control %q has no color override: %w", c.name, err)
	}
	if rgb, _ := useRGB.(bool); rgb {
		v, err := c.sc.Attr(sh, scene.AttrOverrideColorRGB)
		if err != nil {
			return ColorValue{}, err
		}
		values, _ := v.([3]float64)
		return ColorValue{RGB: true, Values: values}, nil
	}
	v, err := c.sc.Attr(sh, scene.AttrOverrideColor)
	if err != nil {
		return ColorValue{}, err
	}
	idx, _ := v.(int)
	return ColorValue{Index: ColorIndex(idx)}, nil
}

// LineThick widens every shape's display line.
func (c *Control) LineThick() error { return c.setLineWidth(2) }

// LineThin restores the default display line.
func (c *Control) LineThin() error { return c.setLineWidth(1) }

func (c *Control) setLineWidth(w float64) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, sh := range c.shapes() {
		if err := c.sc.SetAttr(sh, scene.AttrLineWidth, w); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Channels
// ---------------------------------------------------------------------------

// expandChannels turns shorthand channel groups (t, r, s, v) into the
// concrete channel names.
func expandChannels(names []string) []string {
	var out []string
	for _, n := range names {
		switch n {
		case "t":
			out = append(out, "translateX", "translateY", "translateZ")
		case "r":
			out = append(out, "rotateX", "rotateY", "rotateZ")
		case "s":
			out = append(out, scene.AttrScaleX, scene.AttrScaleY, scene.AttrScaleZ)
		case "v":
			out = append(out, scene.AttrVisibility)
		default:
			out = append(out, n)
		}
	}
	return out
}

// LockChannels locks the named channels and removes them from the
// keyable/editable surface. Lock, unkeyable and hide always apply
// together. Channels absent from the node are skipped.
func (c *Control) LockChannels(channels ...string) error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, ch := range expandChannels(channels) {
		if !c.sc.HasAttr(c.node, ch) {
			continue
		}
		if err := c.sc.LockAndHide(c.node, ch); err != nil {
			return err
		}
	}
	return nil
}

// channelDefaults are the rest values Reset restores.
var channelDefaults = map[string]any{
	"translateX": 0.0, "translateY": 0.0, "translateZ": 0.0,
	"rotateX": 0.0, "rotateY": 0.0, "rotateZ": 0.0,
	scene.AttrScaleX: 1.0, scene.AttrScaleY: 1.0, scene.AttrScaleZ: 1.0,
	scene.AttrVisibility: true,
}

// Reset restores every unlocked transform channel to its default.
func (c *Control) Reset() error {
	if err := c.ensureCreated(); err != nil {
		return err
	}
	for _, ch := range scene.TransformChannels {
		if c.sc.IsLocked(c.node, ch) {
			continue
		}
		if err := c.sc.SetAttr(c.node, ch, channelDefaults[ch]); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Copy / mirror
// ---------------------------------------------------------------------------

// Copy duplicates the control under a new name, stripping any child
// transforms that are not part of the shape set. The copy has the same
// kind.
func (c *Control) Copy(newName string) (*Control, error) {
	if err := c.ensureCreated(); err != nil {
		return nil, err
	}
	dup, err := c.sc.Duplicate(c.node, newName)
	if err != nil {
		return nil, err
	}
	if kids := c.sc.Children(dup); len(kids) > 0 {
		if err := c.sc.Delete(kids...); err != nil {
			return nil, err
		}
	}
	out := New(c.sc, c.kind, newName)
	out.node = dup
	return out, nil
}

// Mirror copies the control and reflects it across the given world
// axis through the origin. The flip goes through a temporary pivot
// scaled by -1, so rotations come out as a true reflection; translate
// channels are never negated directly.
func (c *Control) Mirror(newName string, axis Axis) (*Control, error) {
	dup, err := c.Copy(newName)
	if err != nil {
		return nil, err
	}
	origParent := c.sc.ParentOf(dup.node)

	pivotName := newName + "_mirror_grp"
	for i := 1; c.sc.Exists(pivotName); i++ {
		pivotName = fmt.Sprintf("%s_mirror_grp%d", newName, i)
	}
	pivot, err := c.sc.CreateTransform(pivotName, nil)
	if err != nil {
		return nil, err
	}
	if err := c.sc.Parent(dup.node, pivot); err != nil {
		return nil, err
	}
	flip := v3.Vec{X: 1, Y: 1, Z: 1}
	switch axis {
	case AxisX:
		flip.X = -1
	case AxisY:
		flip.Y = -1
	case AxisZ:
		flip.Z = -1
	}
	if err := c.sc.SetScale(pivot, flip); err != nil {
		return nil, err
	}
	w, err := c.sc.WorldMatrix(dup.node)
	if err != nil {
		return nil, err
	}
	if err := c.sc.Parent(dup.node, origParent); err != nil {
		return nil, err
	}
	if err := c.sc.SetWorldMatrix(dup.node, w); err != nil {
		return nil, err
	}
	if err := c.sc.Delete(pivot); err != nil {
		return nil, err
	}
	return dup, nil
}
