package memscene

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
)

// ---------------------------------------------------------------------------
// Generic attributes and connections
// ---------------------------------------------------------------------------

// SetAttr stores an attribute value. Locked attributes reject writes.
// Transform channel names (translateX, rotateY, scaleZ, ...) write
// through to the TRS channels.
func (s *Scene) SetAttr(h scene.Node, attr string, value any) error {
	n, err := s.resolve(h)
	if err != nil {
		return err
	}
	if n.locked[attr] {
		return fmt.Errorf("memscene: attribute %s.%s is locked", n.name, attr)
	}
	if ok, err := s.setChannel(n, attr, value); ok {
		return err
	}
	n.attrs[attr] = value
	return nil
}

// setChannel routes a per-axis channel write to the TRS fields.
func (s *Scene) setChannel(n *node, attr string, value any) (bool, error) {
	if n.kind != scene.KindTransform && n.kind != scene.KindJoint {
		return false, nil
	}
	vec, axis := channelTarget(n, attr)
	if vec == nil {
		return false, nil
	}
	f, ok := toFloat(value)
	if !ok {
		return true, fmt.Errorf("memscene: channel %s.%s needs a number, got %T", n.name, attr, value)
	}
	switch axis {
	case 0:
		vec.X = f
	case 1:
		vec.Y = f
	case 2:
		vec.Z = f
	}
	return true, nil
}

// channelTarget maps a channel name to its TRS vector and axis.
func channelTarget(n *node, attr string) (*v3.Vec, int) {
	switch attr {
	case "translateX":
		return &n.translate, 0
	case "translateY":
		return &n.translate, 1
	case "translateZ":
		return &n.translate, 2
	case "rotateX":
		return &n.rotate, 0
	case "rotateY":
		return &n.rotate, 1
	case "rotateZ":
		return &n.rotate, 2
	case scene.AttrScaleX:
		return &n.scale, 0
	case scene.AttrScaleY:
		return &n.scale, 1
	case scene.AttrScaleZ:
		return &n.scale, 2
	}
	return nil, 0
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case int:
		return float64(f), true
	}
	return 0, false
}

// Attr reads an attribute. Connected destinations pull their source;
// computed outputs (follicle samples, distances, multiplyDivide) are
// evaluated on demand.
func (s *Scene) Attr(h scene.Node, attr string) (any, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	return s.attrValue(n, attr)
}

func (s *Scene) attrValue(n *node, attr string) (any, error) {
	if src, ok := s.conns[plug{n, attr}]; ok {
		return s.attrValue(src.n, src.attr)
	}
	if v, ok := s.computedAttr(n, attr); ok {
		return v, nil
	}
	if v, ok := n.attrs[attr]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("memscene: %w: %s.%s", scene.ErrNoAttr, n.name, attr)
}

// computedAttr evaluates outputs that depend on other scene state.
func (s *Scene) computedAttr(n *node, attr string) (any, bool) {
	switch n.kind {
	case scene.KindFollicle:
		switch attr {
		case "outTranslate":
			pt, err := s.evalFollicle(n)
			if err != nil {
				return nil, false
			}
			return pt.Position, true
		case "outRotate":
			pt, err := s.evalFollicle(n)
			if err != nil {
				return nil, false
			}
			return eulerAiming(pt.TangentU, pt.Normal), true
		case "parameterU":
			return n.folU, true
		case "parameterV":
			return n.folV, true
		}

	case scene.KindDistanceBetween:
		if attr == scene.AttrDistance {
			return s.evalDistance(n), true
		}

	case scene.KindMultiplyDivide:
		if attr == scene.AttrOutputX {
			return s.evalMultiplyDivide(n), true
		}

	case scene.KindTransform, scene.KindJoint:
		if attr == scene.AttrWorldMatrix {
			return s.worldMatrix(n), true
		}
		if vec, axis := channelTarget(n, attr); vec != nil {
			var live v3.Vec
			switch vec {
			case &n.translate:
				live = s.localTranslate(n)
			case &n.rotate:
				live = s.localRotate(n)
			default:
				live = s.localScale(n)
			}
			switch axis {
			case 0:
				return live.X, true
			case 1:
				return live.Y, true
			default:
				return live.Z, true
			}
		}
	}
	return nil, false
}

func (s *Scene) evalDistance(n *node) float64 {
	m1, ok1 := s.matrixInput(n, scene.AttrInMatrix1)
	m2, ok2 := s.matrixInput(n, scene.AttrInMatrix2)
	if !ok1 || !ok2 {
		return 0
	}
	a := m1.MulPosition(v3.Vec{})
	b := m2.MulPosition(v3.Vec{})
	return b.Sub(a).Length()
}

// matrixInput resolves a matrix-valued input, following a connection to
// a transform's world matrix if one exists.
func (s *Scene) matrixInput(n *node, attr string) (sdf.M44, bool) {
	if src, ok := s.conns[plug{n, attr}]; ok {
		if src.attr == scene.AttrWorldMatrix {
			return s.worldMatrix(src.n), true
		}
		v, err := s.attrValue(src.n, src.attr)
		if err != nil {
			return sdf.Identity3d(), false
		}
		if m, ok := v.(sdf.M44); ok {
			return m, true
		}
		return sdf.Identity3d(), false
	}
	if v, ok := n.attrs[attr]; ok {
		if m, ok := v.(sdf.M44); ok {
			return m, true
		}
	}
	return sdf.Identity3d(), false
}

func (s *Scene) evalMultiplyDivide(n *node) float64 {
	in1 := s.floatInput(n, scene.AttrInput1X)
	in2 := s.floatInput(n, scene.AttrInput2X)
	op, _ := n.attrs[scene.AttrOperation].(int)
	switch op {
	case 2: // divide
		if nearEqual(in2, 0) {
			return 0
		}
		return in1 / in2
	default:
		return in1 * in2
	}
}

func (s *Scene) floatInput(n *node, attr string) float64 {
	v, err := s.attrValue(n, attr)
	if err != nil {
		return 0
	}
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	}
	return 0
}

// HasAttr reports whether the attribute exists on the node (stored,
// connected or computed).
func (s *Scene) HasAttr(h scene.Node, attr string) bool {
	n, err := s.resolve(h)
	if err != nil {
		return false
	}
	_, err = s.attrValue(n, attr)
	return err == nil
}

// Connect wires src.srcAttr into dst.dstAttr. Reading the destination
// afterwards pulls the live source value; an existing incoming
// connection on the destination is replaced.
func (s *Scene) Connect(src scene.Node, srcAttr string, dst scene.Node, dstAttr string) error {
	sn, err := s.resolve(src)
	if err != nil {
		return err
	}
	dn, err := s.resolve(dst)
	if err != nil {
		return err
	}
	if sn == dn && srcAttr == dstAttr {
		return fmt.Errorf("memscene: cannot connect %s.%s to itself", sn.name, srcAttr)
	}
	s.conns[plug{dn, dstAttr}] = plug{sn, srcAttr}
	return nil
}

// LockAndHide locks an attribute, removes it from the keyable set and
// hides it from the channel UI. The three effects always apply
// together.
func (s *Scene) LockAndHide(h scene.Node, attr string) error {
	n, err := s.resolve(h)
	if err != nil {
		return err
	}
	if _, err := s.attrValue(n, attr); err != nil {
		return err
	}
	n.locked[attr] = true
	return nil
}

// IsLocked reports whether LockAndHide was applied to the attribute.
func (s *Scene) IsLocked(h scene.Node, attr string) bool {
	n, err := s.resolve(h)
	if err != nil {
		return false
	}
	return n.locked[attr]
}

// ---------------------------------------------------------------------------
// Transform channels
// ---------------------------------------------------------------------------

func (s *Scene) transformNode(h scene.Node) (*node, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	switch n.kind {
	case scene.KindTransform, scene.KindJoint:
		return n, nil
	}
	return nil, fmt.Errorf("memscene: %w: %q is %s, not a transform", scene.ErrWrongKind, n.name, n.kind)
}

// Translation returns the local translate channel.
func (s *Scene) Translation(h scene.Node) (v3.Vec, error) {
	n, err := s.transformNode(h)
	if err != nil {
		return v3.Vec{}, err
	}
	return s.localTranslate(n), nil
}

// SetTranslation sets the local translate channel.
func (s *Scene) SetTranslation(h scene.Node, t v3.Vec) error {
	n, err := s.transformNode(h)
	if err != nil {
		return err
	}
	n.translate = t
	return nil
}

// Rotation returns the local rotate channel in XYZ Euler degrees.
func (s *Scene) Rotation(h scene.Node) (v3.Vec, error) {
	n, err := s.transformNode(h)
	if err != nil {
		return v3.Vec{}, err
	}
	return s.localRotate(n), nil
}

// SetRotation sets the local rotate channel in XYZ Euler degrees.
func (s *Scene) SetRotation(h scene.Node, r v3.Vec) error {
	n, err := s.transformNode(h)
	if err != nil {
		return err
	}
	n.rotate = r
	return nil
}

// ScaleOf returns the local scale channel.
func (s *Scene) ScaleOf(h scene.Node) (v3.Vec, error) {
	n, err := s.transformNode(h)
	if err != nil {
		return v3.Vec{}, err
	}
	return s.localScale(n), nil
}

// SetScale sets the local scale channel.
func (s *Scene) SetScale(h scene.Node, sc v3.Vec) error {
	n, err := s.transformNode(h)
	if err != nil {
		return err
	}
	n.scale = sc
	return nil
}

// localTranslate honors an incoming connection on "translate" (used by
// follicle transforms) before falling back to the stored channel.
func (s *Scene) localTranslate(n *node) v3.Vec {
	if src, ok := s.conns[plug{n, "translate"}]; ok {
		if v, err := s.attrValue(src.n, src.attr); err == nil {
			if vec, ok := v.(v3.Vec); ok {
				return vec
			}
		}
	}
	return n.translate
}

func (s *Scene) localRotate(n *node) v3.Vec {
	if src, ok := s.conns[plug{n, "rotate"}]; ok {
		if v, err := s.attrValue(src.n, src.attr); err == nil {
			if vec, ok := v.(v3.Vec); ok {
				return vec
			}
		}
	}
	return n.rotate
}

func (s *Scene) localScale(n *node) v3.Vec {
	out := n.scale
	for i, attr := range []string{scene.AttrScaleX, scene.AttrScaleY, scene.AttrScaleZ} {
		src, ok := s.conns[plug{n, attr}]
		if !ok {
			continue
		}
		v, err := s.attrValue(src.n, src.attr)
		if err != nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		switch i {
		case 0:
			out.X = f
		case 1:
			out.Y = f
		case 2:
			out.Z = f
		}
	}
	return out
}

// offsetParentMatrix honors an incoming connection (a driving
// transform's world matrix) before the stored matrix.
func (s *Scene) offsetParentMatrix(n *node) sdf.M44 {
	if m, ok := s.matrixInput(n, scene.AttrOffsetParent); ok {
		return m
	}
	return n.opm
}

// worldMatrix composes parent world (unless inheritsTransform is off),
// offset-parent-matrix and local TRS.
func (s *Scene) worldMatrix(n *node) sdf.M44 {
	local := composeTRS(s.localTranslate(n), s.localRotate(n), s.localScale(n))
	m := s.offsetParentMatrix(n).Mul(local)
	if inherits, ok := n.attrs[scene.AttrInheritsTransform].(bool); !ok || inherits {
		if n.parent != nil {
			return s.worldMatrix(n.parent).Mul(m)
		}
	}
	return m
}

// setWorldMatrix adjusts local TRS so the node lands on the given
// world matrix under its current parent and offset-parent-matrix.
func (s *Scene) setWorldMatrix(n *node, m sdf.M44) {
	pre := s.offsetParentMatrix(n)
	if inherits, ok := n.attrs[scene.AttrInheritsTransform].(bool); !ok || inherits {
		if n.parent != nil {
			pre = s.worldMatrix(n.parent).Mul(pre)
		}
	}
	local := pre.Inverse().Mul(m)
	n.translate, n.rotate, n.scale = decomposeTRS(local)
}

// WorldMatrix returns the node's world matrix.
func (s *Scene) WorldMatrix(h scene.Node) (sdf.M44, error) {
	n, err := s.transformNode(h)
	if err != nil {
		return sdf.Identity3d(), err
	}
	return s.worldMatrix(n), nil
}

// SetWorldMatrix moves the node to the given world matrix by adjusting
// its local channels.
func (s *Scene) SetWorldMatrix(h scene.Node, m sdf.M44) error {
	n, err := s.transformNode(h)
	if err != nil {
		return err
	}
	s.setWorldMatrix(n, m)
	return nil
}

// WorldTranslation returns the node's world-space position.
func (s *Scene) WorldTranslation(h scene.Node) (v3.Vec, error) {
	m, err := s.WorldMatrix(h)
	if err != nil {
		return v3.Vec{}, err
	}
	return m.MulPosition(v3.Vec{}), nil
}

// ---------------------------------------------------------------------------
// Curve control vertices
// ---------------------------------------------------------------------------

// CurvePoints returns a copy of a curve shape's control vertices.
func (s *Scene) CurvePoints(h scene.Node) ([]v3.Vec, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	if n.kind != scene.KindCurve {
		return nil, fmt.Errorf("memscene: %w: %q is %s, not a curve", scene.ErrWrongKind, n.name, n.kind)
	}
	return append([]v3.Vec(nil), n.curvePoints...), nil
}

// SetCurvePoints replaces a curve shape's control vertices.
func (s *Scene) SetCurvePoints(h scene.Node, points []v3.Vec) error {
	n, err := s.resolve(h)
	if err != nil {
		return err
	}
	if n.kind != scene.KindCurve {
		return fmt.Errorf("memscene: %w: %q is %s, not a curve", scene.ErrWrongKind, n.name, n.kind)
	}
	n.curvePoints = append([]v3.Vec(nil), points...)
	return nil
}
