package memscene

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
)

// surfaceData is the payload of a lofted surface shape: a grid of
// control points, profiles ordered along U with the points of each
// profile running across V.
type surfaceData struct {
	profiles [][]v3.Vec
}

func (d *surfaceData) clone() *surfaceData {
	out := &surfaceData{profiles: make([][]v3.Vec, len(d.profiles))}
	for i, p := range d.profiles {
		out.profiles[i] = append([]v3.Vec(nil), p...)
	}
	return out
}

func (d *surfaceData) spansU() int { return len(d.profiles) - 1 }

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

// CreateLoftedSurface lofts a surface through the given profiles and
// returns the owning transform. Profiles run along U; every profile
// needs the same point count.
func (s *Scene) CreateLoftedSurface(name string, profiles [][]v3.Vec) (scene.Node, error) {
	if len(profiles) < 2 {
		return nil, fmt.Errorf("memscene: surface %q needs at least 2 profiles, got %d", name, len(profiles))
	}
	width := len(profiles[0])
	if width < 2 {
		return nil, fmt.Errorf("memscene: surface %q needs at least 2 points per profile, got %d", name, width)
	}
	for i, p := range profiles {
		if len(p) != width {
			return nil, fmt.Errorf("memscene: surface %q profile %d has %d points, want %d", name, i, len(p), width)
		}
	}
	t, err := s.createDAGNode(name, scene.KindTransform, nil)
	if err != nil {
		return nil, err
	}
	shape, err := s.newNode(s.uniqueName(name+"Shape"), scene.KindSurface)
	if err != nil {
		return nil, err
	}
	shape.owner = t
	shape.surf = (&surfaceData{profiles: profiles}).clone()
	t.shapes = append(t.shapes, shape)
	return t, nil
}

// surfaceShapeOf accepts either a surface shape or its transform.
func (s *Scene) surfaceShapeOf(h scene.Node) (*node, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	if n.kind == scene.KindSurface {
		return n, nil
	}
	for _, sh := range n.shapes {
		if sh.kind == scene.KindSurface {
			return sh, nil
		}
	}
	return nil, fmt.Errorf("memscene: %w: %q carries no surface shape", scene.ErrWrongKind, n.name)
}

// SurfaceSpansU returns the surface's span count along U.
func (s *Scene) SurfaceSpansU(surface scene.Node) (int, error) {
	sh, err := s.surfaceShapeOf(surface)
	if err != nil {
		return 0, err
	}
	return sh.surf.spansU(), nil
}

// EvalSurface samples the surface at (u, v) in world space. U runs
// along the loft direction, V across the profiles; both are clamped to
// [0, 1].
func (s *Scene) EvalSurface(surface scene.Node, u, v float64) (scene.SurfacePoint, error) {
	sh, err := s.surfaceShapeOf(surface)
	if err != nil {
		return scene.SurfacePoint{}, err
	}
	pt := sh.surf.eval(u, v)
	if sh.owner != nil {
		pt = transformSurfacePoint(pt, s.worldMatrix(sh.owner))
	}
	return pt, nil
}

func transformSurfacePoint(pt scene.SurfacePoint, m sdf.M44) scene.SurfacePoint {
	o := m.MulPosition(pt.Position)
	dir := func(d v3.Vec) v3.Vec {
		w := m.MulPosition(pt.Position.Add(d)).Sub(o)
		if w.Length() < 1e-12 {
			return d
		}
		return w.Normalize()
	}
	return scene.SurfacePoint{
		Position: o,
		Normal:   dir(pt.Normal),
		TangentU: dir(pt.TangentU),
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// eval samples the control grid with bilinear interpolation in local
// space.
func (d *surfaceData) eval(u, v float64) scene.SurfacePoint {
	u = clamp01(u)
	v = clamp01(v)

	fu := u * float64(d.spansU())
	i := int(math.Floor(fu))
	if i >= d.spansU() {
		i = d.spansU() - 1
	}
	tu := fu - float64(i)

	cols := len(d.profiles[0])
	fv := v * float64(cols-1)
	j := int(math.Floor(fv))
	if j >= cols-1 {
		j = cols - 2
	}
	tv := fv - float64(j)

	lerp := func(a, b v3.Vec, t float64) v3.Vec {
		return a.Add(b.Sub(a).MulScalar(t))
	}

	p00 := d.profiles[i][j]
	p01 := d.profiles[i][j+1]
	p10 := d.profiles[i+1][j]
	p11 := d.profiles[i+1][j+1]

	pos := lerp(lerp(p00, p01, tv), lerp(p10, p11, tv), tu)
	du := lerp(p10.Sub(p00), p11.Sub(p01), tv)
	dv := lerp(p01.Sub(p00), p11.Sub(p10), tu)

	tangentU := du
	if tangentU.Length() > 1e-12 {
		tangentU = tangentU.Normalize()
	} else {
		tangentU = v3.Vec{X: 1}
	}
	normal := du.Cross(dv)
	if normal.Length() > 1e-12 {
		normal = normal.Normalize()
	} else {
		normal = v3.Vec{Y: 1}
	}
	return scene.SurfacePoint{Position: pos, Normal: normal, TangentU: tangentU}
}

// RebuildSurface resamples the surface to uniform parameterization with
// the given span count along U. The profile width is preserved.
func (s *Scene) RebuildSurface(surface scene.Node, spansU int) error {
	sh, err := s.surfaceShapeOf(surface)
	if err != nil {
		return err
	}
	if spansU < 1 {
		return fmt.Errorf("memscene: rebuild of %q needs at least 1 span, got %d", sh.name, spansU)
	}
	cols := len(sh.surf.profiles[0])
	profiles := make([][]v3.Vec, spansU+1)
	for i := 0; i <= spansU; i++ {
		u := float64(i) / float64(spansU)
		row := make([]v3.Vec, cols)
		for j := 0; j < cols; j++ {
			v := float64(j) / float64(cols-1)
			row[j] = sh.surf.eval(u, v).Position
		}
		profiles[i] = row
	}
	sh.surf.profiles = profiles
	return nil
}

// SurfaceToMesh samples the surface into a polygon mesh transform. The
// vertices are taken in world space, one row per span boundary.
func (s *Scene) SurfaceToMesh(name string, surface scene.Node) (scene.Node, error) {
	sh, err := s.surfaceShapeOf(surface)
	if err != nil {
		return nil, err
	}
	t, err := s.createDAGNode(name, scene.KindTransform, nil)
	if err != nil {
		return nil, err
	}
	mesh, err := s.newNode(s.uniqueName(name+"Shape"), scene.KindMesh)
	if err != nil {
		return nil, err
	}
	mesh.owner = t
	t.shapes = append(t.shapes, mesh)

	rows := sh.surf.spansU() + 1
	cols := len(sh.surf.profiles[0])
	for i := 0; i < rows; i++ {
		u := float64(i) / float64(rows-1)
		for j := 0; j < cols; j++ {
			v := float64(j) / float64(cols-1)
			pt, err := s.EvalSurface(sh, u, v)
			if err != nil {
				return nil, err
			}
			mesh.meshVerts = append(mesh.meshVerts, pt.Position)
		}
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Follicles
// ---------------------------------------------------------------------------

// CreateFollicle pins a transform to the surface at (u, v) and returns
// it. The follicle shape's output drives the transform's translate and
// rotate channels through live connections.
func (s *Scene) CreateFollicle(name string, surface scene.Node, u, v float64) (scene.Node, error) {
	sh, err := s.surfaceShapeOf(surface)
	if err != nil {
		return nil, err
	}
	t, err := s.createDAGNode(name, scene.KindTransform, nil)
	if err != nil {
		return nil, err
	}
	fol, err := s.newNode(s.uniqueName(name+"Shape"), scene.KindFollicle)
	if err != nil {
		return nil, err
	}
	fol.owner = t
	fol.folSurface = sh
	fol.folU = clamp01(u)
	fol.folV = clamp01(v)
	t.shapes = append(t.shapes, fol)

	s.conns[plug{t, "translate"}] = plug{fol, "outTranslate"}
	s.conns[plug{t, "rotate"}] = plug{fol, "outRotate"}
	return t, nil
}

// follicleShapeOf accepts either a follicle shape or its transform.
func (s *Scene) follicleShapeOf(h scene.Node) (*node, error) {
	n, err := s.resolve(h)
	if err != nil {
		return nil, err
	}
	if n.kind == scene.KindFollicle {
		return n, nil
	}
	for _, sh := range n.shapes {
		if sh.kind == scene.KindFollicle {
			return sh, nil
		}
	}
	return nil, fmt.Errorf("memscene: %w: %q carries no follicle shape", scene.ErrWrongKind, n.name)
}

// SetFollicleParams repositions a follicle on its surface.
func (s *Scene) SetFollicleParams(follicle scene.Node, u, v float64) error {
	fol, err := s.follicleShapeOf(follicle)
	if err != nil {
		return err
	}
	fol.folU = clamp01(u)
	fol.folV = clamp01(v)
	return nil
}

// evalFollicle samples the follicle's surface at its parameters.
func (s *Scene) evalFollicle(fol *node) (scene.SurfacePoint, error) {
	if fol.folSurface == nil {
		return scene.SurfacePoint{}, fmt.Errorf("memscene: follicle %q has no surface", fol.name)
	}
	if s.nodes[fol.folSurface.name] != fol.folSurface {
		return scene.SurfacePoint{}, fmt.Errorf("memscene: %w: surface of follicle %q", scene.ErrNotFound, fol.name)
	}
	return s.EvalSurface(fol.folSurface, fol.folU, fol.folV)
}
