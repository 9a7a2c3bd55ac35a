// Package ribbon builds the surface-driven joint chain module: a
// skinning rail of follicle-driven joints with stretch compensation,
// driver joints bound into the surface, circle controls feeding the
// drivers through their offset-parent-matrix, and a polygon skin
// proxy.
package ribbon

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
)

// Profile orientations for lofting a surface across a transform chain.
// Each pair is the cross-section line, in the chain transform's local
// space.
var (
	SurfaceYUp = [2]v3.Vec{{Z: 0.5}, {Z: -0.5}}
	SurfaceZUp = [2]v3.Vec{{Y: 0.5}, {Y: -0.5}}
)

// Surface wraps the ribbon's lofted surface transform. Casting by name
// is how a later session reconnects to an existing surface.
type Surface struct {
	sc   scene.Scene
	name string

	transform scene.Node
	spans     int
}

// NewSurface declares a surface by name and casts it immediately if it
// already exists.
func NewSurface(sc scene.Scene, name string) *Surface {
	s := &Surface{sc: sc, name: name}
	s.Cast()
	return s
}

func (s *Surface) Name() string          { return s.name }
func (s *Surface) Transform() scene.Node { return s.transform }
func (s *Surface) Spans() int            { return s.spans }

// Cast re-reads the named surface from the scene. A missing or
// non-surface node leaves the wrapper empty.
func (s *Surface) Cast() {
	s.transform = nil
	s.spans = 0
	if !s.sc.Exists(s.name) {
		return
	}
	n, err := s.sc.Node(s.name)
	if err != nil {
		return
	}
	spans, err := s.sc.SurfaceSpansU(n)
	if err != nil {
		return
	}
	s.transform = n
	s.spans = spans
}

// Create lofts the surface along a transform chain, one cross-section
// per chain node. A surface that already exists is kept as-is.
func (s *Surface) Create(chain []scene.Node, width float64, orient [2]v3.Vec) error {
	if s.transform != nil {
		return nil
	}
	if len(chain) < 2 {
		return fmt.Errorf("ribbon: surface %q needs at least 2 chain transforms, got %d", s.name, len(chain))
	}
	profiles := make([][]v3.Vec, len(chain))
	for i, t := range chain {
		w, err := s.sc.WorldMatrix(t)
		if err != nil {
			return err
		}
		profiles[i] = []v3.Vec{
			w.MulPosition(orient[0].MulScalar(width)),
			w.MulPosition(orient[1].MulScalar(width)),
		}
	}
	if _, err := s.sc.CreateLoftedSurface(s.name, profiles); err != nil {
		return err
	}
	s.Cast()
	return nil
}

// Rebuild resamples the surface to the required span count and drops
// its construction history.
func (s *Surface) Rebuild(spans int) error {
	if s.transform == nil {
		return fmt.Errorf("ribbon: surface %q not created", s.name)
	}
	if err := s.sc.RebuildSurface(s.transform, spans); err != nil {
		return err
	}
	if err := s.sc.DeleteHistory(s.transform); err != nil {
		return err
	}
	s.spans = spans
	return nil
}
