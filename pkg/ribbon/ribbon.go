package ribbon

import (
	"fmt"
	"strings"

	"github.com/chazu/armature/pkg/control"
	"github.com/chazu/armature/pkg/rig"
	"github.com/chazu/armature/pkg/scene"
)

// Ribbon is a rig module that drives a joint chain from a lofted
// surface. Joint and control counts derive from the surface's span
// count:
//
//	nJoints = spans*sectionJoints + spans + 1   (sectionJoints > 0)
//	        = spans + 1                          (sectionJoints == 0)
//	nCtrl   = ctrlQuantity                       (ctrlQuantity > 0)
//	        = spans + 1                          (ctrlQuantity == 0)
type Ribbon struct {
	*rig.Module

	sc      scene.Scene
	surface scene.Node

	nJoints int
	nCtrl   int

	skinJoints []scene.Node
	controls   []*control.Control
	skinProxy  scene.Node
}

// NewRibbon validates the configuration and derives the counts. All
// parameter errors surface here, before any scene mutation, so a failed
// configuration never leaves partial structure behind.
func NewRibbon(sc scene.Scene, name string, surface scene.Node, sectionJoints, ctrlQuantity int) (*Ribbon, error) {
	if sectionJoints < 0 || ctrlQuantity < 0 {
		return nil, fmt.Errorf("ribbon %q: negative counts (sectionJoints=%d, ctrlQuantity=%d)", name, sectionJoints, ctrlQuantity)
	}
	spans, err := sc.SurfaceSpansU(surface)
	if err != nil {
		return nil, fmt.Errorf("ribbon %q: %w", name, err)
	}
	if spans == 0 {
		return nil, fmt.Errorf("ribbon %q: surface %s has zero spans", name, surface.Name())
	}

	nJoints := spans + 1
	if sectionJoints != 0 {
		nJoints = spans*sectionJoints + spans + 1
	}
	nCtrl := ctrlQuantity
	if ctrlQuantity == 0 {
		nCtrl = spans + 1
	}
	// The uniform factor i/(n-1) needs at least two samples at each
	// rail.
	if nJoints < 2 {
		return nil, fmt.Errorf("ribbon %q: joint count %d, need at least 2", name, nJoints)
	}
	if nCtrl < 2 {
		return nil, fmt.Errorf("ribbon %q: control count %d, need at least 2", name, nCtrl)
	}

	return &Ribbon{
		Module:  rig.NewModule(sc, name),
		sc:      sc,
		surface: surface,
		nJoints: nJoints,
		nCtrl:   nCtrl,
	}, nil
}

func (r *Ribbon) JointCount() int   { return r.nJoints }
func (r *Ribbon) ControlCount() int { return r.nCtrl }

// SkinJoints returns the final deformation joints.
func (r *Ribbon) SkinJoints() []scene.Node { return append([]scene.Node(nil), r.skinJoints...) }

// RibbonControls returns the circle controls driving the surface.
func (r *Ribbon) RibbonControls() []*control.Control {
	return append([]*control.Control(nil), r.controls...)
}

// SkinProxy returns the polygon proxy mesh, once built.
func (r *Ribbon) SkinProxy() scene.Node { return r.skinProxy }

// Build creates the module structure, then the skinning rail, the
// driver rail, the controls and the skin proxy, and finally hides the
// surface inside the module.
func (r *Ribbon) Build() error {
	if err := r.Module.Build(); err != nil {
		return err
	}
	if err := r.buildSkinningRail(); err != nil {
		return err
	}
	drivers, err := r.buildDrivers()
	if err != nil {
		return err
	}
	if err := r.buildControls(drivers); err != nil {
		return err
	}
	if err := r.buildSkinProxy(); err != nil {
		return err
	}
	return r.sc.Parent(r.surface, r.Hidden())
}

// uniformFactor spreads n samples over [0, 1] inclusive.
func uniformFactor(i, n int) float64 {
	return float64(i) / float64(n-1)
}

// buildSkinningRail pins one skinning joint per uniform factor to the
// surface. Each joint follows a skin follicle at the surface center
// line; a reference follicle at the surface edge measures the rest
// width, and the live distance between the pair scales the joint
// uniformly, preserving volume under stretch.
func (r *Ribbon) buildSkinningRail() error {
	sknGrp, err := r.sc.CreateTransform(r.Name()+"_skinning", nil)
	if err != nil {
		return err
	}
	folGrp, err := r.sc.CreateTransform(r.Name()+"_follicles", nil)
	if err != nil {
		return err
	}
	refGrp, err := r.sc.CreateTransform(r.Name()+"_ref_follicles", folGrp)
	if err != nil {
		return err
	}
	skinFolGrp, err := r.sc.CreateTransform(r.Name()+"_skin_follicles", folGrp)
	if err != nil {
		return err
	}
	for _, grp := range []scene.Node{refGrp, skinFolGrp} {
		if err := r.sc.SetAttr(grp, scene.AttrInheritsTransform, false); err != nil {
			return err
		}
	}
	if err := r.RegisterSubSystem(sknGrp, false); err != nil {
		return err
	}
	if err := r.RegisterSubSystem(folGrp, false); err != nil {
		return err
	}

	for i := 0; i < r.nJoints; i++ {
		factor := uniformFactor(i, r.nJoints)
		base := fmt.Sprintf("%s_%03d", r.Name(), i)

		folSkin, err := r.sc.CreateFollicle(base+"_fol_skin", r.surface, factor, 0.5)
		if err != nil {
			return err
		}
		folRef, err := r.sc.CreateFollicle(base+"_fol_ref", r.surface, factor, 1.0)
		if err != nil {
			return err
		}

		scaleOffset, err := r.sc.CreateTransform(base+"_scale", folSkin)
		if err != nil {
			return err
		}
		if err := r.setupStretchScaling(folSkin, folRef, scaleOffset); err != nil {
			return err
		}

		joint, err := r.sc.CreateJoint(base+"_skn", nil)
		if err != nil {
			return err
		}
		if err := r.sc.Connect(scaleOffset, scene.AttrWorldMatrix, joint, scene.AttrOffsetParent); err != nil {
			return err
		}
		r.skinJoints = append(r.skinJoints, joint)

		if err := r.sc.Parent(folSkin, skinFolGrp); err != nil {
			return err
		}
		if err := r.sc.Parent(folRef, refGrp); err != nil {
			return err
		}
	}

	if err := r.sc.SetAttr(folGrp, scene.AttrVisibility, false); err != nil {
		return err
	}
	for _, j := range r.skinJoints {
		if err := r.sc.Parent(j, sknGrp); err != nil {
			return err
		}
	}
	return r.RegisterJoints(r.skinJoints...)
}

// setupStretchScaling drives driven's uniform scale from the live
// distance between the two follicles divided by their rest distance.
func (r *Ribbon) setupStretchScaling(driverA, driverB, driven scene.Node) error {
	dist, err := r.sc.CreateDistanceBetween(driven.Name() + "_distance")
	if err != nil {
		return err
	}
	if err := r.sc.Connect(driverA, scene.AttrWorldMatrix, dist, scene.AttrInMatrix1); err != nil {
		return err
	}
	if err := r.sc.Connect(driverB, scene.AttrWorldMatrix, dist, scene.AttrInMatrix2); err != nil {
		return err
	}

	ratio, err := r.sc.CreateMultiplyDivide(driven.Name() + "_MD")
	if err != nil {
		return err
	}
	if err := r.sc.SetAttr(ratio, scene.AttrOperation, 2); err != nil {
		return err
	}
	if err := r.sc.Connect(dist, scene.AttrDistance, ratio, scene.AttrInput1X); err != nil {
		return err
	}
	rest, err := r.sc.Attr(dist, scene.AttrDistance)
	if err != nil {
		return err
	}
	if err := r.sc.SetAttr(ratio, scene.AttrInput2X, rest); err != nil {
		return err
	}
	for _, ch := range []string{scene.AttrScaleX, scene.AttrScaleY, scene.AttrScaleZ} {
		if err := r.sc.Connect(ratio, scene.AttrOutputX, driven, ch); err != nil {
			return err
		}
	}
	return nil
}

// buildDrivers distributes driver joints along the surface and binds
// them into the surface's own skin cluster, one influence per point, so
// moving a driver deforms the surface.
func (r *Ribbon) buildDrivers() ([]scene.Node, error) {
	driverRoot, err := r.sc.CreateTransform(r.Name()+"_drivers", nil)
	if err != nil {
		return nil, err
	}
	if err := r.sc.SetAttr(driverRoot, scene.AttrInheritsTransform, false); err != nil {
		return nil, err
	}
	if err := r.RegisterSubSystem(driverRoot, false); err != nil {
		return nil, err
	}

	folTemp, err := r.sc.CreateFollicle(r.Name()+"_temp", r.surface, 0, 0.5)
	if err != nil {
		return nil, err
	}
	drivers := make([]scene.Node, 0, r.nCtrl)
	for j := 0; j < r.nCtrl; j++ {
		if err := r.sc.SetFollicleParams(folTemp, uniformFactor(j, r.nCtrl), 0.5); err != nil {
			return nil, err
		}
		driver, err := r.sc.CreateJoint(fmt.Sprintf("%s_%03d_drv", r.Name(), j), nil)
		if err != nil {
			return nil, err
		}
		if err := r.sc.SetAttr(driver, scene.AttrRadius, 2.0); err != nil {
			return nil, err
		}
		// Freeze the sample into the offset-parent-matrix: the driver
		// lands on the follicle with all transform channels at rest.
		sample, err := r.sc.WorldMatrix(folTemp)
		if err != nil {
			return nil, err
		}
		if err := r.sc.SetAttr(driver, scene.AttrOffsetParent, sample); err != nil {
			return nil, err
		}
		if err := r.sc.Parent(driver, driverRoot); err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	if err := r.sc.Delete(folTemp); err != nil {
		return nil, err
	}

	skin, err := r.sc.CreateSkinCluster(r.Name()+"_surface_skinCluster", r.surface, drivers, 1)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterDeformers(skin); err != nil {
		return nil, err
	}
	return drivers, nil
}

// buildControls creates one circle control per driver and routes the
// control's world matrix into the driver's offset-parent-matrix, then
// restores the driver's placement. The driver ends up algebraically
// composed from the control with clean transform channels, instead of
// constrained.
func (r *Ribbon) buildControls(drivers []scene.Node) error {
	controlRoot, err := r.sc.CreateTransform(r.Name()+"_controls", nil)
	if err != nil {
		return err
	}
	if err := r.RegisterSubSystem(controlRoot, true); err != nil {
		return err
	}

	for _, driver := range drivers {
		name := strings.TrimSuffix(driver.Name(), "_drv") + control.Suffix
		c := control.New(r.sc, control.KindCircle, name)
		if err := c.Create(control.XPos); err != nil {
			return err
		}
		if err := c.AlignTo(driver); err != nil {
			return err
		}
		if err := c.CreateOffset(control.RootSuffix); err != nil {
			return err
		}

		placed, err := r.sc.WorldMatrix(driver)
		if err != nil {
			return err
		}
		if err := r.sc.Connect(c.Node(), scene.AttrWorldMatrix, driver, scene.AttrOffsetParent); err != nil {
			return err
		}
		if err := r.sc.SetWorldMatrix(driver, placed); err != nil {
			return err
		}

		if err := r.RegisterControls(c.Node()); err != nil {
			return err
		}
		if err := r.sc.Parent(c.Offset(), controlRoot); err != nil {
			return err
		}
		r.controls = append(r.controls, c)
	}
	return nil
}

// buildSkinProxy converts the surface to a coarse polygon mesh bound to
// the skinning joints, giving downstream binding a simple target.
func (r *Ribbon) buildSkinProxy() error {
	proxy, err := r.sc.SurfaceToMesh(r.Name()+"_skin_proxy", r.surface)
	if err != nil {
		return err
	}
	if err := r.sc.DeleteHistory(proxy); err != nil {
		return err
	}
	skin, err := r.sc.CreateSkinCluster(r.Name()+"_proxy_skinCluster", proxy, r.skinJoints, 5)
	if err != nil {
		return err
	}
	r.skinProxy = proxy
	if err := r.RegisterSubSystem(proxy, false); err != nil {
		return err
	}
	if err := r.RegisterDeformers(skin); err != nil {
		return err
	}
	return r.sc.AddSetMembers(r.RootSet(), proxy)
}
