package control

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/armature/pkg/scene"
	"github.com/chazu/armature/pkg/shapelib"
)

// generator instantiates one kind's geometry and sets c.node. Shape
// orientation toward the requested normal happens afterwards in Create.
type generator func(c *Control) error

var generators = map[Kind]generator{
	KindCircle:     genCircle,
	KindSquare:     genSquare,
	KindCross:      genCross,
	KindArrow:      genArrow,
	KindTriangle:   genTriangle,
	KindHalfCircle: genHalfCircle,
	KindText:       genText,
	KindPin:        genLibrary("pin"),
	KindPinDouble:  genLibrary("pinDouble"),
	KindSphere:     genSphere,
	KindButton:     genButton,
	KindOrient:     genOrient,
	KindCube:       genCube,
	KindCubeFK:     genCubeFK,
	KindGear:       genGear,
	KindRing:       genRing,
	KindRingSphere: genRingSphere,
	KindPyramid:    genPyramid,
	KindSlider:     genSlider,
	KindOsipa:      genOsipa,
}

// createFromLoops makes the control transform with one curve shape per
// loop.
func createFromLoops(c *Control, loops [][]v3.Vec) error {
	if len(loops) == 0 {
		return fmt.Errorf("kind %s produced no geometry", c.kind)
	}
	t, err := c.sc.CreateCurve(c.name, nil, loops[0])
	if err != nil {
		return err
	}
	for _, loop := range loops[1:] {
		if _, err := c.sc.AttachCurve(t, loop); err != nil {
			return err
		}
	}
	c.node = t
	return nil
}

// libLoops pulls a shape entry from the process library.
func libLoops(key string) ([][]v3.Vec, error) {
	entry, err := shapelib.Default().Shape(key)
	if err != nil {
		return nil, err
	}
	loops := make([][]v3.Vec, len(entry))
	for i, l := range entry {
		loops[i] = l.Points
	}
	return loops, nil
}

func mapLoops(loops [][]v3.Vec, f func([]v3.Vec) []v3.Vec) [][]v3.Vec {
	out := make([][]v3.Vec, len(loops))
	for i, l := range loops {
		out[i] = f(l)
	}
	return out
}

// genLibrary builds a kind straight from its library entry.
func genLibrary(key string) generator {
	return func(c *Control) error {
		loops, err := libLoops(key)
		if err != nil {
			return err
		}
		return createFromLoops(c, loops)
	}
}

func genCircle(c *Control) error {
	return createFromLoops(c, [][]v3.Vec{circlePoints(16, 1, XPos)})
}

func genSquare(c *Control) error {
	return createFromLoops(c, [][]v3.Vec{squarePoints(1)})
}

func genTriangle(c *Control) error {
	return createFromLoops(c, [][]v3.Vec{trianglePoints(1)})
}

func genHalfCircle(c *Control) error {
	return createFromLoops(c, [][]v3.Vec{halfCirclePoints(16, 1)})
}

func genCross(c *Control) error {
	loops, err := libLoops("cross")
	if err != nil {
		return err
	}
	loops = mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return scalePoints(rotatePoints(pts, v3.Vec{Z: 90}), uniform(0.45))
	})
	return createFromLoops(c, loops)
}

func genArrow(c *Control) error {
	loops, err := libLoops("arrow")
	if err != nil {
		return err
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return scalePoints(pts, uniform(0.45))
	}))
}

func genOrient(c *Control) error {
	loops, err := libLoops("orient")
	if err != nil {
		return err
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return rotatePoints(pts, v3.Vec{Z: -90})
	}))
}

func genCube(c *Control) error {
	loops, err := libLoops("cube")
	if err != nil {
		return err
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return scalePoints(pts, uniform(1.4))
	}))
}

func genCubeFK(c *Control) error {
	loops, err := libLoops("cube")
	if err != nil {
		return err
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return movePoints(scalePoints(pts, uniform(1.4)), v3.Vec{X: 0.7})
	}))
}

func genGear(c *Control) error {
	loops, err := libLoops("gear")
	if err != nil {
		return err
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return scalePoints(pts, uniform(0.9))
	}))
}

// sphereLoops is three unit circles, one per axis plane.
func sphereLoops() [][]v3.Vec {
	return [][]v3.Vec{
		circlePoints(16, 1, XPos),
		circlePoints(16, 1, YPos),
		circlePoints(16, 1, ZPos),
	}
}

func genSphere(c *Control) error {
	return createFromLoops(c, sphereLoops())
}

func genButton(c *Control) error {
	half := halfCirclePoints(16, 1)
	loops := [][]v3.Vec{half, rotatePoints(half, v3.Vec{Y: 90})}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return rotatePoints(pts, v3.Vec{Z: -90})
	}))
}

func genRing(c *Control) error {
	circle := circlePoints(16, 1, XPos)
	loops := [][]v3.Vec{
		movePoints(circle, v3.Vec{X: 1}),
		movePoints(circle, v3.Vec{X: -1}),
		{{X: 1, Z: 1}, {X: -1, Z: 1}},
		{{X: 1, Z: -1}, {X: -1, Z: -1}},
		{{X: 1, Y: 1}, {X: -1, Y: 1}},
		{{X: 1, Y: -1}, {X: -1, Y: -1}},
	}
	return createFromLoops(c, mapLoops(loops, func(pts []v3.Vec) []v3.Vec {
		return scalePoints(pts, v3.Vec{X: 0.2, Y: 1, Z: 1})
	}))
}

func genRingSphere(c *Control) error {
	var loops [][]v3.Vec
	for i := 0; i < 4; i++ {
		spin := v3.Vec{X: 90 * float64(i)}
		for _, circle := range sphereLoops() {
			pts := movePoints(scalePoints(circle, uniform(0.2)), v3.Vec{Z: 1})
			loops = append(loops, rotatePoints(pts, spin))
		}
	}
	return createFromLoops(c, loops)
}

func genPyramid(c *Control) error {
	t1 := trianglePoints(1)
	t2 := rotatePoints(t1, v3.Vec{Y: 90})
	base := movePoints(
		scalePoints(rotatePoints(squarePoints(1), v3.Vec{X: 45, Z: 90}), uniform(0.865)),
		v3.Vec{Y: -0.498})
	loops := mapLoops([][]v3.Vec{t1, t2, base}, func(pts []v3.Vec) []v3.Vec {
		return rotatePoints(scalePoints(movePoints(pts, v3.Vec{Y: 0.5}), uniform(0.65)), v3.Vec{Z: -90})
	})
	return createFromLoops(c, loops)
}

func genText(c *Control) error {
	text := c.Text
	if text == "" {
		text = c.name
	}
	const width, height, gap = 0.6, 1.0, 0.2
	runes := []rune(text)
	total := float64(len(runes))*width + float64(len(runes)-1)*gap
	var loops [][]v3.Vec
	z := total / 2
	for _, r := range runes {
		if r != ' ' {
			// One outline box per glyph, facing +X, reading left to
			// right from the front.
			loops = append(loops, []v3.Vec{
				{Y: -height / 2, Z: z},
				{Y: -height / 2, Z: z - width},
				{Y: height / 2, Z: z - width},
				{Y: height / 2, Z: z},
				{Y: -height / 2, Z: z},
			})
		}
		z -= width + gap
	}
	if len(loops) == 0 {
		return fmt.Errorf("text %q has no drawable glyphs", text)
	}
	return createFromLoops(c, loops)
}

// genSlider builds a vertical travel guide with a small diamond handle
// riding it. The guide is display-referenced so only the handle is
// selectable; the handle keeps translateY free and everything else
// locked.
func genSlider(c *Control) error {
	lo, hi := c.Limits[0], c.Limits[1]
	guide, err := c.sc.CreateCurve(c.name, nil, []v3.Vec{{Y: lo}, {Y: hi}})
	if err != nil {
		return err
	}
	handlePts := []v3.Vec{{Y: 1}, {X: 1}, {Y: -1}, {X: -1}, {Y: 1}}
	handlePts = scalePoints(rotatePoints(handlePts, v3.Vec{X: 90, Y: 45, Z: 90}), v3.Vec{X: 0, Y: 0.1, Z: 0.25})
	handle, err := c.sc.CreateCurve(c.name+"_slider", guide, handlePts)
	if err != nil {
		return err
	}
	for _, sh := range c.sc.Shapes(guide) {
		if err := c.sc.SetAttr(sh, scene.AttrOverrideEnabled, true); err != nil {
			return err
		}
		if err := c.sc.SetAttr(sh, scene.AttrOverrideDisplay, 2); err != nil {
			return err
		}
	}
	for _, ch := range []string{
		scene.AttrScaleX, scene.AttrScaleY, scene.AttrScaleZ,
		"rotateX", "rotateY", "rotateZ",
		scene.AttrVisibility, "translateX", "translateZ",
	} {
		if err := c.sc.LockAndHide(handle, ch); err != nil {
			return err
		}
	}
	c.node = guide
	return nil
}

// genOsipa builds the two-axis picker: a display-referenced square
// frame with a smaller diamond handle free on Y and Z.
func genOsipa(c *Control) error {
	frame, err := c.sc.CreateCurve(c.name, nil, scalePoints(squarePoints(1), uniform(14)))
	if err != nil {
		return err
	}
	handlePts := rotatePoints(scalePoints(squarePoints(1), uniform(2)), v3.Vec{X: 45})
	handle, err := c.sc.CreateCurve(c.name+"_slider", frame, handlePts)
	if err != nil {
		return err
	}
	if err := c.sc.SetScale(frame, uniform(0.1)); err != nil {
		return err
	}
	for _, sh := range c.sc.Shapes(frame) {
		if err := c.sc.SetAttr(sh, scene.AttrOverrideEnabled, true); err != nil {
			return err
		}
		if err := c.sc.SetAttr(sh, scene.AttrOverrideDisplay, 2); err != nil {
			return err
		}
	}
	if err := c.sc.LockAndHide(frame, scene.AttrVisibility); err != nil {
		return err
	}
	for _, ch := range []string{
		"translateX", "rotateX", "rotateY", "rotateZ",
		scene.AttrScaleX, scene.AttrScaleY, scene.AttrScaleZ,
		scene.AttrVisibility,
	} {
		if err := c.sc.LockAndHide(handle, ch); err != nil {
			return err
		}
	}
	c.node = frame
	return nil
}
