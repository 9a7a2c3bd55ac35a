package control

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Canonical axis directions accepted by Create and ShapeNormal.
var (
	XPos = v3.Vec{X: 1}
	XNeg = v3.Vec{X: -1}
	YPos = v3.Vec{Y: 1}
	YNeg = v3.Vec{Y: -1}
	ZPos = v3.Vec{Z: 1}
	ZNeg = v3.Vec{Z: -1}
)

func rad(deg float64) float64 { return deg * math.Pi / 180.0 }

// eulerMatrix builds an XYZ-order rotation from Euler degrees.
func eulerMatrix(r v3.Vec) sdf.M44 {
	return sdf.RotateZ(rad(r.Z)).Mul(sdf.RotateY(rad(r.Y))).Mul(sdf.RotateX(rad(r.X)))
}

func rotatePoints(pts []v3.Vec, euler v3.Vec) []v3.Vec {
	m := eulerMatrix(euler)
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[i] = m.MulPosition(p)
	}
	return out
}

func scalePoints(pts []v3.Vec, s v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[i] = v3.Vec{X: p.X * s.X, Y: p.Y * s.Y, Z: p.Z * s.Z}
	}
	return out
}

func movePoints(pts []v3.Vec, t v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[i] = p.Add(t)
	}
	return out
}

func uniform(s float64) v3.Vec { return v3.Vec{X: s, Y: s, Z: s} }

// columnScales probes a matrix for the lengths of its basis columns.
func columnScales(m sdf.M44) v3.Vec {
	o := m.MulPosition(v3.Vec{})
	return v3.Vec{
		X: m.MulPosition(v3.Vec{X: 1}).Sub(o).Length(),
		Y: m.MulPosition(v3.Vec{Y: 1}).Sub(o).Length(),
		Z: m.MulPosition(v3.Vec{Z: 1}).Sub(o).Length(),
	}
}

// circlePoints approximates a circle of the given radius as a closed
// polyline with n segments. The circle lies in the plane whose normal
// is the given canonical axis, starting at the "top" of that plane.
func circlePoints(n int, radius float64, normal v3.Vec) []v3.Vec {
	out := make([]v3.Vec, 0, n+1)
	for i := 0; i <= n; i++ {
		a := 2 * math.Pi * float64(i%n) / float64(n)
		c, s := radius*math.Cos(a), radius*math.Sin(a)
		var p v3.Vec
		switch {
		case normal.X != 0:
			p = v3.Vec{Y: s, Z: c}
		case normal.Y != 0:
			p = v3.Vec{X: c, Z: s}
		default:
			p = v3.Vec{X: s, Y: c}
		}
		out = append(out, p)
	}
	return out
}

// diamondPoints is a 4-vertex closed loop in the plane normal to X,
// vertices on the axes at the given radius.
func diamondPoints(radius float64) []v3.Vec {
	return []v3.Vec{
		{Z: radius}, {Y: radius}, {Z: -radius}, {Y: -radius}, {Z: radius},
	}
}

// squarePoints is diamondPoints rotated 45 degrees about X.
func squarePoints(radius float64) []v3.Vec {
	return rotatePoints(diamondPoints(radius), v3.Vec{X: 45})
}

// trianglePoints is a 3-vertex closed loop in the plane normal to X.
func trianglePoints(radius float64) []v3.Vec {
	pts := make([]v3.Vec, 0, 4)
	for i := 0; i <= 3; i++ {
		a := 2 * math.Pi * float64(i%3) / 3.0
		pts = append(pts, v3.Vec{Y: radius * math.Sin(a), Z: radius * math.Cos(a)})
	}
	return pts
}

// halfCirclePoints flattens the lower half of a circle against its
// diameter, leaving the closing chord on Y=0.
func halfCirclePoints(n int, radius float64) []v3.Vec {
	pts := circlePoints(n, radius, XPos)
	for i, p := range pts {
		if p.Y < 0 {
			pts[i].Y = 0
		}
	}
	return pts
}
