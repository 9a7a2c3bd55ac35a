package memscene

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func rad(deg float64) float64 { return deg * math.Pi / 180.0 }
func deg(rad float64) float64 { return rad * 180.0 / math.Pi }

// rotationMatrix builds an XYZ-order rotation (X applied first) from
// Euler degrees, matching the host convention for transform channels.
func rotationMatrix(r v3.Vec) sdf.M44 {
	return sdf.RotateZ(rad(r.Z)).Mul(sdf.RotateY(rad(r.Y))).Mul(sdf.RotateX(rad(r.X)))
}

// composeTRS builds a local matrix from translate, XYZ Euler degrees
// and scale.
func composeTRS(t, r, s v3.Vec) sdf.M44 {
	return sdf.Translate3d(t).Mul(rotationMatrix(r)).Mul(sdf.Scale3d(s))
}

// matrixBasis probes a matrix for its origin and basis columns. M44
// internals are not exported by sdfx, so the columns are recovered by
// transforming the unit points.
func matrixBasis(m sdf.M44) (o, x, y, z v3.Vec) {
	o = m.MulPosition(v3.Vec{})
	x = m.MulPosition(v3.Vec{X: 1}).Sub(o)
	y = m.MulPosition(v3.Vec{Y: 1}).Sub(o)
	z = m.MulPosition(v3.Vec{Z: 1}).Sub(o)
	return o, x, y, z
}

// decomposeTRS splits a matrix into translate, XYZ Euler degrees and
// scale. Shear is discarded. A negative-determinant (mirrored) matrix
// keeps its handedness by folding the flip into scale X.
func decomposeTRS(m sdf.M44) (t, r, s v3.Vec) {
	o, x, y, z := matrixBasis(m)
	t = o

	s = v3.Vec{X: x.Length(), Y: y.Length(), Z: z.Length()}
	if s.X == 0 || s.Y == 0 || s.Z == 0 {
		return t, v3.Vec{}, s
	}

	x = x.DivScalar(s.X)
	y = y.DivScalar(s.Y)
	z = z.DivScalar(s.Z)

	// det < 0 means one axis is mirrored.
	if x.Dot(y.Cross(z)) < 0 {
		s.X = -s.X
		x = x.Neg()
	}

	r = eulerFromBasis(x, y, z)
	return t, r, s
}

// eulerFromBasis extracts XYZ Euler degrees from an orthonormal basis
// given as column vectors.
func eulerFromBasis(x, y, z v3.Vec) v3.Vec {
	// With R = Rz*Ry*Rx: r20 = -sin(ry), r21 = cos(ry)sin(rx),
	// r22 = cos(ry)cos(rx), r10 = sin(rz)cos(ry), r00 = cos(rz)cos(ry).
	sy := -x.Z
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	ry := math.Asin(sy)

	var rx, rz float64
	if math.Abs(sy) < 0.9999999 {
		rx = math.Atan2(y.Z, z.Z)
		rz = math.Atan2(x.Y, x.X)
	} else {
		// Gimbal lock: fold everything into Z.
		rx = 0
		rz = math.Atan2(-y.X, y.Y)
	}
	return v3.Vec{X: deg(rx), Y: deg(ry), Z: deg(rz)}
}

// basisFromVectors builds an orthonormal basis with X aligned to dirX
// and Y as close as possible to upY, then returns it as Euler degrees.
func eulerAiming(dirX, upY v3.Vec) v3.Vec {
	x := dirX.Normalize()
	z := x.Cross(upY)
	if z.Length() < 1e-9 {
		// Degenerate up vector; pick any perpendicular.
		z = x.Cross(v3.Vec{Z: 1})
		if z.Length() < 1e-9 {
			z = x.Cross(v3.Vec{Y: 1})
		}
	}
	z = z.Normalize()
	y := z.Cross(x).Normalize()
	return eulerFromBasis(x, y, z)
}

// nearEqual compares floats with the tolerance used across memscene.
func nearEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
