package registration

import (
	"math"

	"github.com/seqsense/pcgol/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func toR3(v mat.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// mulRotation returns r * v for the row-major 3x3 rotation r.
func mulRotation(r [9]float64, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// rigidTransform builds a column-major homogeneous matrix from a row-major
// 3x3 rotation and a translation.
func rigidTransform(r [9]float64, t r3.Vec) mat.Mat4 {
	return mat.Mat4{
		float32(r[0]), float32(r[3]), float32(r[6]), 0,
		float32(r[1]), float32(r[4]), float32(r[7]), 0,
		float32(r[2]), float32(r[5]), float32(r[8]), 0,
		float32(t.X), float32(t.Y), float32(t.Z), 1,
	}
}

// eulerRotation returns Rz(gamma) * Ry(beta) * Rx(alpha) in row-major order.
// It is exact for any angle and equal to I + skew(alpha, beta, gamma) to
// first order.
func eulerRotation(alpha, beta, gamma float64) [9]float64 {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	sg, cg := math.Sincos(gamma)
	return [9]float64{
		cg * cb, cg*sb*sa - sg*ca, cg*sb*ca + sg*sa,
		sg * cb, sg*sb*sa + cg*ca, sg*sb*ca - cg*sa,
		-sb, cb * sa, cb * ca,
	}
}

// twistToTransform converts (alpha, beta, gamma, tx, ty, tz) to a rigid
// transformation rotating about the origin.
func twistToTransform(x [6]float64) mat.Mat4 {
	return twistAboutCenter(x, r3.Vec{})
}

// twistAboutCenter converts (alpha, beta, gamma, tx, ty, tz) to the rigid
// transformation p -> R * (p - center) + center + t.
func twistAboutCenter(x [6]float64, center r3.Vec) mat.Mat4 {
	r := eulerRotation(x[0], x[1], x[2])
	t := r3.Add(r3.Vec{X: x[3], Y: x[4], Z: x[5]}, r3.Sub(center, mulRotation(r, center)))
	return rigidTransform(r, t)
}
