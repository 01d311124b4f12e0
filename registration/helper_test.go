package registration

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"gonum.org/v1/gonum/spatial/r3"
)

type dummyCloud struct {
	points  pc.Vec3Slice
	normals pc.Vec3Slice
}

func (c *dummyCloud) Vec3At(i int) mat.Vec3 {
	return c.points[i]
}

func (c *dummyCloud) Len() int {
	return len(c.points)
}

func (c *dummyCloud) RawIndexAt(i int) int {
	return i
}

func (c *dummyCloud) NormalAccessor() pc.Vec3RandomAccessor {
	if c.normals == nil {
		return nil
	}
	return c.normals
}

func (c *dummyCloud) transform(m mat.Mat4) *dummyCloud {
	out := &dummyCloud{
		points:  make(pc.Vec3Slice, len(c.points)),
		normals: c.normals,
	}
	for i, p := range c.points {
		out.points[i] = m.TransformAffine(p)
	}
	return out
}

func randomPoints(rng *rand.Rand, n int) pc.Vec3Slice {
	out := make(pc.Vec3Slice, n)
	for i := range out {
		out[i] = mat.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
	}
	return out
}

func randomUnitVectors(rng *rand.Rand, n int) pc.Vec3Slice {
	out := make(pc.Vec3Slice, n)
	for i := range out {
		v := r3.Unit(r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
		out[i] = mat.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	return out
}

// axisAngle returns the rigid transformation rotating around axis by ang
// radians followed by translation t.
func axisAngle(axis r3.Vec, ang float64, t r3.Vec) mat.Mat4 {
	u := r3.Unit(axis)
	x, y, z := u.X, u.Y, u.Z
	s, c := math.Sincos(ang)
	r := [9]float64{
		c + x*x*(1-c), x*y*(1-c) - z*s, x*z*(1-c) + y*s,
		y*x*(1-c) + z*s, c + y*y*(1-c), y*z*(1-c) - x*s,
		z*x*(1-c) - y*s, z*y*(1-c) + x*s, c + z*z*(1-c),
	}
	return rigidTransform(r, t)
}

func randomRigidTransform(rng *rand.Rand, maxAng float64) mat.Mat4 {
	axis := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
	t := r3.Vec{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
	return axisAngle(axis, (rng.Float64()*2-1)*maxAng, t)
}

func rotationDet(m mat.Mat4) float64 {
	a := func(i, j int) float64 { return float64(m[4*j+i]) }
	return a(0, 0)*(a(1, 1)*a(2, 2)-a(1, 2)*a(2, 1)) -
		a(0, 1)*(a(1, 0)*a(2, 2)-a(1, 2)*a(2, 0)) +
		a(0, 2)*(a(1, 0)*a(2, 1)-a(1, 1)*a(2, 0))
}

func expectOrthonormal(t *testing.T, m mat.Mat4) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var dot float64
			for k := 0; k < 3; k++ {
				dot += float64(m[4*i+k]) * float64(m[4*j+k])
			}
			expected := 0.0
			if i == j {
				expected = 1
			}
			if math.Abs(dot-expected) > 1e-5 {
				t.Errorf("Rotation columns %d and %d are not orthonormal: %f", i, j, dot)
			}
		}
	}
	if d := rotationDet(m); math.Abs(d-1) > 1e-5 {
		t.Errorf("Expected rotation determinant 1, got: %f", d)
	}
	if m[3] != 0 || m[7] != 0 || m[11] != 0 || m[15] != 1 {
		t.Errorf("Expected bottom row (0, 0, 0, 1), got: %v", [4]float32{m[3], m[7], m[11], m[15]})
	}
}

func expectMat4Near(t *testing.T, expected, actual mat.Mat4, tol float64) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("Unexpected transformation (-want +got):\n%s", diff)
	}
}
