package registration

import (
	"math"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	gmat "gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// TransformationEstimationPointToPoint minimizes the sum of squared
// distances between the corresponding points.
//
// The rotation is not fully determined by one or two correspondences.
// In that case a valid rotation is still returned but it is arbitrary about
// the undetermined axes.
type TransformationEstimationPointToPoint struct{}

func NewTransformationEstimationPointToPoint() *TransformationEstimationPointToPoint {
	return &TransformationEstimationPointToPoint{}
}

func (*TransformationEstimationPointToPoint) EstimationType() TransformationEstimationType {
	return PointToPoint
}

// ComputeRMSE returns sqrt(mean(|source_i - target_i|^2)).
func (*TransformationEstimationPointToPoint) ComputeRMSE(source, target Cloud, corres CorrespondenceSet) (float32, error) {
	if len(corres) == 0 {
		return 0, nil
	}
	if err := validateIndices(source, target, corres); err != nil {
		return 0, err
	}
	sum := mapReduce(len(corres),
		func(begin, end int) float64 {
			var s float64
			for _, c := range corres[begin:end] {
				d := r3.Sub(toR3(source.Vec3At(c[0])), toR3(target.Vec3At(c[1])))
				s += r3.Dot(d, d)
			}
			return s
		},
		func(a, b float64) float64 { return a + b },
	)
	return float32(math.Sqrt(sum / float64(len(corres)))), nil
}

type centroidSum struct {
	src, tgt r3.Vec
}

// ComputeTransformation solves the least squares problem in closed form
// using SVD of the cross covariance matrix.
func (*TransformationEstimationPointToPoint) ComputeTransformation(source, target Cloud, corres CorrespondenceSet) (mat.Mat4, error) {
	if len(corres) == 0 {
		return Identity(), nil
	}
	if err := validateIndices(source, target, corres); err != nil {
		return Identity(), err
	}
	n := float64(len(corres))

	cs := mapReduce(len(corres),
		func(begin, end int) centroidSum {
			var s centroidSum
			for _, c := range corres[begin:end] {
				s.src = r3.Add(s.src, toR3(source.Vec3At(c[0])))
				s.tgt = r3.Add(s.tgt, toR3(target.Vec3At(c[1])))
			}
			return s
		},
		func(a, b centroidSum) centroidSum {
			return centroidSum{src: r3.Add(a.src, b.src), tgt: r3.Add(a.tgt, b.tgt)}
		},
	)
	srcCenter := r3.Scale(1/n, cs.src)
	tgtCenter := r3.Scale(1/n, cs.tgt)

	// Cross covariance H = sum((s - cs) * (t - ct)^T), row-major.
	h := mapReduce(len(corres),
		func(begin, end int) [9]float64 {
			var h [9]float64
			for _, c := range corres[begin:end] {
				p := r3.Sub(toR3(source.Vec3At(c[0])), srcCenter)
				q := r3.Sub(toR3(target.Vec3At(c[1])), tgtCenter)
				pv := [3]float64{p.X, p.Y, p.Z}
				qv := [3]float64{q.X, q.Y, q.Z}
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						h[3*i+j] += pv[i] * qv[j]
					}
				}
			}
			return h
		},
		func(a, b [9]float64) [9]float64 {
			for i := range a {
				a[i] += b[i]
			}
			return a
		},
	)

	r, err := optimalRotation(h)
	if err != nil {
		return Identity(), err
	}

	return rigidTransform(r, r3.Sub(tgtCenter, mulRotation(r, srcCenter))), nil
}

// optimalRotation returns the proper rotation R = V * diag(1, 1, d) * U^T
// where H = U * S * V^T and d = sign(det(V * U^T)).
func optimalRotation(h [9]float64) ([9]float64, error) {
	var svd gmat.SVD
	if ok := svd.Factorize(gmat.NewDense(3, 3, h[:]), gmat.SVDFull); !ok {
		return [9]float64{}, errors.Wrap(ErrDegenerateSystem, "SVD of cross covariance did not converge")
	}
	var u, v gmat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vu gmat.Dense
	vu.Mul(&v, u.T())
	d := 1.0
	if gmat.Det(&vu) < 0 {
		d = -1.0
	}

	var rot gmat.Dense
	rot.Product(&v, gmat.NewDiagDense(3, []float64{1, 1, d}), u.T())

	var r [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = rot.At(i, j)
		}
	}
	return r, nil
}
