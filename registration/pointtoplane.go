package registration

import (
	"math"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	gmat "gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxConditionNumber is the largest condition number of the normal equations
// accepted as solvable.
const maxConditionNumber = 1e10

// TransformationEstimationPointToPlane minimizes the sum of squared
// distances between the source points and the tangent planes of the
// corresponding target points.
// The target cloud must have normals.
type TransformationEstimationPointToPlane struct{}

func NewTransformationEstimationPointToPlane() *TransformationEstimationPointToPlane {
	return &TransformationEstimationPointToPlane{}
}

func (*TransformationEstimationPointToPlane) EstimationType() TransformationEstimationType {
	return PointToPlane
}

// ComputeRMSE returns sqrt(mean(((target_i - source_i) . normal_i)^2)).
func (*TransformationEstimationPointToPlane) ComputeRMSE(source, target Cloud, corres CorrespondenceSet) (float32, error) {
	if len(corres) == 0 {
		return 0, nil
	}
	normals, err := targetNormals(source, target, corres)
	if err != nil {
		return 0, err
	}
	sum := mapReduce(len(corres),
		func(begin, end int) float64 {
			var s float64
			for _, c := range corres[begin:end] {
				r := r3.Dot(r3.Sub(toR3(target.Vec3At(c[1])), toR3(source.Vec3At(c[0]))), toR3(normals.Vec3At(c[1])))
				s += r * r
			}
			return s
		},
		func(a, b float64) float64 { return a + b },
	)
	return float32(math.Sqrt(sum / float64(len(corres)))), nil
}

// normalEquations holds J^T J (row-major 6x6) and J^T r.
type normalEquations struct {
	jtj [36]float64
	jtr [6]float64
}

// ComputeTransformation linearizes the rotation around zero and solves the
// 6x6 normal equations of (alpha, beta, gamma, tx, ty, tz).
// The rotation is taken about the centroid of the matched source points and
// the equations are Jacobi scaled before solving.
// ErrDegenerateSystem is returned if the correspondences do not constrain
// all six parameters, e.g. when all normals are parallel.
func (*TransformationEstimationPointToPlane) ComputeTransformation(source, target Cloud, corres CorrespondenceSet) (mat.Mat4, error) {
	if len(corres) == 0 {
		return Identity(), nil
	}
	normals, err := targetNormals(source, target, corres)
	if err != nil {
		return Identity(), err
	}

	sum := mapReduce(len(corres),
		func(begin, end int) r3.Vec {
			var s r3.Vec
			for _, c := range corres[begin:end] {
				s = r3.Add(s, toR3(source.Vec3At(c[0])))
			}
			return s
		},
		r3.Add,
	)
	center := r3.Scale(1/float64(len(corres)), sum)

	ne := mapReduce(len(corres),
		func(begin, end int) normalEquations {
			var ne normalEquations
			for _, c := range corres[begin:end] {
				s := toR3(source.Vec3At(c[0]))
				t := toR3(target.Vec3At(c[1]))
				n := toR3(normals.Vec3At(c[1]))

				sn := r3.Cross(r3.Sub(s, center), n)
				j := [6]float64{sn.X, sn.Y, sn.Z, n.X, n.Y, n.Z}
				r := r3.Dot(r3.Sub(t, s), n)
				for a := 0; a < 6; a++ {
					for b := a; b < 6; b++ {
						ne.jtj[6*a+b] += j[a] * j[b]
					}
					ne.jtr[a] += j[a] * r
				}
			}
			return ne
		},
		func(a, b normalEquations) normalEquations {
			for i := range a.jtj {
				a.jtj[i] += b.jtj[i]
			}
			for i := range a.jtr {
				a.jtr[i] += b.jtr[i]
			}
			return a
		},
	)
	for a := 0; a < 6; a++ {
		for b := 0; b < a; b++ {
			ne.jtj[6*a+b] = ne.jtj[6*b+a]
		}
	}

	x, err := solveNormalEquations(ne)
	if err != nil {
		return Identity(), err
	}
	return twistAboutCenter(x, center), nil
}

// solveNormalEquations solves D*JtJ*D y = D*Jtr with D = diag(JtJ)^-1/2 and
// returns x = D y.
func solveNormalEquations(ne normalEquations) ([6]float64, error) {
	var d [6]float64
	for i := range d {
		v := ne.jtj[7*i]
		if !(v > 0) {
			return [6]float64{}, errors.Wrapf(ErrDegenerateSystem, "parameter %d is not constrained", i)
		}
		d[i] = 1 / math.Sqrt(v)
	}
	var a [36]float64
	var b [6]float64
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			a[6*i+j] = d[i] * ne.jtj[6*i+j] * d[j]
		}
		b[i] = d[i] * ne.jtr[i]
	}

	var chol gmat.Cholesky
	if ok := chol.Factorize(gmat.NewSymDense(6, a[:])); !ok {
		return [6]float64{}, errors.Wrap(ErrDegenerateSystem, "normal equations are not positive definite")
	}
	if cond := chol.Cond(); cond > maxConditionNumber {
		return [6]float64{}, errors.Wrapf(ErrDegenerateSystem, "normal equations are ill-conditioned (condition number %g)", cond)
	}
	var x gmat.VecDense
	if err := chol.SolveVecTo(&x, gmat.NewVecDense(6, b[:])); err != nil {
		return [6]float64{}, errors.Wrapf(ErrDegenerateSystem, "solving normal equations: %v", err)
	}
	var out [6]float64
	for i := range out {
		out[i] = d[i] * x.AtVec(i)
	}
	return out, nil
}

func targetNormals(source, target Cloud, corres CorrespondenceSet) (pc.Vec3RandomAccessor, error) {
	normals := target.NormalAccessor()
	if normals == nil || normals.Len() == 0 {
		return nil, ErrNoNormals
	}
	if normals.Len() != target.Len() {
		return nil, errors.Wrapf(ErrNoNormals,
			"target has %d points but %d normals", target.Len(), normals.Len())
	}
	if err := validateIndices(source, target, corres); err != nil {
		return nil, err
	}
	return normals, nil
}
