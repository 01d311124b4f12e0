package registration

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
)

func TestPointToPoint_ComputeTransformation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	testCases := map[string]struct {
		n      int
		maxAng float64
	}{
		"Small": {n: 10, maxAng: 0.2},
		"Large rotation": {
			n:      100,
			maxAng: math.Pi * 0.9,
		},
		"Parallel reduction": {
			n:      3*reduceChunkSize + 17,
			maxAng: math.Pi * 0.5,
		},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			src := &dummyCloud{points: randomPoints(rng, tt.n)}
			gt := randomRigidTransform(rng, tt.maxAng)
			tgt := src.transform(gt)
			corres := NewIdentityCorrespondenceSet(tt.n)

			e := NewTransformationEstimationPointToPoint()
			m, err := e.ComputeTransformation(src, tgt, corres)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			expectMat4Near(t, gt, m, 1e-4)
			expectOrthonormal(t, m)

			rmse, err := e.ComputeRMSE(src.transform(m), tgt, corres)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if rmse > 1e-4 {
				t.Errorf("Expected RMSE after alignment ~0, got: %f", rmse)
			}
		})
	}
}

func TestPointToPoint_Identity(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := &dummyCloud{points: randomPoints(rng, 50)}
	corres := NewIdentityCorrespondenceSet(50)

	e := NewTransformationEstimationPointToPoint()
	m, err := e.ComputeTransformation(src, src, corres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expectMat4Near(t, Identity(), m, 1e-5)

	rmse, err := e.ComputeRMSE(src, src, corres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rmse != 0 {
		t.Errorf("Expected RMSE 0, got: %f", rmse)
	}
}

func TestPointToPoint_ProperRotation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	mirror := func(s pc.Vec3Slice) pc.Vec3Slice {
		out := make(pc.Vec3Slice, len(s))
		for i, p := range s {
			out[i] = mat.Vec3{-p[0], p[1], p[2]}
		}
		return out
	}
	pts := randomPoints(rng, 30)

	testCases := map[string]struct {
		source, target pc.Vec3Slice
	}{
		"Unrelated": {
			source: randomPoints(rng, 30),
			target: randomPoints(rng, 30),
		},
		"Mirrored": {
			source: pts,
			target: mirror(pts),
		},
		"Single": {
			source: pc.Vec3Slice{{1, 2, 3}},
			target: pc.Vec3Slice{{-1, 0, 2}},
		},
		"Two": {
			source: pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}},
			target: pc.Vec3Slice{{0, 0, 1}, {0, 1, 1}},
		},
		"Collinear": {
			source: pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
			target: pc.Vec3Slice{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 0, 3}},
		},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			e := NewTransformationEstimationPointToPoint()
			m, err := e.ComputeTransformation(
				&dummyCloud{points: tt.source},
				&dummyCloud{points: tt.target},
				NewIdentityCorrespondenceSet(len(tt.source)),
			)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			expectOrthonormal(t, m)
		})
	}
}

func TestPointToPoint_SingleCorrespondence(t *testing.T) {
	src := &dummyCloud{points: pc.Vec3Slice{{1, 2, 3}}}
	tgt := &dummyCloud{points: pc.Vec3Slice{{-1, 0, 2}}}

	m, err := NewTransformationEstimationPointToPoint().ComputeTransformation(
		src, tgt, NewIdentityCorrespondenceSet(1),
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expectOrthonormal(t, m)
	if p := m.TransformAffine(src.points[0]); p.Sub(tgt.points[0]).Norm() > 1e-5 {
		t.Errorf("Expected the source point mapped onto %v, got: %v", tgt.points[0], p)
	}
}

func TestPointToPoint_RMSEDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const n = 200

	src := &dummyCloud{points: randomPoints(rng, n)}
	tgt := src.transform(randomRigidTransform(rng, 1.0))
	for i := range tgt.points {
		tgt.points[i] = tgt.points[i].Add(mat.Vec3{
			float32(rng.NormFloat64() * 0.01),
			float32(rng.NormFloat64() * 0.01),
			float32(rng.NormFloat64() * 0.01),
		})
	}
	corres := NewIdentityCorrespondenceSet(n)

	e := NewTransformationEstimationPointToPoint()
	before, err := e.ComputeRMSE(src, tgt, corres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	m, err := e.ComputeTransformation(src, tgt, corres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	after, err := e.ComputeRMSE(src.transform(m), tgt, corres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if after > before {
		t.Errorf("Expected RMSE not to increase, before: %f, after: %f", before, after)
	}
	if after > 0.03 {
		t.Errorf("Expected RMSE close to the noise level, got: %f", after)
	}
}

func TestPointToPoint_ComputeRMSE(t *testing.T) {
	src := &dummyCloud{points: pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}, {5, 5, 5}}}
	tgt := &dummyCloud{points: pc.Vec3Slice{{0, 0, 1}, {1, 0, 3}}}

	testCases := map[string]struct {
		corres   CorrespondenceSet
		expected float32
	}{
		"Empty": {
			corres:   CorrespondenceSet{},
			expected: 0,
		},
		"Single": {
			corres:   CorrespondenceSet{{0, 0}},
			expected: 1,
		},
		"Two": {
			corres:   CorrespondenceSet{{0, 0}, {1, 1}},
			expected: float32(math.Sqrt((1 + 9) / 2.0)),
		},
		"Shared target": {
			corres:   CorrespondenceSet{{0, 0}, {1, 0}},
			expected: float32(math.Sqrt((1 + 2) / 2.0)),
		},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			rmse, err := NewTransformationEstimationPointToPoint().ComputeRMSE(src, tgt, tt.corres)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(float64(rmse-tt.expected)) > 1e-6 {
				t.Errorf("Expected RMSE %f, got: %f", tt.expected, rmse)
			}
		})
	}
}

func TestPointToPoint_Errors(t *testing.T) {
	src := &dummyCloud{points: pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}}}
	tgt := &dummyCloud{points: pc.Vec3Slice{{0, 0, 1}}}

	testCases := map[string]CorrespondenceSet{
		"SourceOutOfRange": {{0, 0}, {2, 0}},
		"TargetOutOfRange": {{1, 1}},
		"Negative":         {{-1, 0}},
	}
	for name, corres := range testCases {
		t.Run(name, func(t *testing.T) {
			e := NewTransformationEstimationPointToPoint()
			if _, err := e.ComputeTransformation(src, tgt, corres); !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Expected ErrIndexOutOfRange, got: %v", err)
			}
			if _, err := e.ComputeRMSE(src, tgt, corres); !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Expected ErrIndexOutOfRange, got: %v", err)
			}
		})
	}
}

func TestPointToPoint_Empty(t *testing.T) {
	e := NewTransformationEstimationPointToPoint()
	empty := &dummyCloud{}

	m, err := e.ComputeTransformation(empty, empty, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m != Identity() {
		t.Errorf("Expected identity, got: %v", m)
	}
}
