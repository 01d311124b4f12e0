// Package registration estimates rigid transformations between two point
// clouds from a given set of point correspondences.
//
// Estimators are stateless. They only read the clouds and the correspondence
// set, and the caller must keep both unchanged during a call. Searching
// correspondences and iterating until convergence is left to the caller.
package registration

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
)

var (
	// ErrIndexOutOfRange is returned when a correspondence refers to a point
	// which does not exist in the cloud.
	ErrIndexOutOfRange = errors.New("correspondence index out of range")
	// ErrNoNormals is returned when the estimator requires target normals
	// but the cloud does not have them.
	ErrNoNormals = errors.New("target normals are not available")
	// ErrDegenerateSystem is returned when the correspondences do not
	// constrain all degrees of freedom of the transformation.
	ErrDegenerateSystem = errors.New("degenerate linear system")
	// ErrUnsupportedEstimationType is returned when no estimator is
	// implemented for the requested type.
	ErrUnsupportedEstimationType = errors.New("unsupported transformation estimation type")
)

// TransformationEstimationType identifies the estimation method.
type TransformationEstimationType int

const (
	Unspecified TransformationEstimationType = iota
	PointToPoint
	PointToPlane
	ColoredICP
)

var estimationTypeNames = map[TransformationEstimationType]string{
	Unspecified:  "Unspecified",
	PointToPoint: "PointToPoint",
	PointToPlane: "PointToPlane",
	ColoredICP:   "ColoredICP",
}

func (t TransformationEstimationType) String() string {
	if s, ok := estimationTypeNames[t]; ok {
		return s
	}
	return "TransformationEstimationType(" + strconv.Itoa(int(t)) + ")"
}

// ParseTransformationEstimationType accepts both the String() form
// (e.g. "PointToPlane") and the snake case form (e.g. "point_to_plane").
func ParseTransformationEstimationType(s string) (TransformationEstimationType, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for t, name := range estimationTypeNames {
		if strings.ToLower(name) == key {
			return t, nil
		}
	}
	return Unspecified, errors.Errorf("unknown transformation estimation type %q", s)
}

// Cloud is a read-only point cloud consumed by the estimators.
type Cloud interface {
	pc.Vec3RandomAccessor
	// NormalAccessor returns per-point normals or nil if the cloud has no
	// normals.
	NormalAccessor() pc.Vec3RandomAccessor
}

type cloud struct {
	pc.Vec3RandomAccessor
	normals pc.Vec3RandomAccessor
}

func (c *cloud) NormalAccessor() pc.Vec3RandomAccessor {
	return c.normals
}

// NewCloud wraps position and optional normal accessors, e.g. a pcgol
// iterator or an indice accessor selecting a subset of points.
func NewCloud(points, normals pc.Vec3RandomAccessor) Cloud {
	return &cloud{Vec3RandomAccessor: points, normals: normals}
}

// TransformationEstimation computes a rigid transformation aligning the
// source cloud to the target cloud.
type TransformationEstimation interface {
	EstimationType() TransformationEstimationType
	// ComputeRMSE returns the alignment error of the untransformed clouds
	// over the correspondences. It returns 0 for an empty set.
	ComputeRMSE(source, target Cloud, corres CorrespondenceSet) (float32, error)
	// ComputeTransformation returns the transformation to be applied to the
	// source cloud. It returns identity for an empty set.
	ComputeTransformation(source, target Cloud, corres CorrespondenceSet) (mat.Mat4, error)
}

// NewTransformationEstimation returns the estimator of the given type.
func NewTransformationEstimation(t TransformationEstimationType) (TransformationEstimation, error) {
	switch t {
	case PointToPoint:
		return NewTransformationEstimationPointToPoint(), nil
	case PointToPlane:
		return NewTransformationEstimationPointToPlane(), nil
	default:
		return nil, errors.Wrap(ErrUnsupportedEstimationType, t.String())
	}
}

// Identity returns 4x4 identity matrix.
func Identity() mat.Mat4 {
	return mat.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func validateIndices(source, target Cloud, corres CorrespondenceSet) error {
	return corres.Validate(source.Len(), target.Len())
}
