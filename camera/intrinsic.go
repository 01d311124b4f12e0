// Package camera provides pinhole camera intrinsic parameters.
package camera

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
)

// ErrInvalidIntrinsic is returned when serialized intrinsic parameters can
// not be decoded.
var ErrInvalidIntrinsic = errors.New("invalid camera intrinsic parameters")

// PinholeCameraIntrinsic holds the image size and the intrinsic matrix
//
//	[[fx, skew, cx],
//	 [ 0,   fy, cy],
//	 [ 0,    0,  1]]
//
// stored in row-major order.
type PinholeCameraIntrinsic struct {
	Width  int
	Height int
	Matrix [9]float32
}

// NewPinholeCameraIntrinsic returns intrinsic parameters with unset image
// size (-1) and identity matrix.
func NewPinholeCameraIntrinsic() *PinholeCameraIntrinsic {
	return &PinholeCameraIntrinsic{
		Width:  -1,
		Height: -1,
		Matrix: identity,
	}
}

var identity = [9]float32{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// PinholeCameraIntrinsicParameters selects a preset.
type PinholeCameraIntrinsicParameters int

const (
	PrimeSenseDefault PinholeCameraIntrinsicParameters = iota
	Kinect2DepthCameraDefault
	Kinect2ColorCameraDefault
)

// NewPinholeCameraIntrinsicFromPreset returns the default parameters of the
// sensor. Unknown presets give the same result as NewPinholeCameraIntrinsic.
func NewPinholeCameraIntrinsicFromPreset(p PinholeCameraIntrinsicParameters) *PinholeCameraIntrinsic {
	c := NewPinholeCameraIntrinsic()
	switch p {
	case PrimeSenseDefault:
		c.SetIntrinsics(640, 480, 525.0, 525.0, 319.5, 239.5)
	case Kinect2DepthCameraDefault:
		c.SetIntrinsics(512, 424, 254.878, 205.395, 365.456, 365.456)
	case Kinect2ColorCameraDefault:
		c.SetIntrinsics(1920, 1080, 1059.9718, 1059.9718, 975.7193, 545.9533)
	}
	return c
}

// SetIntrinsics sets the image size and resets the matrix to the given focal
// lengths and principal point without skew.
func (c *PinholeCameraIntrinsic) SetIntrinsics(width, height int, fx, fy, cx, cy float32) {
	c.Width = width
	c.Height = height
	c.Matrix = identity
	c.Matrix[0] = fx
	c.Matrix[4] = fy
	c.Matrix[2] = cx
	c.Matrix[5] = cy
}

func (c *PinholeCameraIntrinsic) FocalLength() (fx, fy float32) {
	return c.Matrix[0], c.Matrix[4]
}

func (c *PinholeCameraIntrinsic) PrincipalPoint() (cx, cy float32) {
	return c.Matrix[2], c.Matrix[5]
}

func (c *PinholeCameraIntrinsic) Skew() float32 {
	return c.Matrix[1]
}

// IsValid returns true if both width and height are positive.
func (c *PinholeCameraIntrinsic) IsValid() bool {
	return c.Width > 0 && c.Height > 0
}

// PointToPixel projects a point in the camera frame onto the image plane.
// ok is false if the point is not in front of the camera.
func (c *PinholeCameraIntrinsic) PointToPixel(p mat.Vec3) (u, v float32, ok bool) {
	if p[2] <= 0 {
		return 0, 0, false
	}
	x, y := p[0]/p[2], p[1]/p[2]
	u = c.Matrix[0]*x + c.Matrix[1]*y + c.Matrix[2]
	v = c.Matrix[4]*y + c.Matrix[5]
	return u, v, true
}

// PixelToPoint returns the point at the pixel (u, v) with the given depth.
func (c *PinholeCameraIntrinsic) PixelToPoint(u, v, depth float32) mat.Vec3 {
	y := (v - c.Matrix[5]) / c.Matrix[4]
	x := (u - c.Matrix[2] - c.Matrix[1]*y) / c.Matrix[0]
	return mat.Vec3{x * depth, y * depth, depth}
}

type intrinsicJSON struct {
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	IntrinsicMatrix []float32 `json:"intrinsic_matrix"`
}

// MarshalJSON encodes the matrix in column-major order.
func (c PinholeCameraIntrinsic) MarshalJSON() ([]byte, error) {
	v := intrinsicJSON{
		Width:           c.Width,
		Height:          c.Height,
		IntrinsicMatrix: make([]float32, 9),
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v.IntrinsicMatrix[3*j+i] = c.Matrix[3*i+j]
		}
	}
	return json.Marshal(v)
}

func (c *PinholeCameraIntrinsic) UnmarshalJSON(b []byte) error {
	var v intrinsicJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.Wrap(ErrInvalidIntrinsic, err.Error())
	}
	if len(v.IntrinsicMatrix) != 9 {
		return errors.Wrapf(ErrInvalidIntrinsic,
			"intrinsic_matrix must have 9 elements, got %d", len(v.IntrinsicMatrix))
	}
	c.Width = v.Width
	c.Height = v.Height
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c.Matrix[3*i+j] = v.IntrinsicMatrix[3*j+i]
		}
	}
	return nil
}

// LoadJSONFile reads intrinsic parameters from a JSON file.
func LoadJSONFile(path string) (*PinholeCameraIntrinsic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading camera intrinsic")
	}
	c := NewPinholeCameraIntrinsic()
	if err := json.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return c, nil
}
