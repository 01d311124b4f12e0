package geometry

import (
	"io"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
)

var normalFields = [3]string{"normal_x", "normal_y", "normal_z"}

// ErrUnsupportedField is returned when a PCD field has a layout which can
// not be read as a 32bit value.
var ErrUnsupportedField = errors.New("unsupported PCD field")

// hasField reports whether the field exists and holds a single 32bit value.
func hasField(pp *pc.PointCloud, name string) (bool, error) {
	for i, fn := range pp.Fields {
		if fn != name {
			continue
		}
		if pp.Size[i] != 4 || pp.Count[i] != 1 {
			return false, errors.Wrapf(ErrUnsupportedField,
				"%s: size %d, count %d", name, pp.Size[i], pp.Count[i])
		}
		return true, nil
	}
	return false, nil
}

// FromPCD converts a pcgol point cloud. Normals are read from
// normal_x/normal_y/normal_z and colors from packed rgb if present.
func FromPCD(pp *pc.PointCloud) (*PointCloud, error) {
	if pp.Points == 0 || len(pp.Data) == 0 {
		return &PointCloud{}, nil
	}
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "reading positions")
	}
	n := pp.Points
	if it.Len() < n {
		n = it.Len()
	}
	if len(pp.Data) < n*pp.Stride() {
		return nil, errors.Errorf("PCD data is truncated: %d bytes for %d points", len(pp.Data), n)
	}

	out := &PointCloud{
		Points: make(pc.Vec3Slice, n),
	}
	for i := 0; i < n; i++ {
		out.Points[i] = it.Vec3At(i)
	}

	var found int
	for _, name := range normalFields {
		ok, err := hasField(pp, name)
		if err != nil {
			return nil, err
		}
		if ok {
			found++
		}
	}
	switch found {
	case 0:
	case 3:
		nits, err := pp.Float32Iterators(normalFields[:]...)
		if err != nil {
			return nil, err
		}
		out.Normals = make(pc.Vec3Slice, n)
		for i := 0; i < n; i++ {
			out.Normals[i] = mat.Vec3{nits[0].Float32At(i), nits[1].Float32At(i), nits[2].Float32At(i)}
		}
	default:
		return nil, errors.Wrap(ErrUnsupportedField, "normal fields are incomplete")
	}

	ok, err := hasField(pp, "rgb")
	if err != nil {
		return nil, err
	}
	if ok {
		cit, err := pp.Uint32Iterator("rgb")
		if err != nil {
			return nil, err
		}
		out.Colors = make(pc.Vec3Slice, n)
		for i := 0; i < n; i++ {
			out.Colors[i] = unpackRGB(cit.Uint32At(i))
		}
	}
	return out, nil
}

func unpackRGB(v uint32) mat.Vec3 {
	return mat.Vec3{
		float32((v>>16)&0xFF) / 255,
		float32((v>>8)&0xFF) / 255,
		float32(v&0xFF) / 255,
	}
}

// ToPCD converts the cloud to binary PCD layout with x/y/z and, if present,
// normal_x/normal_y/normal_z fields.
func (p *PointCloud) ToPCD() (*pc.PointCloud, error) {
	fields := []string{"x", "y", "z"}
	if p.HasNormals() {
		fields = append(fields, normalFields[:]...)
	}
	n := len(fields)
	header := pc.PointCloudHeader{
		Version:   0.7,
		Fields:    fields,
		Size:      make([]int, n),
		Type:      make([]string, n),
		Count:     make([]int, n),
		Width:     p.Len(),
		Height:    1,
		Viewpoint: []float32{0, 0, 0, 1, 0, 0, 0},
	}
	for i := range fields {
		header.Size[i] = 4
		header.Type[i] = "F"
		header.Count[i] = 1
	}
	pp := &pc.PointCloud{
		PointCloudHeader: header,
		Points:           p.Len(),
	}
	pp.Data = make([]byte, p.Len()*pp.Stride())
	if p.Len() == 0 {
		return pp, nil
	}

	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, err
	}
	for _, v := range p.Points {
		it.SetVec3(v)
		it.Incr()
	}
	if p.HasNormals() {
		nits, err := pp.Float32Iterators(normalFields[:]...)
		if err != nil {
			return nil, err
		}
		for _, v := range p.Normals {
			for k, nit := range nits {
				nit.SetFloat32(v[k])
				nit.Incr()
			}
		}
	}
	return pp, nil
}

// ReadPCD reads a PCD stream.
func ReadPCD(r io.Reader) (*PointCloud, error) {
	pp, err := pc.Unmarshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing PCD")
	}
	return FromPCD(pp)
}

// WritePCD writes the cloud as a PCD stream.
func (p *PointCloud) WritePCD(w io.Writer) error {
	pp, err := p.ToPCD()
	if err != nil {
		return err
	}
	return errors.Wrap(pc.Marshal(pp, w), "writing PCD")
}
