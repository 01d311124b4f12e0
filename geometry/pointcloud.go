// Package geometry provides a point cloud container with optional per-point
// normals and colors.
package geometry

import (
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
)

// PointCloud stores positions and parallel attribute slices.
// Normals and Colors are either empty or have the same length as Points.
type PointCloud struct {
	Points  pc.Vec3Slice
	Normals pc.Vec3Slice
	Colors  pc.Vec3Slice
}

func (p *PointCloud) Vec3At(i int) mat.Vec3 {
	return p.Points[i]
}

func (p *PointCloud) Len() int {
	return len(p.Points)
}

func (p *PointCloud) RawIndexAt(i int) int {
	return i
}

func (p *PointCloud) HasNormals() bool {
	return len(p.Points) > 0 && len(p.Normals) == len(p.Points)
}

func (p *PointCloud) HasColors() bool {
	return len(p.Points) > 0 && len(p.Colors) == len(p.Points)
}

// NormalAccessor returns nil if the cloud has no normals.
func (p *PointCloud) NormalAccessor() pc.Vec3RandomAccessor {
	if len(p.Normals) == 0 {
		return nil
	}
	return p.Normals
}

// Transform returns a copy of the cloud transformed by the rigid
// transformation m. Normals are rotated, colors are copied as is.
func (p *PointCloud) Transform(m mat.Mat4) *PointCloud {
	out := &PointCloud{
		Points: make(pc.Vec3Slice, len(p.Points)),
	}
	for i, v := range p.Points {
		out.Points[i] = m.TransformAffine(v)
	}
	if len(p.Normals) > 0 {
		out.Normals = make(pc.Vec3Slice, len(p.Normals))
		for i, n := range p.Normals {
			out.Normals[i] = rotate(m, n)
		}
	}
	if len(p.Colors) > 0 {
		out.Colors = append(pc.Vec3Slice{}, p.Colors...)
	}
	return out
}

func rotate(m mat.Mat4, a mat.Vec3) mat.Vec3 {
	return mat.Vec3{
		m[4*0+0]*a[0] + m[4*1+0]*a[1] + m[4*2+0]*a[2],
		m[4*0+1]*a[0] + m[4*1+1]*a[1] + m[4*2+1]*a[2],
		m[4*0+2]*a[0] + m[4*1+2]*a[1] + m[4*2+2]*a[2],
	}
}

// Select returns a new cloud containing the points at the given indices.
func (p *PointCloud) Select(indice []int) *PointCloud {
	out := &PointCloud{
		Points: make(pc.Vec3Slice, len(indice)),
	}
	for j, i := range indice {
		out.Points[j] = p.Points[i]
	}
	if p.HasNormals() {
		out.Normals = make(pc.Vec3Slice, len(indice))
		for j, i := range indice {
			out.Normals[j] = p.Normals[i]
		}
	}
	if p.HasColors() {
		out.Colors = make(pc.Vec3Slice, len(indice))
		for j, i := range indice {
			out.Colors[j] = p.Colors[i]
		}
	}
	return out
}
