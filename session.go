package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"

	"github.com/seqsense/pcreg/camera"
	"github.com/seqsense/pcreg/geometry"
	"github.com/seqsense/pcreg/internal/config"
	"github.com/seqsense/pcreg/internal/corresfile"
	"github.com/seqsense/pcreg/registration"
)

var errNoTransform = errors.New("transformation is not computed")
var errNoHistory = errors.New("no history to undo")

const defaultMaxHistory = 10

// session holds the clouds being registered and the transformation applied
// to the source so far.
type session struct {
	source     *geometry.PointCloud
	target     *geometry.PointCloud
	corres     registration.CorrespondenceSet
	estimation registration.TransformationEstimation
	intrinsic  *camera.PinholeCameraIntrinsic

	last    *mat.Mat4
	applied mat.Mat4
	history *history
}

func newSession(source, target *geometry.PointCloud, corres registration.CorrespondenceSet, typ registration.TransformationEstimationType) (*session, error) {
	e, err := registration.NewTransformationEstimation(typ)
	if err != nil {
		return nil, err
	}
	if corres == nil {
		n := source.Len()
		if target.Len() < n {
			n = target.Len()
		}
		corres = registration.NewIdentityCorrespondenceSet(n)
	}
	if err := corres.Validate(source.Len(), target.Len()); err != nil {
		return nil, err
	}
	s := &session{
		source:     source,
		target:     target,
		corres:     corres,
		estimation: e,
		applied:    registration.Identity(),
		history:    newHistory(defaultMaxHistory),
	}
	s.history.push(historyEntry{source: s.source, applied: s.applied})
	return s, nil
}

func loadSession(cfg *config.Config) (*session, error) {
	source, err := readPCDFile(cfg.Source)
	if err != nil {
		return nil, err
	}
	target, err := readPCDFile(cfg.Target)
	if err != nil {
		return nil, err
	}
	var corres registration.CorrespondenceSet
	if cfg.Correspondences != "" {
		if corres, err = corresfile.Load(cfg.Correspondences); err != nil {
			return nil, err
		}
	}
	typ, err := cfg.EstimationType()
	if err != nil {
		return nil, err
	}
	s, err := newSession(source, target, corres, typ)
	if err != nil {
		return nil, err
	}
	if cfg.CameraIntrinsic != "" {
		if s.intrinsic, err = camera.LoadJSONFile(cfg.CameraIntrinsic); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func readPCDFile(path string) (*geometry.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := geometry.ReadPCD(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

func writePCDFile(path string, p *geometry.PointCloud) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.WritePCD(f); err != nil {
		f.Close()
		return errors.Wrap(err, path)
	}
	return f.Close()
}

func (s *session) SetEstimation(typ registration.TransformationEstimationType) error {
	e, err := registration.NewTransformationEstimation(typ)
	if err != nil {
		return err
	}
	s.estimation = e
	s.last = nil
	return nil
}

func (s *session) RMSE() (float32, error) {
	return s.estimation.ComputeRMSE(s.source, s.target, s.corres)
}

// Compute estimates the transformation of the current source without
// applying it.
func (s *session) Compute() (mat.Mat4, error) {
	m, err := s.estimation.ComputeTransformation(s.source, s.target, s.corres)
	if err != nil {
		return m, err
	}
	s.last = &m
	return m, nil
}

// Apply transforms the source by the last computed transformation.
func (s *session) Apply() error {
	if s.last == nil {
		return errNoTransform
	}
	s.source = s.source.Transform(*s.last)
	s.applied = s.last.Mul(s.applied)
	s.last = nil
	s.history.push(historyEntry{source: s.source, applied: s.applied})
	return nil
}

// Undo reverts the last Apply.
func (s *session) Undo() error {
	e, ok := s.history.undo()
	if !ok {
		return errNoHistory
	}
	s.source = e.source
	s.applied = e.applied
	s.last = nil
	return nil
}
