package registration

import (
	"github.com/pkg/errors"
)

// Correspondence is a pair of source and target point indices.
type Correspondence [2]int

func (c Correspondence) Source() int {
	return c[0]
}

func (c Correspondence) Target() int {
	return c[1]
}

// CorrespondenceSet is an ordered list of correspondences.
// A point may appear in more than one pair.
type CorrespondenceSet []Correspondence

// NewIdentityCorrespondenceSet pairs the i-th source point with the i-th
// target point for i in [0, n).
func NewIdentityCorrespondenceSet(n int) CorrespondenceSet {
	out := make(CorrespondenceSet, n)
	for i := range out {
		out[i] = Correspondence{i, i}
	}
	return out
}

func (s CorrespondenceSet) Len() int {
	return len(s)
}

// Validate checks that every pair refers to existing points.
func (s CorrespondenceSet) Validate(nSource, nTarget int) error {
	for i, c := range s {
		if c[0] < 0 || c[0] >= nSource {
			return errors.Wrapf(ErrIndexOutOfRange,
				"correspondence %d: source index %d, cloud has %d points", i, c[0], nSource)
		}
		if c[1] < 0 || c[1] >= nTarget {
			return errors.Wrapf(ErrIndexOutOfRange,
				"correspondence %d: target index %d, cloud has %d points", i, c[1], nTarget)
		}
	}
	return nil
}
