package motionplan

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/hcplanner/spatialmath"
)

// candidate is one live trajectory: a homotopy class with the optimizer refining it.
type candidate struct {
	id        uuid.UUID
	opt       TrajectoryOptimizer
	signature HSignature
	removed   bool
}

func newCandidate(opt TrajectoryOptimizer, signature HSignature) *candidate {
	return &candidate{id: uuid.New(), opt: opt, signature: signature}
}

// cost returns the sum of the cost components of the last optimization.
func (c *candidate) cost() float64 {
	return floats.Sum(c.opt.CurrentCost())
}

// CandidateInfo is a read-only view of a trajectory candidate.
type CandidateInfo struct {
	ID        uuid.UUID
	Signature HSignature
	Cost      float64
	Poses     []spatialmath.Pose2D
	Best      bool
}
