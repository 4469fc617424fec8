package motionplan

import (
	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/spatialmath"
)

// TrajectoryOptimizer refines one trajectory candidate. A planner owns one optimizer per candidate and calls it
// from a single goroutine at a time.
type TrajectoryOptimizer interface {
	// UpdateAndPrune moves the trajectory ends to the new start and goal and drops poses already passed.
	// A nil pose leaves that end untouched.
	UpdateAndPrune(start, goal *spatialmath.Pose2D)
	SetStartVelocity(vel spatialmath.Velocity2D)
	// SetGoalVelocityFree lets the final velocity differ from zero.
	SetGoalVelocityFree(free bool)
	Optimize(innerIterations, outerIterations int, computeCost bool) error
	// CurrentCost returns the cost components of the last optimization.
	CurrentCost() []float64
	// DetectBackwardsDetour returns true if any pose heading makes a scalar product below cosThreshold with
	// the direction from the first to the last pose.
	DetectBackwardsDetour(cosThreshold float64) bool
	Poses() []spatialmath.Pose2D
	FindClosestPoseIndex(p r2.Point) int
	VelocityCommand() spatialmath.Velocity2D
}

// OptimizerFactory creates the optimizer of a newly discovered homotopy class, initialized along waypoints which
// run from the start position to the goal position.
type OptimizerFactory func(start, goal spatialmath.Pose2D, waypoints []r2.Point) (TrajectoryOptimizer, error)

// CostmapModel scores a robot footprint placed at a pose. A negative cost means the footprint is in collision.
type CostmapModel interface {
	FootprintCost(x, y, theta float64, footprint []r2.Point, inscribedRadius, circumscribedRadius float64) float64
}

// Visualizer receives the state of the planner for display.
type Visualizer interface {
	PublishGraph(g *Graph)
	PublishCandidates(candidates []CandidateInfo)
	PublishBestTrajectory(poses []spatialmath.Pose2D)
}
