package teb

import (
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/hcplanner/motionplan"
	"go.viam.com/hcplanner/spatialmath"
	"go.viam.com/hcplanner/utils"
)

// indices into the cost vector.
const (
	costTime = iota
	costSmoothness
	costObstacle
	numCosts
)

var _ motionplan.TrajectoryOptimizer = &Optimizer{}

// Optimizer deforms a TimedElasticBand by minimizing a weighted sum of travel time, curvature and obstacle
// proximity over the positions of the inner poses. Start and goal stay fixed.
type Optimizer struct {
	mu        sync.Mutex
	cfg       *Config
	obstacles *spatialmath.ObstacleContainer
	band      *TimedElasticBand
	bc        boundaryConditions
	cost      []float64
}

// NewOptimizer returns an optimizer for a band initialized from start to goal through waypoints.
func NewOptimizer(
	cfg *Config,
	obstacles *spatialmath.ObstacleContainer,
	start, goal spatialmath.Pose2D,
	waypoints []r2.Point,
) (*Optimizer, error) {
	if cfg == nil {
		return nil, utils.NewNilArgumentError("elastic band config")
	}
	if obstacles == nil {
		return nil, utils.NewNilArgumentError("obstacle container")
	}
	if err := cfg.Validate("teb"); err != nil {
		return nil, err
	}
	o := &Optimizer{
		cfg:       cfg,
		obstacles: obstacles,
		band:      NewTimedElasticBand(start, goal, waypoints, cfg),
	}
	o.cost = o.computeCost()
	return o, nil
}

// NewOptimizerFactory returns a factory creating elastic band optimizers that share one config and obstacle set.
func NewOptimizerFactory(cfg *Config, obstacles *spatialmath.ObstacleContainer) motionplan.OptimizerFactory {
	return func(start, goal spatialmath.Pose2D, waypoints []r2.Point) (motionplan.TrajectoryOptimizer, error) {
		return NewOptimizer(cfg, obstacles, start, goal, waypoints)
	}
}

// UpdateAndPrune moves the band ends.
func (o *Optimizer) UpdateAndPrune(start, goal *spatialmath.Pose2D) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.band.UpdateAndPrune(start, goal, o.cfg.MinSamples)
	o.band.recomputeTimeDiffs(o.cfg, o.bc)
}

// SetStartVelocity sets the velocity the robot currently moves with.
func (o *Optimizer) SetStartVelocity(vel spatialmath.Velocity2D) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bc.startSpeed = vel.Linear
}

// SetGoalVelocityFree allows the band to arrive at the goal without stopping.
func (o *Optimizer) SetGoalVelocityFree(free bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bc.goalVelFree = free
}

// Optimize runs outerIterations rounds of resizing the band followed by at most innerIterations solver
// iterations.
func (o *Optimizer) Optimize(innerIterations, outerIterations int, computeCost bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	obstacles := o.obstacles.All()

	var err error
	for i := 0; i < outerIterations; i++ {
		o.band.AutoResize(o.cfg.DtRef, o.cfg.DtHysteresis, o.cfg.MinSamples, o.cfg.MaxSamples)
		if err = o.optimizeBand(innerIterations, obstacles); err != nil {
			break
		}
	}
	if computeCost {
		o.cost = o.computeCostWith(obstacles)
	}
	return err
}

func (o *Optimizer) optimizeBand(iterations int, obstacles []spatialmath.Obstacle) error {
	n := len(o.band.poses)
	if iterations <= 0 || n < 3 {
		return nil
	}
	x0 := make([]float64, 0, 2*(n-2))
	for _, p := range o.band.poses[1 : n-1] {
		x0 = append(x0, p.X, p.Y)
	}
	first, last := o.band.poses[0].Point(), o.band.poses[n-1].Point()

	objective := func(x []float64) float64 {
		return floats.Sum(o.terms(pointsFromVars(first, last, x), obstacles))
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   iterations,
		GradientThreshold: 1e-6,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-9, Iterations: iterations},
	}

	f0 := objective(x0)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return errors.Wrap(err, "elastic band optimization failed")
	}
	if result.F <= f0 && allFinite(result.X) {
		o.applyVars(result.X)
	}
	if err != nil && !errors.Is(err, optimize.ErrNoProgress) && !errors.Is(err, optimize.ErrLinesearcherFailure) {
		return errors.Wrap(err, "elastic band optimization failed")
	}
	return nil
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func pointsFromVars(first, last r2.Point, x []float64) []r2.Point {
	pts := make([]r2.Point, 0, len(x)/2+2)
	pts = append(pts, first)
	for i := 0; i+1 < len(x); i += 2 {
		pts = append(pts, r2.Point{X: x[i], Y: x[i+1]})
	}
	return append(pts, last)
}

// applyVars writes optimized positions back and points every inner pose at its successor.
func (o *Optimizer) applyVars(x []float64) {
	n := len(o.band.poses)
	for i := 1; i < n-1; i++ {
		o.band.poses[i].X = x[2*(i-1)]
		o.band.poses[i].Y = x[2*(i-1)+1]
	}
	for i := 1; i < n-1; i++ {
		o.band.poses[i].Theta = headingTo(o.band.poses[i].Point(), o.band.poses[i+1].Point())
	}
	o.band.recomputeTimeDiffs(o.cfg, o.bc)
}

// terms evaluates the weighted cost components over a sequence of positions.
func (o *Optimizer) terms(pts []r2.Point, obstacles []spatialmath.Obstacle) []float64 {
	costs := make([]float64, numCosts)
	n := len(pts)
	for i := 0; i+1 < n; i++ {
		costs[costTime] += pts[i+1].Sub(pts[i]).Norm() / o.cfg.MaxVelX
	}
	for i := 1; i+1 < n; i++ {
		curvature := pts[i-1].Sub(pts[i].Mul(2)).Add(pts[i+1])
		costs[costSmoothness] += curvature.Dot(curvature)
		for _, obs := range obstacles {
			if violation := o.cfg.MinObstacleDist - obs.MinimumDistance(pts[i]); violation > 0 {
				costs[costObstacle] += violation * violation
			}
		}
	}
	costs[costTime] *= o.cfg.WeightOptimalTime
	costs[costSmoothness] *= o.cfg.WeightSmoothness
	costs[costObstacle] *= o.cfg.WeightObstacle
	return costs
}

func (o *Optimizer) computeCost() []float64 {
	return o.computeCostWith(o.obstacles.All())
}

// computeCostWith reports the travel time of the band itself, which accounts for turning and the boundary
// velocities the solver objective ignores.
func (o *Optimizer) computeCostWith(obstacles []spatialmath.Obstacle) []float64 {
	costs := o.terms(spatialmath.PosesToPoints(o.band.poses), obstacles)
	costs[costTime] = o.cfg.WeightOptimalTime * o.band.Duration()
	return costs
}

// CurrentCost returns the time, smoothness and obstacle cost of the last optimization.
func (o *Optimizer) CurrentCost() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]float64, len(o.cost))
	copy(out, o.cost)
	return out
}

// DetectBackwardsDetour reports whether any pose heads away from the goal.
func (o *Optimizer) DetectBackwardsDetour(cosThreshold float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.band.DetectDetoursBackwards(cosThreshold)
}

// Poses returns a copy of the band poses.
func (o *Optimizer) Poses() []spatialmath.Pose2D {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.band.Poses()
}

// FindClosestPoseIndex returns the index of the pose nearest to p.
func (o *Optimizer) FindClosestPoseIndex(p r2.Point) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.band.FindClosestPoseIndex(p)
}

// VelocityCommand returns the command that follows the first step of the band.
func (o *Optimizer) VelocityCommand() spatialmath.Velocity2D {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.band.VelocityCommand()
}

// Band returns a copy of the underlying elastic band.
func (o *Optimizer) Band() *TimedElasticBand {
	o.mu.Lock()
	defer o.mu.Unlock()
	return &TimedElasticBand{
		poses:     append([]spatialmath.Pose2D(nil), o.band.poses...),
		timeDiffs: append([]float64(nil), o.band.timeDiffs...),
	}
}
