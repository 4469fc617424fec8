package motionplan

import (
	"context"
	"math/rand"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"go.opencensus.io/trace"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/spatialmath"
	"go.viam.com/hcplanner/utils"
)

// HomotopyClassPlanner plans several trajectories in parallel, one per topologically distinct way around the
// obstacles, and follows the cheapest one. Candidates persist across cycles and are re-classified every cycle
// since obstacles move. Plan cycles are serialized; the query methods may be called from any goroutine.
type HomotopyClassPlanner struct {
	mu          sync.Mutex
	initialized bool

	cfg       *PlannerConfig
	obstacles *spatialmath.ObstacleContainer
	pool      *trajectoryPool
	builder   *graphBuilder

	graph *Graph
	// best is not owned by the pool. It may outlive its removal until the next cycle.
	best *candidate

	visualizer Visualizer
	clock      clock.Clock
	logger     logging.Logger
}

// PlannerOption configures optional collaborators of a HomotopyClassPlanner.
type PlannerOption func(*HomotopyClassPlanner)

// WithVisualizer sets the sink used by Visualize.
func WithVisualizer(v Visualizer) PlannerOption {
	return func(hcp *HomotopyClassPlanner) {
		hcp.visualizer = v
	}
}

// WithRandomSource sets the random source of the roadmap sampler, making exploration reproducible.
func WithRandomSource(rnd *rand.Rand) PlannerOption {
	return func(hcp *HomotopyClassPlanner) {
		hcp.builder.rnd = rnd
	}
}

// WithClock sets the clock used to time cycles.
func WithClock(c clock.Clock) PlannerOption {
	return func(hcp *HomotopyClassPlanner) {
		hcp.clock = c
	}
}

// NewHomotopyClassPlanner returns a planner reading obstacles from the given container. The container is owned
// by the caller, who may change it between calls to Plan.
func NewHomotopyClassPlanner(
	cfg *PlannerConfig,
	obstacles *spatialmath.ObstacleContainer,
	factory OptimizerFactory,
	logger logging.Logger,
	opts ...PlannerOption,
) (*HomotopyClassPlanner, error) {
	if cfg == nil {
		return nil, utils.NewNilArgumentError("planner config")
	}
	if obstacles == nil {
		return nil, utils.NewNilArgumentError("obstacle container")
	}
	if factory == nil {
		return nil, utils.NewNilArgumentError("optimizer factory")
	}
	if logger == nil {
		return nil, utils.NewNilArgumentError("logger")
	}
	if err := cfg.Validate("planner"); err != nil {
		return nil, err
	}
	logger = logger.Sublogger("hcp")

	hcp := &HomotopyClassPlanner{
		initialized: true,
		cfg:         cfg,
		obstacles:   obstacles,
		pool: &trajectoryPool{
			cfg:       cfg,
			obstacles: obstacles,
			factory:   factory,
			logger:    logger,
		},
		builder: &graphBuilder{cfg: cfg, logger: logger},
		clock:   clock.New(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(hcp)
	}
	if hcp.builder.rnd == nil {
		//nolint:gosec
		hcp.builder.rnd = rand.New(rand.NewSource(hcp.clock.Now().UnixNano()))
	}
	return hcp, nil
}

func (hcp *HomotopyClassPlanner) assertInitialized() {
	if hcp == nil || !hcp.initialized {
		panic(errNotInitialized)
	}
}

// Plan runs one planning cycle from start to goal. startVel, when given, is forwarded to every optimizer, and
// freeGoalVel lets trajectories end with non-zero velocity. The cycle itself cannot fail: an error is only
// returned if ctx is already done.
func (hcp *HomotopyClassPlanner) Plan(
	ctx context.Context,
	start, goal spatialmath.Pose2D,
	startVel *spatialmath.Velocity2D,
	freeGoalVel bool,
) error {
	hcp.assertInitialized()
	ctx, span := trace.StartSpan(ctx, "hcp::Plan")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return err
	}

	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	began := hcp.clock.Now()

	hcp.pool.updateAll(&start, &goal, startVel, freeGoalVel)
	hcp.exploreAndInit(ctx, start, goal)
	hcp.optimize(ctx)
	hcp.best = hcp.pool.selectBest()
	hcp.pool.deleteDetours(0)

	elapsed := hcp.clock.Since(began)
	if budget := hcp.cfg.cycleBudget(); budget > 0 && elapsed > budget {
		hcp.logger.Warnw("planning cycle exceeded its budget", "elapsed", elapsed, "budget", budget,
			"pool_size", len(hcp.pool.candidates))
	}
	if hcp.best != nil {
		hcp.logger.Debugw("cycle done", "candidate", hcp.best.id, "cost", hcp.best.cost(),
			"pool_size", len(hcp.pool.candidates), "elapsed", elapsed)
	} else {
		hcp.logger.Debugw("cycle done without a trajectory", "pool_size", len(hcp.pool.candidates))
	}
	return nil
}

// PlanFromPath runs a cycle using the first and last poses of a global plan as start and goal.
func (hcp *HomotopyClassPlanner) PlanFromPath(
	ctx context.Context,
	globalPlan []spatialmath.Pose2D,
	startVel *spatialmath.Velocity2D,
	freeGoalVel bool,
) error {
	hcp.assertInitialized()
	if len(globalPlan) == 0 {
		return NewEmptyPlanError()
	}
	return hcp.Plan(ctx, globalPlan[0], globalPlan[len(globalPlan)-1], startVel, freeGoalVel)
}

func (hcp *HomotopyClassPlanner) exploreAndInit(ctx context.Context, start, goal spatialmath.Pose2D) {
	_, span := trace.StartSpan(ctx, "hcp::exploreAndInit")
	defer span.End()

	hcp.pool.renewAndAnalyze(hcp.cfg.DeleteDetoursOnReanalysis)
	hcp.graph = hcp.builder.build(start, goal, hcp.obstacles.All())
	if hcp.graph == nil {
		hcp.logger.Debug("start and goal are within goal tolerance, skipping exploration")
		return
	}
	hcp.pool.explore(hcp.graph, start, goal)
}

func (hcp *HomotopyClassPlanner) optimize(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "hcp::optimize")
	defer span.End()
	hcp.pool.optimizeAll(ctx, hcp.cfg.NoInnerIterations, hcp.cfg.NoOuterIterations)
}

// VelocityCommand returns the command of the best trajectory, or zero if there is none.
func (hcp *HomotopyClassPlanner) VelocityCommand() spatialmath.Velocity2D {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	if hcp.best == nil {
		return spatialmath.Velocity2D{}
	}
	return hcp.best.opt.VelocityCommand()
}

// BestTrajectory returns the poses of the best trajectory, or nil if there is none.
func (hcp *HomotopyClassPlanner) BestTrajectory() []spatialmath.Pose2D {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	if hcp.best == nil {
		return nil
	}
	return hcp.best.opt.Poses()
}

// Candidates returns a view of every live trajectory candidate in discovery order.
func (hcp *HomotopyClassPlanner) Candidates() []CandidateInfo {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	return hcp.pool.infos(hcp.best)
}

// ClassSignatures returns the homotopy classes registered in the last cycle.
func (hcp *HomotopyClassPlanner) ClassSignatures() []HSignature {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	return hcp.pool.registry.snapshot()
}

// IsTrajectoryFeasible checks the best trajectory against a costmap up to lookAheadIdx. An index out of range
// checks the whole trajectory. Without a best trajectory the answer is false.
func (hcp *HomotopyClassPlanner) IsTrajectoryFeasible(
	model CostmapModel,
	footprint []r2.Point,
	inscribedRadius, circumscribedRadius float64,
	lookAheadIdx int,
) bool {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	if hcp.best == nil || model == nil {
		return false
	}
	poses := hcp.best.opt.Poses()
	if len(poses) == 0 {
		return false
	}
	if lookAheadIdx < 0 || lookAheadIdx >= len(poses) {
		lookAheadIdx = len(poses) - 1
	}
	for _, pose := range poses[:lookAheadIdx+1] {
		if model.FootprintCost(pose.X, pose.Y, pose.Theta, footprint, inscribedRadius, circumscribedRadius) < 0 {
			return false
		}
	}
	return true
}

// Visualize publishes the exploration graph, when enabled, the candidates and the best trajectory.
func (hcp *HomotopyClassPlanner) Visualize() {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	if hcp.visualizer == nil {
		hcp.logger.Debug("ignoring visualize call, no visualizer set")
		return
	}
	if hcp.cfg.VisualizeGraph && hcp.graph != nil {
		hcp.visualizer.PublishGraph(hcp.graph)
	}
	hcp.visualizer.PublishCandidates(hcp.pool.infos(hcp.best))
	if hcp.best != nil {
		hcp.visualizer.PublishBestTrajectory(hcp.best.opt.Poses())
	}
}

// Clear drops every candidate and known class.
func (hcp *HomotopyClassPlanner) Clear() {
	hcp.assertInitialized()
	hcp.mu.Lock()
	defer hcp.mu.Unlock()
	hcp.pool.clear()
	hcp.best = nil
	hcp.graph = nil
}
