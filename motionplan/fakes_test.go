package motionplan

import (
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/hcplanner/spatialmath"
)

// fakeOptimizer keeps the waypoints it was created with as its trajectory. Its cost is the path length.
type fakeOptimizer struct {
	mu          sync.Mutex
	poses       []spatialmath.Pose2D
	startVel    *spatialmath.Velocity2D
	freeGoalVel bool
	optimized   int
	detour      bool
	optimizeErr error
	onOptimize  func()
}

func newFakeOptimizer(start, goal spatialmath.Pose2D, waypoints []r2.Point) *fakeOptimizer {
	poses := make([]spatialmath.Pose2D, len(waypoints))
	for i, p := range waypoints {
		poses[i] = spatialmath.NewPose2DFromPoint(p, start.Theta)
	}
	poses[0] = start
	poses[len(poses)-1] = goal
	return &fakeOptimizer{poses: poses}
}

func (fo *fakeOptimizer) UpdateAndPrune(start, goal *spatialmath.Pose2D) {
	fo.mu.Lock()
	defer fo.mu.Unlock()
	if start != nil {
		fo.poses[0] = *start
	}
	if goal != nil {
		fo.poses[len(fo.poses)-1] = *goal
	}
}

func (fo *fakeOptimizer) SetStartVelocity(vel spatialmath.Velocity2D) {
	fo.startVel = &vel
}

func (fo *fakeOptimizer) SetGoalVelocityFree(free bool) {
	fo.freeGoalVel = free
}

func (fo *fakeOptimizer) Optimize(inner, outer int, computeCost bool) error {
	fo.mu.Lock()
	fo.optimized++
	hook := fo.onOptimize
	fo.mu.Unlock()
	if hook != nil {
		hook()
	}
	return fo.optimizeErr
}

func (fo *fakeOptimizer) CurrentCost() []float64 {
	fo.mu.Lock()
	defer fo.mu.Unlock()
	length := 0.
	for i := 1; i < len(fo.poses); i++ {
		length += fo.poses[i].DistanceTo(fo.poses[i-1])
	}
	return []float64{length, 0}
}

func (fo *fakeOptimizer) DetectBackwardsDetour(cosThreshold float64) bool {
	return fo.detour
}

func (fo *fakeOptimizer) Poses() []spatialmath.Pose2D {
	fo.mu.Lock()
	defer fo.mu.Unlock()
	out := make([]spatialmath.Pose2D, len(fo.poses))
	copy(out, fo.poses)
	return out
}

func (fo *fakeOptimizer) FindClosestPoseIndex(p r2.Point) int {
	best, bestDist := -1, math.Inf(1)
	for i, pose := range fo.Poses() {
		if d := pose.Point().Sub(p).Norm(); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (fo *fakeOptimizer) VelocityCommand() spatialmath.Velocity2D {
	return spatialmath.Velocity2D{Linear: 0.4}
}

// fakeFactory records every optimizer it creates.
type fakeFactory struct {
	mu      sync.Mutex
	created []*fakeOptimizer
	fail    bool
	setup   func(*fakeOptimizer)
}

func (ff *fakeFactory) create(start, goal spatialmath.Pose2D, waypoints []r2.Point) (TrajectoryOptimizer, error) {
	if ff.fail {
		return nil, errors.New("optimizer init failed")
	}
	fo := newFakeOptimizer(start, goal, waypoints)
	if ff.setup != nil {
		ff.setup(fo)
	}
	ff.mu.Lock()
	ff.created = append(ff.created, fo)
	ff.mu.Unlock()
	return fo, nil
}

type fakeCostmap struct {
	blockedX float64
}

// FootprintCost reports a collision for any pose beyond blockedX.
func (fc *fakeCostmap) FootprintCost(x, y, theta float64, footprint []r2.Point, inscribed, circumscribed float64) float64 {
	if x > fc.blockedX {
		return -1
	}
	return 0
}

type recordingVisualizer struct {
	graphs     int
	candidates [][]CandidateInfo
	best       [][]spatialmath.Pose2D
}

func (rv *recordingVisualizer) PublishGraph(g *Graph) {
	rv.graphs++
}

func (rv *recordingVisualizer) PublishCandidates(candidates []CandidateInfo) {
	rv.candidates = append(rv.candidates, candidates)
}

func (rv *recordingVisualizer) PublishBestTrajectory(poses []spatialmath.Pose2D) {
	rv.best = append(rv.best, poses)
}
