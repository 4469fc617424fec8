package teb

import (
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/hcplanner/spatialmath"
)

func minDistance(poses []spatialmath.Pose2D, obs spatialmath.Obstacle) float64 {
	best := math.Inf(1)
	for _, p := range poses {
		best = math.Min(best, obs.MinimumDistance(p.Point()))
	}
	return best
}

func TestNewOptimizerValidation(t *testing.T) {
	start, goal := spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(1, 0, 0)
	_, err := NewOptimizer(nil, spatialmath.NewObstacleContainer(), start, goal, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewOptimizer(NewDefaultConfig(), nil, start, goal, nil)
	test.That(t, err, test.ShouldNotBeNil)

	bad := NewDefaultConfig()
	bad.MaxVelX = 0
	_, err = NewOptimizer(bad, spatialmath.NewObstacleContainer(), start, goal, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_vel_x")
}

func TestOptimizeFreeSpace(t *testing.T) {
	start, goal := spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(2, 0, 0)
	opt, err := NewOptimizer(NewDefaultConfig(), spatialmath.NewObstacleContainer(), start, goal, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, opt.Optimize(5, 4, true), test.ShouldBeNil)
	cost := opt.CurrentCost()
	test.That(t, cost, test.ShouldHaveLength, numCosts)
	test.That(t, cost[costObstacle], test.ShouldEqual, 0)
	test.That(t, cost[costTime], test.ShouldBeGreaterThan, 0)

	poses := opt.Poses()
	test.That(t, poses[0], test.ShouldResemble, start)
	test.That(t, poses[len(poses)-1], test.ShouldResemble, goal)
	for _, p := range poses {
		test.That(t, math.Abs(p.Y), test.ShouldBeLessThan, 1e-3)
	}
	test.That(t, opt.DetectBackwardsDetour(0), test.ShouldBeFalse)
	test.That(t, opt.VelocityCommand().Linear, test.ShouldBeGreaterThan, 0)
	test.That(t, opt.FindClosestPoseIndex(goal.Point()), test.ShouldEqual, len(poses)-1)
}

func TestOptimizeMovesAwayFromObstacle(t *testing.T) {
	// Test Map:
	//   the initial band passes right next to the obstacle and is pushed away from it
	// ----------------
	// |       *      |
	// | s----------g |
	// ----------------
	obs := spatialmath.NewPointObstacle(1.5, 0.2)
	start, goal := spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(3, 0, 0)
	opt, err := NewOptimizer(NewDefaultConfig(), spatialmath.NewObstacleContainer(obs), start, goal, nil)
	test.That(t, err, test.ShouldBeNil)

	before := opt.CurrentCost()[costObstacle]
	distBefore := minDistance(opt.Poses(), obs)
	test.That(t, before, test.ShouldBeGreaterThan, 0)

	test.That(t, opt.Optimize(5, 4, true), test.ShouldBeNil)
	test.That(t, opt.CurrentCost()[costObstacle], test.ShouldBeLessThan, before)
	test.That(t, minDistance(opt.Poses(), obs), test.ShouldBeGreaterThan, distBefore)

	poses := opt.Poses()
	test.That(t, poses[0], test.ShouldResemble, start)
	test.That(t, poses[len(poses)-1], test.ShouldResemble, goal)
}

func TestOptimizeZeroIterations(t *testing.T) {
	wp := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	opt, err := NewOptimizer(NewDefaultConfig(), spatialmath.NewObstacleContainer(),
		spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(2, 0, 0), wp)
	test.That(t, err, test.ShouldBeNil)
	before := opt.Poses()
	test.That(t, opt.Optimize(0, 1, false), test.ShouldBeNil)
	after := opt.Poses()
	test.That(t, after[opt.FindClosestPoseIndex(r2.Point{X: 1, Y: 1})].Point(), test.ShouldResemble, r2.Point{X: 1, Y: 1})
	test.That(t, len(after), test.ShouldBeGreaterThan, 0)
	test.That(t, before[0], test.ShouldResemble, after[0])
}

func TestBoundaryVelocities(t *testing.T) {
	cfg := NewDefaultConfig()
	opt, err := NewOptimizer(cfg, spatialmath.NewObstacleContainer(),
		spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(3, 0, 0), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opt.VelocityCommand().Linear, test.ShouldAlmostEqual, 0.5*cfg.MaxVelX)

	opt.SetStartVelocity(spatialmath.Velocity2D{Linear: cfg.MaxVelX})
	opt.UpdateAndPrune(nil, nil)
	test.That(t, opt.VelocityCommand().Linear, test.ShouldAlmostEqual, cfg.MaxVelX)

	braking := opt.Band().Duration()
	opt.SetGoalVelocityFree(true)
	opt.UpdateAndPrune(nil, nil)
	test.That(t, opt.Band().Duration(), test.ShouldBeLessThan, braking)
}

func TestBandIsACopy(t *testing.T) {
	obstacles := spatialmath.NewObstacleContainer(spatialmath.NewPointObstacle(1.5, 0.2))
	opt, err := NewOptimizer(NewDefaultConfig(), obstacles,
		spatialmath.NewPose2D(0, 0, 0), spatialmath.NewPose2D(3, 0, 0), nil)
	test.That(t, err, test.ShouldBeNil)

	band := opt.Band()
	test.That(t, band.poses, test.ShouldResemble, opt.Poses())
	band.poses[0] = spatialmath.NewPose2D(-5, -5, 0)
	band.timeDiffs[0] = 100
	test.That(t, opt.Poses()[0], test.ShouldResemble, spatialmath.NewPose2D(0, 0, 0))
	test.That(t, opt.Band().timeDiffs[0], test.ShouldBeLessThan, 100)

	// reading the band while a worker optimizes is safe
	var wg sync.WaitGroup
	var optErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5 && optErr == nil; i++ {
			optErr = opt.Optimize(2, 2, true)
		}
	}()
	for i := 0; i < 50; i++ {
		test.That(t, opt.Band().Duration(), test.ShouldBeGreaterThan, 0)
	}
	wg.Wait()
	test.That(t, optErr, test.ShouldBeNil)
}

func TestOptimizerFactory(t *testing.T) {
	factory := NewOptimizerFactory(NewDefaultConfig(), spatialmath.NewObstacleContainer())
	start, goal := spatialmath.NewPose2D(1, 1, 0), spatialmath.NewPose2D(2, 2, 0)
	opt, err := factory(start, goal, []r2.Point{start.Point(), goal.Point()})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opt.Poses()[0], test.ShouldResemble, start)
	test.That(t, opt.CurrentCost(), test.ShouldHaveLength, numCosts)
}
