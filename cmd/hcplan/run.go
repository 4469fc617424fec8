package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/motionplan"
	"go.viam.com/hcplanner/motionplan/costmap"
	"go.viam.com/hcplanner/motionplan/teb"
	"go.viam.com/hcplanner/motionplan/visualization"
	"go.viam.com/hcplanner/spatialmath"
	"go.viam.com/hcplanner/utils"
)

// runner drives a simulated robot through a scenario, replanning once per cycle.
type runner struct {
	scn       *scenario
	obstacles *spatialmath.ObstacleContainer
	planner   *motionplan.HomotopyClassPlanner
	costmap   *costmap.ObstacleCostModel
	viz       *visualization.PlotVisualizer
	clk       clock.Clock
	realtime  bool
	out       io.Writer
	logger    logging.Logger

	robot spatialmath.Pose2D
	vel   spatialmath.Velocity2D
}

type runResult struct {
	cycles  int
	reached bool
}

func newRunner(scn *scenario, clk clock.Clock, realtime bool, out io.Writer, logger logging.Logger) (*runner, error) {
	initial, err := scn.obstaclesAt(0)
	if err != nil {
		return nil, err
	}
	obstacles := spatialmath.NewObstacleContainer(initial...)
	viz := visualization.NewPlotVisualizer(obstacles, logger.Sublogger("viz"))

	//nolint:gosec
	rnd := rand.New(rand.NewSource(scn.Seed))
	planner, err := motionplan.NewHomotopyClassPlanner(
		scn.plannerCfg,
		obstacles,
		teb.NewOptimizerFactory(scn.tebCfg, obstacles),
		logger,
		motionplan.WithVisualizer(viz),
		motionplan.WithRandomSource(rnd),
		motionplan.WithClock(clk),
	)
	if err != nil {
		return nil, err
	}
	return &runner{
		scn:       scn,
		obstacles: obstacles,
		planner:   planner,
		costmap:   costmap.NewObstacleCostModel(obstacles),
		viz:       viz,
		clk:       clk,
		realtime:  realtime,
		out:       out,
		logger:    logger,
		robot:     scn.Start,
	}, nil
}

// run executes cycles until the goal is reached, the cycle count is exhausted or ctx is done.
func (r *runner) run(ctx context.Context) (runResult, error) {
	var res runResult
	var ticker *clock.Ticker
	if r.realtime {
		ticker = r.clk.Ticker(r.cycleDuration())
		defer ticker.Stop()
	}
	for res.cycles < r.scn.Cycles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.cycle(ctx, res.cycles); err != nil {
			return res, err
		}
		res.cycles++
		if r.reachedGoal() {
			res.reached = true
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-ticker.C:
			}
		}
	}
	r.planner.Visualize()
	return res, nil
}

func (r *runner) cycleDuration() time.Duration {
	return time.Duration(r.scn.CycleTime * float64(time.Second))
}

func (r *runner) cycle(ctx context.Context, i int) error {
	current, err := r.scn.obstaclesAt(float64(i) * r.scn.CycleTime)
	if err != nil {
		return err
	}
	r.obstacles.Set(current...)

	stopSlowLog := utils.SlowLogger(ctx, r.clk, r.logger, "planning cycle still running", "cycle", i)
	vel := r.vel
	err = r.planner.Plan(ctx, r.robot, r.scn.Goal, &vel, false)
	stopSlowLog()
	if err != nil {
		return errors.Wrapf(err, "cycle %d", i)
	}

	cmd := r.planner.VelocityCommand()
	feasible := r.planner.IsTrajectoryFeasible(
		r.costmap,
		r.scn.footprint(),
		r.scn.Robot.InscribedRadius,
		r.scn.Robot.CircumscribedRadius,
		r.scn.Robot.LookAhead,
	)
	if !feasible {
		r.logger.Warnw("best trajectory is not feasible, stopping robot", "cycle", i)
		cmd = spatialmath.Velocity2D{}
	}

	if _, err := fmt.Fprintf(r.out, "cycle %3d pose %s classes %d v %.3f w %.3f feasible %t\n",
		i, r.robot, len(r.planner.ClassSignatures()), cmd.Linear, cmd.Angular, feasible); err != nil {
		return err
	}
	r.vel = cmd
	r.robot = integrate(r.robot, cmd, r.scn.CycleTime)
	return nil
}

func (r *runner) reachedGoal() bool {
	return r.robot.Point().Sub(r.scn.Goal.Point()).Norm() <= r.scn.plannerCfg.XYGoalTolerance
}

// integrate moves a unicycle with constant velocity for dt seconds.
func integrate(p spatialmath.Pose2D, vel spatialmath.Velocity2D, dt float64) spatialmath.Pose2D {
	if math.Abs(vel.Angular) < 1e-9 {
		return spatialmath.NewPose2D(p.X+vel.Linear*dt*math.Cos(p.Theta), p.Y+vel.Linear*dt*math.Sin(p.Theta), p.Theta)
	}
	radius := vel.Linear / vel.Angular
	theta := p.Theta + vel.Angular*dt
	return spatialmath.NewPose2D(
		p.X+radius*(math.Sin(theta)-math.Sin(p.Theta)),
		p.Y-radius*(math.Cos(theta)-math.Cos(p.Theta)),
		theta,
	)
}
