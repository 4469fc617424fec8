package motionplan

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/spatialmath"
	"go.viam.com/hcplanner/utils"
)

// a candidate passing closer than this to an obstacle is assumed to be jammed into it and is dropped so the
// class can be rediscovered from a fresh path.
const nearCollisionDistance = 0.03

// trajectoryPool owns the live candidates and the class registry across cycles. Candidates are only marked
// removed inside a pass and compacted at its end, so indices stay valid while a pass iterates.
type trajectoryPool struct {
	cfg        *PlannerConfig
	obstacles  *spatialmath.ObstacleContainer
	factory    OptimizerFactory
	registry   classRegistry
	candidates []*candidate
	logger     logging.Logger
}

func (tp *trajectoryPool) liveCount() int {
	n := 0
	for _, c := range tp.candidates {
		if !c.removed {
			n++
		}
	}
	return n
}

func (tp *trajectoryPool) full() bool {
	return tp.liveCount() >= tp.cfg.MaxNumberClasses
}

func (tp *trajectoryPool) remove(c *candidate, reason string) {
	c.removed = true
	tp.logger.Debugw("removed trajectory candidate", "candidate", c.id, "reason", reason, "pool_size", tp.liveCount())
}

func (tp *trajectoryPool) compact() {
	live := tp.candidates[:0]
	for _, c := range tp.candidates {
		if !c.removed {
			live = append(live, c)
		}
	}
	for i := len(live); i < len(tp.candidates); i++ {
		tp.candidates[i] = nil
	}
	tp.candidates = live
}

// updateAll moves every candidate onto the new start and goal.
func (tp *trajectoryPool) updateAll(start, goal *spatialmath.Pose2D, startVel *spatialmath.Velocity2D, freeGoalVel bool) {
	for _, c := range tp.candidates {
		c.opt.UpdateAndPrune(start, goal)
		if startVel != nil {
			c.opt.SetStartVelocity(*startVel)
		}
		c.opt.SetGoalVelocityFree(freeGoalVel)
	}
}

// renewAndAnalyze rebuilds the registry from the surviving candidates after obstacles may have moved. Detours
// are dropped first when asked to and another candidate remains, then candidates jammed into an obstacle.
// Candidates that now share a class are reduced to the cheapest one.
func (tp *trajectoryPool) renewAndAnalyze(deleteDetours bool) {
	tp.registry.reset()
	obstacles := tp.obstacles.All()
	cosThreshold := math.Cos(tp.cfg.ObstacleHeadingThreshold)

	for _, c := range tp.candidates {
		if deleteDetours && tp.liveCount() > 1 && c.opt.DetectBackwardsDetour(cosThreshold) {
			tp.remove(c, "detour")
			continue
		}
		if tp.jammed(c, obstacles) {
			tp.remove(c, "too close to obstacle")
			continue
		}
		c.signature = CalculateHSignature(spatialmath.PosesToPoints(c.opt.Poses()), obstacles, tp.cfg.HSignaturePrescaler)
	}

	for i, ci := range tp.candidates {
		for !ci.removed {
			var match *candidate
			for _, cj := range tp.candidates[:i] {
				if !cj.removed && cj.signature.EqualWithin(ci.signature, tp.cfg.HSignatureThreshold) {
					match = cj
					break
				}
			}
			if match == nil {
				break
			}
			if match.cost() > ci.cost() {
				tp.remove(match, "duplicate class")
			} else {
				tp.remove(ci, "duplicate class")
			}
		}
	}

	for _, c := range tp.candidates {
		if c.removed {
			continue
		}
		if !tp.registry.register(c.signature, tp.cfg.HSignatureThreshold) {
			tp.logger.Errorw("candidate signature collides with a registered class after deduplication",
				"candidate", c.id, "signature", c.signature)
			c.removed = true
		}
	}
	tp.compact()
}

func (tp *trajectoryPool) jammed(c *candidate, obstacles []spatialmath.Obstacle) bool {
	poses := c.opt.Poses()
	if len(poses) == 0 {
		return false
	}
	for _, obs := range obstacles {
		idx := c.opt.FindClosestPoseIndex(obs.Centroid())
		if idx < 0 || idx >= len(poses) {
			continue
		}
		if obs.MinimumDistance(poses[idx].Point()) < nearCollisionDistance {
			return true
		}
	}
	return false
}

// explore enumerates the paths of g and starts a candidate for every class not seen before, until the pool is
// full.
func (tp *trajectoryPool) explore(g *Graph, start, goal spatialmath.Pose2D) {
	if g == nil {
		return
	}
	obstacles := tp.obstacles.All()
	enumeratePaths(g, tp.full, func(path []int) {
		points := g.pathPoints(path)
		h := CalculateHSignature(points, obstacles, tp.cfg.HSignaturePrescaler)
		if !tp.registry.register(h, tp.cfg.HSignatureDiscoveryThreshold) {
			return
		}
		tp.addCandidate(start, goal, points, h)
	})
}

func (tp *trajectoryPool) addCandidate(start, goal spatialmath.Pose2D, waypoints []r2.Point, h HSignature) {
	opt, err := tp.factory(start, goal, waypoints)
	if err != nil {
		tp.logger.Warnw("could not create trajectory optimizer for new class", "signature", h, "error", err)
		return
	}
	c := newCandidate(opt, h)
	tp.candidates = append(tp.candidates, c)
	tp.logger.Debugw("new homotopy class", "candidate", c.id, "signature", h, "pool_size", tp.liveCount())
}

// optimizeAll runs every optimizer, concurrently when enabled, and returns once all of them finished. Failures
// are logged and leave the candidate in the pool.
func (tp *trajectoryPool) optimizeAll(ctx context.Context, inner, outer int) {
	work := make([]utils.SimpleFunc, 0, len(tp.candidates))
	for _, c := range tp.candidates {
		c := c
		work = append(work, func(ctx context.Context) error {
			if err := c.opt.Optimize(inner, outer, true); err != nil {
				return errors.Wrapf(err, "candidate %s", c.id)
			}
			return nil
		})
	}

	var err error
	if tp.cfg.EnableMultithreading {
		_, err = utils.RunInParallel(ctx, work, tp.cfg.MaxNumberClasses)
	} else {
		for _, f := range work {
			err = multierr.Combine(err, f(ctx))
		}
	}
	for _, e := range multierr.Errors(err) {
		tp.logger.Warnw("trajectory optimization failed", "error", e)
	}
}

// deleteDetours drops backwards heading candidates while more than one is left.
func (tp *trajectoryPool) deleteDetours(cosThreshold float64) {
	for _, c := range tp.candidates {
		if tp.liveCount() > 1 && c.opt.DetectBackwardsDetour(cosThreshold) {
			tp.remove(c, "detour")
		}
	}
	tp.compact()
}

// selectBest returns the live candidate with the lowest summed cost, the earliest one on ties, or nil.
func (tp *trajectoryPool) selectBest() *candidate {
	var best *candidate
	minCost := math.MaxFloat64
	for _, c := range tp.candidates {
		if c.removed {
			continue
		}
		if cost := c.cost(); cost < minCost {
			best = c
			minCost = cost
		}
	}
	return best
}

func (tp *trajectoryPool) clear() {
	tp.candidates = nil
	tp.registry.reset()
}

func (tp *trajectoryPool) infos(best *candidate) []CandidateInfo {
	out := make([]CandidateInfo, 0, len(tp.candidates))
	for _, c := range tp.candidates {
		if c.removed {
			continue
		}
		out = append(out, CandidateInfo{
			ID:        c.id,
			Signature: c.signature,
			Cost:      c.cost(),
			Poses:     c.opt.Poses(),
			Best:      c == best,
		})
	}
	return out
}
