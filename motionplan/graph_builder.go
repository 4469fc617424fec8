package motionplan

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/spatialmath"
)

// obstacles whose direction from the start makes a normalized scalar product below this with start->goal are
// considered behind the robot and get no keypoints.
const obstacleForwardThreshold = 0.1

// graphBuilder constructs the exploration graph of one cycle.
type graphBuilder struct {
	cfg    *PlannerConfig
	rnd    *rand.Rand
	logger logging.Logger
}

// build returns the exploration graph between start and goal, or nil if they are closer than the goal
// tolerance.
func (gb *graphBuilder) build(start, goal spatialmath.Pose2D, obstacles []spatialmath.Obstacle) *Graph {
	limitHeading := gb.cfg.ObstacleHeadingThreshold != 0
	if gb.cfg.SimpleExploration {
		return gb.keypointGraph(start, goal, obstacles, limitHeading)
	}
	return gb.roadmapGraph(start, goal, obstacles)
}

// keypointGraph places two keypoints beside every obstacle in front of the start, one on each side of the
// start->goal axis at clearance distance, and connects every pair that heads towards the goal.
func (gb *graphBuilder) keypointGraph(
	start, goal spatialmath.Pose2D,
	obstacles []spatialmath.Obstacle,
	limitHeading bool,
) *Graph {
	diff := goal.Point().Sub(start.Point())
	if diff.Norm() < gb.cfg.XYGoalTolerance {
		return nil
	}
	clearance := gb.cfg.MinObstacleDist
	normal := diff.Ortho().Normalize().Mul(clearance)
	dir := diff.Normalize()

	g := newGraph()
	g.start = g.addVertex(start.Point())

	// keypoints of the obstacle nearest to the start, only tracked when heading limiting is on
	nearest := [2]int{-1, -1}
	minDist := math.Inf(1)

	for _, obs := range obstacles {
		startToObs := obs.Centroid().Sub(start.Point())
		dist := startToObs.Norm()
		if dist == 0 || startToObs.Dot(dir)/dist < obstacleForwardThreshold {
			continue
		}
		u := g.addVertex(obs.Centroid().Add(normal))
		v := g.addVertex(obs.Centroid().Sub(normal))
		if limitHeading && dist < minDist {
			minDist = dist
			nearest = [2]int{u, v}
		}
	}
	g.goal = g.addVertex(goal.Point())

	cosThreshold := math.Cos(gb.cfg.ObstacleHeadingThreshold)
	startOrient := start.OrientationUnitVec()
	gb.connect(g, dir, obstacles, func(from, to int) bool {
		if from != g.start || (to != nearest[0] && to != nearest[1]) {
			return true
		}
		keypointDir := g.Position(to).Sub(start.Point()).Normalize()
		if startOrient.Dot(keypointDir) < cosThreshold {
			gb.logger.Debugw("dropped edge to nearest obstacle keypoint, heading limit exceeded", "keypoint", to)
			return false
		}
		return true
	})
	return g
}

// roadmapGraph samples collision free vertices inside the rectangle spanned by the start->goal axis and the
// configured area width, and connects every pair that heads towards the goal.
func (gb *graphBuilder) roadmapGraph(start, goal spatialmath.Pose2D, obstacles []spatialmath.Obstacle) *Graph {
	diff := goal.Point().Sub(start.Point())
	startGoalDist := diff.Norm()
	if startGoalDist < gb.cfg.XYGoalTolerance {
		return nil
	}
	dir := diff.Normalize()
	normal := diff.Ortho().Normalize()
	width := gb.cfg.RoadmapGraphAreaWidth
	origin := start.Point().Sub(normal.Mul(0.5 * width))

	g := newGraph()
	g.start = g.addVertex(start.Point())

	for i := 0; i < gb.cfg.RoadmapGraphNoSamples; i++ {
		sample, err := gb.drawSample(origin, dir, normal, startGoalDist, width, obstacles)
		if err != nil {
			gb.logger.Debugw("skipping roadmap sample", "sample", i, "error", err)
			continue
		}
		g.addVertex(sample)
	}
	g.goal = g.addVertex(goal.Point())

	gb.connect(g, dir, obstacles, nil)
	return g
}

func (gb *graphBuilder) drawSample(
	origin, dir, normal r2.Point,
	length, width float64,
	obstacles []spatialmath.Obstacle,
) (r2.Point, error) {
	for attempt := 0; attempt < gb.cfg.RoadmapMaxSampleAttempts; attempt++ {
		x := gb.rnd.Float64() * length
		y := gb.rnd.Float64() * width
		sample := origin.Add(dir.Mul(x)).Add(normal.Mul(y))
		if !collidesAny(sample, obstacles, gb.cfg.MinObstacleDist) {
			return sample, nil
		}
	}
	return r2.Point{}, ErrSamplingExhausted
}

// connect adds every admissible edge from a non-goal vertex to any other vertex. An edge must head towards
// the goal within the heading threshold, must keep half the clearance from every obstacle, and must pass
// the optional extra check.
func (gb *graphBuilder) connect(g *Graph, dir r2.Point, obstacles []spatialmath.Obstacle, extra func(from, to int) bool) {
	cosThreshold := math.Cos(gb.cfg.ObstacleHeadingThreshold)
	lineClearance := 0.5 * gb.cfg.MinObstacleDist
	for i := 0; i < g.NumVertices(); i++ {
		if i == g.goal {
			continue
		}
		for j := 0; j < g.NumVertices(); j++ {
			if i == j {
				continue
			}
			edgeDir := g.Position(j).Sub(g.Position(i)).Normalize()
			if edgeDir.Dot(dir) <= cosThreshold {
				continue
			}
			if extra != nil && !extra(i, j) {
				continue
			}
			if lineIntersectsAny(g.Position(i), g.Position(j), obstacles, lineClearance) {
				continue
			}
			g.addEdge(i, j)
		}
	}
}

func collidesAny(p r2.Point, obstacles []spatialmath.Obstacle, clearance float64) bool {
	for _, obs := range obstacles {
		if obs.Collides(p, clearance) {
			return true
		}
	}
	return false
}

func lineIntersectsAny(a, b r2.Point, obstacles []spatialmath.Obstacle, clearance float64) bool {
	for _, obs := range obstacles {
		if obs.LineIntersects(a, b, clearance) {
			return true
		}
	}
	return false
}
