// Package costmap scores robot footprints against an obstacle set, for checking whether a planned trajectory
// can still be driven.
package costmap

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/spatialmath"
)

// footprint costs, following the usual occupancy convention.
const (
	// LethalCost marks a footprint that touches an obstacle.
	LethalCost = -1.
	// FreeCost marks a footprint clear of every obstacle by more than the circumscribed radius.
	FreeCost = 0.
	// InflatedCost marks a footprint whose circumscribed circle reaches an obstacle without the footprint
	// touching it.
	InflatedCost = 128.
)

// ObstacleCostModel evaluates footprints directly against obstacle shapes.
type ObstacleCostModel struct {
	obstacles *spatialmath.ObstacleContainer
}

// NewObstacleCostModel returns a cost model reading the current contents of obstacles on every query.
func NewObstacleCostModel(obstacles *spatialmath.ObstacleContainer) *ObstacleCostModel {
	return &ObstacleCostModel{obstacles: obstacles}
}

// FootprintCost places the footprint, given in robot coordinates, at (x, y, theta). A footprint with fewer than
// three points is treated as a circle with the inscribed radius.
func (m *ObstacleCostModel) FootprintCost(
	x, y, theta float64,
	footprint []r2.Point,
	inscribedRadius, circumscribedRadius float64,
) float64 {
	center := r2.Point{X: x, Y: y}
	obstacles := m.obstacles.All()

	if len(footprint) < 3 {
		for _, obs := range obstacles {
			if obs.Collides(center, inscribedRadius) {
				return LethalCost
			}
		}
	} else {
		world := transformFootprint(footprint, x, y, theta)
		for _, obs := range obstacles {
			if footprintCollides(world, obs) {
				return LethalCost
			}
		}
	}

	for _, obs := range obstacles {
		if obs.MinimumDistance(center) <= circumscribedRadius {
			return InflatedCost
		}
	}
	return FreeCost
}

func transformFootprint(footprint []r2.Point, x, y, theta float64) []r2.Point {
	sin, cos := math.Sincos(theta)
	world := make([]r2.Point, len(footprint))
	for i, p := range footprint {
		world[i] = r2.Point{X: x + cos*p.X - sin*p.Y, Y: y + sin*p.X + cos*p.Y}
	}
	return world
}

// footprintCollides checks the polygon outline and an obstacle lying fully inside it.
func footprintCollides(polygon []r2.Point, obs spatialmath.Obstacle) bool {
	for i := range polygon {
		if obs.LineIntersects(polygon[i], polygon[(i+1)%len(polygon)], 0) {
			return true
		}
	}
	return containsPoint(polygon, obs.Centroid())
}

// containsPoint uses ray casting and accepts non-convex footprints.
func containsPoint(polygon []r2.Point, p r2.Point) bool {
	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
